package recovery

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pronet/recovery-portal/internal/domain"
	"github.com/pronet/recovery-portal/internal/events"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeService struct {
	reply   domain.ServiceReply
	err     error
	release chan struct{}
	calls   atomic.Int32

	mu       sync.Mutex
	requests []domain.RecoveryRequest
}

func (f *fakeService) RequestRecovery(ctx context.Context, req domain.RecoveryRequest) (domain.ServiceReply, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.release != nil {
		<-f.release
	}
	return f.reply, f.err
}

type recordingSink struct {
	mu    sync.Mutex
	items []domain.Notification
}

func (s *recordingSink) Notify(kind domain.NotificationKind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, domain.Notification{Kind: kind, Message: message})
}

func (s *recordingSink) all() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Notification(nil), s.items...)
}

type recordingNavigator struct {
	mu       sync.Mutex
	handoffs []domain.Handoff
	err      error
}

func (n *recordingNavigator) Handoff(_ context.Context, h domain.Handoff) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handoffs = append(n.handoffs, h)
	return n.err
}

type harness struct {
	svc    *fakeService
	sink   *recordingSink
	nav    *recordingNavigator
	events []events.Event
	orch   *Orchestrator
}

func newHarness(svc *fakeService) *harness {
	h := &harness{svc: svc, sink: &recordingSink{}, nav: &recordingNavigator{}}
	dispatcher := events.NewInMemoryDispatcher()
	record := func(_ context.Context, e events.Event) error {
		h.events = append(h.events, e)
		return nil
	}
	for _, typ := range []events.EventType{
		events.EventRecoveryValidationFailed,
		events.EventRecoveryAccepted,
		events.EventRecoveryRejected,
		events.EventRecoveryTransportFailed,
	} {
		dispatcher.Subscribe(typ, record)
	}
	h.orch = New(Options{ID: "wf-1", Service: svc, Sink: h.sink, Navigator: h.nav, Events: dispatcher})
	return h
}

func TestOrchestrator_AcceptedWithOTP(t *testing.T) {
	h := newHarness(&fakeService{reply: domain.ServiceReply{Status: intPtr(1), DataOTP: "123456"}})

	out, err := h.orch.Submit(context.Background(), "  User@Example.com ")
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeAccepted, out.Kind)
	require.NotNil(t, out.OTP)
	assert.Equal(t, "123456", *out.OTP)
	assert.Equal(t, []domain.RecoveryRequest{{Email: "user@example.com"}}, h.svc.requests)

	require.Len(t, h.nav.handoffs, 1)
	assert.Equal(t, "user@example.com", h.nav.handoffs[0].Email)
	assert.Equal(t, "123456", *h.nav.handoffs[0].OTP)

	notes := h.sink.all()
	require.Len(t, notes, 1)
	assert.Equal(t, domain.NotificationSuccess, notes[0].Kind)

	assert.Equal(t, PhaseCompleted, h.orch.State().Phase)
	require.Len(t, h.events, 1)
	assert.Equal(t, events.EventRecoveryAccepted, h.events[0].Type)
	assert.Equal(t, "wf-1", h.events[0].WorkflowID)
	assert.Equal(t, "example.com", h.events[0].Payload.EmailDomain)
	assert.True(t, h.events[0].Payload.InlineOTP)
}

func TestOrchestrator_AcceptedWithoutOTP(t *testing.T) {
	h := newHarness(&fakeService{reply: domain.ServiceReply{Status: intPtr(1), Message: "sent"}})

	out, err := h.orch.Submit(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.True(t, out.Accepted())
	assert.Nil(t, out.OTP)
	require.Len(t, h.nav.handoffs, 1)
	assert.Nil(t, h.nav.handoffs[0].OTP)
	assert.Len(t, h.sink.all(), 1)
}

func TestOrchestrator_Rejected(t *testing.T) {
	h := newHarness(&fakeService{reply: domain.ServiceReply{Status: intPtr(0), Message: "Account not found"}})

	out, err := h.orch.Submit(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRejected, out.Kind)
	assert.Equal(t, "Account not found", out.Message)
	assert.Empty(t, h.nav.handoffs)

	notes := h.sink.all()
	require.Len(t, notes, 1)
	assert.Equal(t, domain.Notification{Kind: domain.NotificationError, Message: "Account not found"}, notes[0])
	require.Len(t, h.events, 1)
	assert.Equal(t, events.EventRecoveryRejected, h.events[0].Type)
}

func TestOrchestrator_TransportError(t *testing.T) {
	h := newHarness(&fakeService{err: &TransportError{Err: errors.New("dial tcp: connection refused")}})

	out, err := h.orch.Submit(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeTransportError, out.Kind)
	assert.Equal(t, fallbackTransportMessage, out.Message)
	assert.Empty(t, h.nav.handoffs)
	require.Len(t, h.sink.all(), 1)
	assert.Equal(t, domain.NotificationError, h.sink.all()[0].Kind)
	require.Len(t, h.events, 1)
	assert.Equal(t, events.EventRecoveryTransportFailed, h.events[0].Type)
}

func TestOrchestrator_ValidationFailureSendsNothing(t *testing.T) {
	h := newHarness(&fakeService{reply: domain.ServiceReply{Status: intPtr(1)}})

	_, err := h.orch.Submit(context.Background(), "not-an-email")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ReasonMalformedEmail, verr.Reason)

	assert.Zero(t, h.svc.calls.Load())
	assert.Equal(t, PhaseIdle, h.orch.State().Phase)
	require.Len(t, h.sink.all(), 1)
	require.Len(t, h.events, 1)
	assert.Equal(t, events.EventRecoveryValidationFailed, h.events[0].Type)
	assert.Equal(t, string(ReasonMalformedEmail), h.events[0].Payload.Reason)
}

func TestOrchestrator_RejectsSubmitWhileInFlight(t *testing.T) {
	svc := &fakeService{reply: domain.ServiceReply{Status: intPtr(1)}, release: make(chan struct{})}
	h := newHarness(svc)

	type result struct {
		out domain.RecoveryOutcome
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := h.orch.Submit(context.Background(), "user@example.com")
		done <- result{out, err}
	}()

	require.Eventually(t, func() bool { return svc.calls.Load() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, PhaseSubmitting, h.orch.State().Phase)

	_, err := h.orch.Submit(context.Background(), "user@example.com")
	assert.ErrorIs(t, err, ErrInFlight)
	assert.False(t, h.orch.Reset())

	close(svc.release)
	res := <-done
	require.NoError(t, res.err)
	assert.True(t, res.out.Accepted())
	assert.EqualValues(t, 1, svc.calls.Load())
	assert.Len(t, h.sink.all(), 1)
}

func TestOrchestrator_ResubmitAfterFailure(t *testing.T) {
	svc := &fakeService{err: errors.New("timeout")}
	h := newHarness(svc)

	out, err := h.orch.Submit(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeTransportError, out.Kind)

	svc.err = nil
	svc.reply = domain.ServiceReply{Success: boolPtr(true)}
	out, err = h.orch.Submit(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.True(t, out.Accepted())
	assert.EqualValues(t, 2, svc.calls.Load())
	assert.Len(t, h.sink.all(), 2)

	assert.True(t, h.orch.Reset())
	assert.Equal(t, State{Phase: PhaseIdle}, h.orch.State())
}

type panickingService struct{}

func (panickingService) RequestRecovery(context.Context, domain.RecoveryRequest) (domain.ServiceReply, error) {
	panic("boom")
}

func TestOrchestrator_ServicePanicBecomesTransportError(t *testing.T) {
	sink := &recordingSink{}
	orch := New(Options{Service: panickingService{}, Sink: sink})

	out, err := orch.Submit(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeTransportError, out.Kind)
	assert.Len(t, sink.all(), 1)
	assert.NotEmpty(t, orch.ID())
}

func TestOrchestrator_HandoffFailureKeepsOutcome(t *testing.T) {
	h := newHarness(&fakeService{reply: domain.ServiceReply{Status: intPtr(1)}})
	h.nav.err = errors.New("redis down")

	out, err := h.orch.Submit(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.True(t, out.Accepted())
	assert.Len(t, h.sink.all(), 1)
}
