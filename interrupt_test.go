package agentcore

import (
	"context"
	"errors"
	"testing"
)

func TestInterruptController_FirstSignal(t *testing.T) {
	c := NewInterruptController()

	if c.Interrupted() || c.ShouldTerminate() {
		t.Fatal("fresh controller is already tripped")
	}
	select {
	case <-c.Done():
		t.Fatal("Done() closed before Interrupt()")
	default:
	}

	c.Interrupt()

	if !c.Interrupted() {
		t.Error("Interrupted() = false after Interrupt()")
	}
	if c.ShouldTerminate() {
		t.Error("ShouldTerminate() = true after a single Interrupt()")
	}
	select {
	case <-c.Done():
	default:
		t.Error("Done() not closed after Interrupt()")
	}
	select {
	case <-c.Terminated():
		t.Error("Terminated() closed after a single Interrupt()")
	default:
	}
}

func TestInterruptController_Escalation(t *testing.T) {
	c := NewInterruptController()

	c.Interrupt()
	c.Interrupt()

	if !c.ShouldTerminate() {
		t.Error("ShouldTerminate() = false after second Interrupt()")
	}
	select {
	case <-c.Terminated():
	default:
		t.Error("Terminated() not closed after escalation")
	}

	// Further signals are no-ops, not panics on re-closed channels.
	c.Interrupt()
	c.Interrupt()
}

func TestInterruptController_Reset(t *testing.T) {
	c := NewInterruptController()
	c.Interrupt()
	c.Interrupt()

	c.Reset()

	if c.Interrupted() || c.ShouldTerminate() {
		t.Error("flags survive Reset()")
	}
	select {
	case <-c.Done():
		t.Error("Done() stayed closed after Reset()")
	default:
	}
	select {
	case <-c.Terminated():
		t.Error("Terminated() stayed closed after Reset()")
	default:
	}

	// The cycle works again after reset.
	c.Interrupt()
	select {
	case <-c.Done():
	default:
		t.Error("Done() not closed after post-reset Interrupt()")
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{
			name: "deadline exceeded",
			err:  context.DeadlineExceeded,
			want: ErrorKindTimeout,
		},
		{
			name: "malformed frame",
			err:  &ProviderError{Message: "bad frame", Err: ErrMalformedFrame},
			want: ErrorKindParse,
		},
		{
			name: "http status",
			err:  &ProviderError{StatusCode: 529, Message: "overloaded"},
			want: ErrorKindHTTPStatus,
		},
		{
			name: "in-band api error",
			err:  &ProviderError{Message: "invalid request"},
			want: ErrorKindAPIError,
		},
		{
			name: "anything else",
			err:  errors.New("surprise"),
			want: ErrorKindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEventSender_NilSafety(t *testing.T) {
	var nilSender *EventSender
	nilSender.SendDelta(AgentEvent{Type: AgentEventAssistantDelta})
	nilSender.Send(context.Background(), AgentEvent{Type: AgentEventTurnStarted})

	noChannel := NewEventSender(nil)
	noChannel.SendDelta(AgentEvent{Type: AgentEventAssistantDelta})
	noChannel.Send(context.Background(), AgentEvent{Type: AgentEventTurnStarted})
}

func TestEventSender_DeltaDropsWhenFull(t *testing.T) {
	ch := make(chan AgentEvent, 1)
	sender := NewEventSender(ch)

	sender.SendDelta(AgentEvent{Type: AgentEventAssistantDelta, Text: "kept"})
	sender.SendDelta(AgentEvent{Type: AgentEventAssistantDelta, Text: "dropped"})

	if len(ch) != 1 {
		t.Fatalf("channel holds %d events, want 1", len(ch))
	}
	if event := <-ch; event.Text != "kept" {
		t.Errorf("delivered delta = %q, want 'kept'", event.Text)
	}
}

func TestEventSender_SendHonorsContext(t *testing.T) {
	ch := make(chan AgentEvent) // unbuffered, no reader
	sender := NewEventSender(ch)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Must return rather than block forever.
	sender.Send(ctx, AgentEvent{Type: AgentEventToolStarted})
}
