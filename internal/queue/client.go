package queue

import "context"

// Client publishes media lifecycle events.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// Discard drops every event. Bootstrap uses it when no queue is configured.
type Discard struct{}

func (Discard) Send(context.Context, Message) error { return nil }

var _ Client = Discard{}
