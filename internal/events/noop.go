package events

import "context"

// NoopPublisher drops every event. Used when NATS is not configured
// and in tests that do not care about events.
type NoopPublisher struct{}

var _ Publisher = (*NoopPublisher)(nil)

func (NoopPublisher) Publish(ctx context.Context, subject string, event OrderEvent) error {
	return nil
}

func (NoopPublisher) Close() {}

// RecordingPublisher collects published events for assertions in tests.
type RecordingPublisher struct {
	Events   []OrderEvent
	Subjects []string
}

var _ Publisher = (*RecordingPublisher)(nil)

func (p *RecordingPublisher) Publish(ctx context.Context, subject string, event OrderEvent) error {
	p.Subjects = append(p.Subjects, subject)
	p.Events = append(p.Events, event)
	return nil
}

func (p *RecordingPublisher) Close() {}
