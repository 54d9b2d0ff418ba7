package events

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"

	"github.com/forjalabs/forja/internal/domain"
)

// subjectPrefix namespaces our subjects on a shared NATS cluster.
const subjectPrefix = "forja."

// NATSPublisher publishes order events as JSON messages on NATS.
type NATSPublisher struct {
	conn *nats.Conn
}

var _ Publisher = (*NATSPublisher)(nil)

// NewNATSPublisher connects to the given NATS URL.
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("forja"))
	if err != nil {
		return nil, domain.WrapError(err, domain.EUNAVAILABLE, "events.nats.connect", "Unable to connect to NATS")
	}
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, event OrderEvent) error {
	const op = "events.nats.publish"

	payload, err := json.Marshal(event)
	if err != nil {
		return domain.WrapError(err, domain.EINTERNAL, op, "Unable to encode event")
	}
	if err := p.conn.Publish(subjectPrefix+subject, payload); err != nil {
		return domain.WrapError(err, domain.EUNAVAILABLE, op, "Unable to publish event")
	}
	return nil
}

func (p *NATSPublisher) Close() {
	_ = p.conn.Drain()
}
