package intel

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/nats-io/nats.go"

	"cyberguard/internal/domain/threat"
	"cyberguard/internal/errs"
	"cyberguard/internal/ports"
)

// NATSPublisher pushes honeypot events to a NATS subject. Fire-and-forget:
// the detection flow logs a failed publish and keeps going.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

var _ ports.IntelPublisher = (*NATSPublisher)(nil)

type wireEvent struct {
	ID         string          `json:"id"`
	ScamType   string          `json:"scam_type"`
	IncidentID string          `json:"incident_id,omitempty"`
	Intel      json.RawMessage `json:"intel_extracted"`
	CreatedAt  string          `json:"timestamp"`
}

func NewNATSPublisher(url string, subject string) (*NATSPublisher, error) {
	trimmedURL := strings.TrimSpace(url)
	if trimmedURL == "" {
		return nil, errors.New("nats url is required")
	}
	trimmedSubject := strings.TrimSpace(subject)
	if trimmedSubject == "" {
		return nil, errors.New("nats subject is required")
	}

	conn, err := nats.Connect(trimmedURL, nats.Name("cyberguard-intel"))
	if err != nil {
		return nil, errs.Wrap(err, "connect nats")
	}

	return &NATSPublisher{conn: conn, subject: trimmedSubject}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, event threat.HoneypotEvent) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	intel := json.RawMessage(event.Intel)
	if !json.Valid(intel) {
		raw, err := json.Marshal(event.Intel)
		if err != nil {
			return errs.Wrap(err, "quote intel payload")
		}
		intel = raw
	}

	payload, err := json.Marshal(wireEvent{
		ID:         event.ID,
		ScamType:   event.ScamType,
		IncidentID: event.IncidentID,
		Intel:      intel,
		CreatedAt:  event.CreatedAt,
	})
	if err != nil {
		return errs.Wrap(err, "marshal intel event")
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		return errs.Wrap(err, "publish intel event")
	}
	return nil
}

func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	if err := p.conn.Drain(); err != nil {
		return errs.Wrap(err, "drain intel connection")
	}
	return nil
}
