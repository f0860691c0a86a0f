package detection

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"cyberguard/internal/bootstrap/logging"
	"cyberguard/internal/domain/threat"
	"cyberguard/internal/errs"
)

// RecordHoneypotEvent writes an intelligence snapshot directly, for callers
// that bring their own intel payload (the compatibility POST endpoint). The
// payload is stored as given when it is already valid JSON, otherwise quoted.
func (s *Service) RecordHoneypotEvent(
	ctx context.Context,
	incidentID string,
	scamType string,
	intel string,
) (threat.HoneypotEvent, error) {
	if ctx == nil {
		return threat.HoneypotEvent{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return threat.HoneypotEvent{}, errs.Wrap(err, "check context")
	}
	if s.honeypot == nil {
		return threat.HoneypotEvent{}, errors.New("honeypot repository is required")
	}
	if strings.TrimSpace(scamType) == "" {
		return threat.HoneypotEvent{}, errors.New("scam type is required")
	}

	payload := intel
	if !json.Valid([]byte(payload)) {
		raw, err := json.Marshal(payload)
		if err != nil {
			return threat.HoneypotEvent{}, errs.Wrap(err, "quote intel payload")
		}
		payload = string(raw)
	}

	event := threat.HoneypotEvent{
		ID:         s.newID(),
		ScamType:   strings.TrimSpace(scamType),
		IncidentID: strings.TrimSpace(incidentID),
		Intel:      payload,
		CreatedAt:  s.now().UTC().Format(timeLayout),
	}

	if err := s.honeypot.Insert(ctx, event); err != nil {
		return threat.HoneypotEvent{}, errs.Wrap(err, "insert honeypot event")
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, event); err != nil {
			logging.Warn(
				logging.WithAttrs(ctx, slog.String("component", "usecase.detection")),
				"intel publish failed",
				slog.String("event_id", event.ID),
				slog.Any("err", errs.Loggable(err)),
			)
		}
	}
	return event, nil
}

// ListRecentIntel returns up to 50 honeypot events newest-first, intel left
// as the raw stored JSON. Read failure degrades to an empty list.
func (s *Service) ListRecentIntel(ctx context.Context) []threat.HoneypotEvent {
	if ctx == nil || s.honeypot == nil {
		return []threat.HoneypotEvent{}
	}

	items, err := s.honeypot.ListRecent(ctx)
	if err != nil {
		logging.Error(
			logging.WithAttrs(ctx, slog.String("component", "usecase.detection")),
			"honeypot list failed, serving empty result",
			slog.Any("err", errs.Loggable(err)),
		)
		return []threat.HoneypotEvent{}
	}
	return items
}
