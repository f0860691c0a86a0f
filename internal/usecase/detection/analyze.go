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

// AnalyzeWebsite submits a URL to the gateway and, when flagged, records an
// incident plus a best-effort honeypot snapshot. A gateway failure aborts
// with no writes; an incident write failure still returns the verdict with
// Persisted=false.
func (s *Service) AnalyzeWebsite(ctx context.Context, url string) (WebsiteAnalysis, error) {
	if ctx == nil {
		return WebsiteAnalysis{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return WebsiteAnalysis{}, errs.Wrap(err, "check context")
	}
	if s.analyzer == nil {
		return WebsiteAnalysis{}, errors.New("analyzer is required")
	}

	target := strings.TrimSpace(url)
	if target == "" {
		return WebsiteAnalysis{}, errors.New("url is required")
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.detection"),
		slog.String("target", target),
	)

	cacheKey := "website:" + target
	if verdict, ok := s.cachedWebsiteVerdict(logCtx, cacheKey); ok {
		// The flagging write already happened when the verdict was fresh.
		return WebsiteAnalysis{Verdict: verdict, CacheHit: true}, nil
	}

	verdict, err := s.analyzer.AnalyzeWebsite(ctx, target)
	if err != nil {
		return WebsiteAnalysis{}, errs.Wrap(err, "analyze website")
	}

	s.storeVerdict(logCtx, cacheKey, verdict)

	out := WebsiteAnalysis{Verdict: verdict}
	if !verdict.Flagged() {
		return out, nil
	}

	incident, persisted := s.recordFlagged(
		logCtx,
		threat.KindWebsite,
		target,
		verdict.RiskScore,
		verdict.Reasons,
	)
	out.Incident = &incident
	out.Persisted = persisted

	if persisted {
		s.logHoneypot(logCtx, incident.ID, threat.ScamTypePhishing, map[string]any{
			"url":     target,
			"reasons": verdict.Reasons,
			"details": verdict.Details,
		})
	}
	return out, nil
}

// AnalyzeTranscript runs the same pipeline for a live-call transcript.
func (s *Service) AnalyzeTranscript(ctx context.Context, transcript string) (TranscriptAnalysis, error) {
	if ctx == nil {
		return TranscriptAnalysis{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return TranscriptAnalysis{}, errs.Wrap(err, "check context")
	}
	if s.analyzer == nil {
		return TranscriptAnalysis{}, errors.New("analyzer is required")
	}

	text := strings.TrimSpace(transcript)
	if text == "" {
		return TranscriptAnalysis{}, errors.New("transcript is required")
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.detection"),
		slog.String("target", threat.AudioTarget),
	)

	verdict, err := s.analyzer.AnalyzeTranscript(ctx, text)
	if err != nil {
		return TranscriptAnalysis{}, errs.Wrap(err, "analyze transcript")
	}

	out := TranscriptAnalysis{Verdict: verdict}
	if !verdict.Flagged() {
		return out, nil
	}

	incident, persisted := s.recordFlagged(
		logCtx,
		threat.KindAudio,
		threat.AudioTarget,
		verdict.ScamProbability,
		verdict.Alerts,
	)
	out.Incident = &incident
	out.Persisted = persisted

	if persisted {
		s.logHoneypot(logCtx, incident.ID, threat.ScamTypeAudioFraud, map[string]any{
			"alerts":      verdict.Alerts,
			"explanation": verdict.Explanation,
			"transcript":  threat.TruncateExcerpt(text),
		})
	}
	return out, nil
}

// recordFlagged builds the incident and attempts the durable write. On write
// failure the built record is still returned, tagged non-persisted, so the
// presentation layer can show it without conflating it with committed data.
func (s *Service) recordFlagged(
	ctx context.Context,
	kind threat.IncidentKind,
	target string,
	riskScore int,
	patterns []string,
) (threat.Incident, bool) {
	incident := s.buildIncident(kind, target, riskScore, patterns)

	if err := s.incidents.Insert(ctx, incident); err != nil {
		logging.Error(ctx, "incident write failed, verdict stays transient",
			slog.String("incident_id", incident.ID),
			slog.Any("err", errs.Loggable(err)),
		)
		return incident, false
	}

	logging.Info(ctx, "incident recorded",
		slog.String("incident_id", incident.ID),
		slog.String("kind", string(kind)),
		slog.Int("risk_score", riskScore),
	)
	return incident, true
}

// logHoneypot records the intelligence snapshot. Best-effort relative to the
// incident write: failure is logged and never rolls the incident back.
func (s *Service) logHoneypot(ctx context.Context, incidentID string, scamType string, intel map[string]any) {
	raw, err := json.Marshal(intel)
	if err != nil {
		logging.Error(ctx, "honeypot intel marshal failed", slog.Any("err", errs.Loggable(err)))
		return
	}

	event := threat.HoneypotEvent{
		ID:         s.newID(),
		ScamType:   scamType,
		IncidentID: incidentID,
		Intel:      string(raw),
		CreatedAt:  s.now().UTC().Format(timeLayout),
	}

	if err := s.honeypot.Insert(ctx, event); err != nil {
		logging.Error(ctx, "honeypot write failed",
			slog.String("incident_id", incidentID),
			slog.Any("err", errs.Loggable(err)),
		)
		return
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, event); err != nil {
			logging.Warn(ctx, "intel publish failed",
				slog.String("event_id", event.ID),
				slog.Any("err", errs.Loggable(err)),
			)
		}
	}
}

func (s *Service) cachedWebsiteVerdict(ctx context.Context, key string) (threat.WebsiteVerdict, bool) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return threat.WebsiteVerdict{}, false
	}

	raw, found, err := s.cache.Get(ctx, key)
	if err != nil {
		logging.Warn(ctx, "verdict cache read failed", slog.Any("err", errs.Loggable(err)))
		return threat.WebsiteVerdict{}, false
	}
	if !found {
		return threat.WebsiteVerdict{}, false
	}

	var verdict threat.WebsiteVerdict
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		logging.Warn(ctx, "verdict cache entry unreadable", slog.Any("err", errs.Loggable(err)))
		return threat.WebsiteVerdict{}, false
	}
	if err := threat.ValidateWebsiteVerdict(verdict); err != nil {
		return threat.WebsiteVerdict{}, false
	}
	return verdict, true
}

func (s *Service) storeVerdict(ctx context.Context, key string, verdict threat.WebsiteVerdict) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}

	raw, err := json.Marshal(verdict)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), s.cacheTTL); err != nil {
		logging.Warn(ctx, "verdict cache write failed", slog.Any("err", errs.Loggable(err)))
	}
}
