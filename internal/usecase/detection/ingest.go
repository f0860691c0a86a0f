package detection

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"cyberguard/internal/bootstrap/logging"
	"cyberguard/internal/domain/threat"
	"cyberguard/internal/errs"
)

const timeLayout = time.RFC3339Nano

// RecordIncident writes a finalized incident with a server-generated id and
// timestamp and returns the stored record. Client-supplied identifiers are
// never accepted.
func (s *Service) RecordIncident(
	ctx context.Context,
	kind threat.IncidentKind,
	target string,
	riskScore int,
	patterns []string,
) (threat.Incident, error) {
	if ctx == nil {
		return threat.Incident{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return threat.Incident{}, errs.Wrap(err, "check context")
	}
	if s.incidents == nil {
		return threat.Incident{}, errors.New("incident repository is required")
	}

	if err := threat.ValidateKind(kind); err != nil {
		return threat.Incident{}, err
	}
	if strings.TrimSpace(target) == "" {
		return threat.Incident{}, errors.New("target is required")
	}
	if riskScore < 0 || riskScore > 100 {
		return threat.Incident{}, errors.New("risk score out of range [0,100]")
	}

	incident := s.buildIncident(kind, target, riskScore, patterns)
	if err := s.incidents.Insert(ctx, incident); err != nil {
		return threat.Incident{}, errs.Wrap(err, "insert incident")
	}
	return incident, nil
}

// ListIncidents returns all incidents newest-first. A store read failure is
// logged and degrades to an empty list; the caller stays usable.
func (s *Service) ListIncidents(ctx context.Context) []threat.Incident {
	if ctx == nil || s.incidents == nil {
		return []threat.Incident{}
	}

	items, err := s.incidents.ListAll(ctx)
	if err != nil {
		logging.Error(
			logging.WithAttrs(ctx, slog.String("component", "usecase.detection")),
			"incident list failed, serving empty result",
			slog.Any("err", errs.Loggable(err)),
		)
		return []threat.Incident{}
	}
	return items
}

// Summary aggregates stored state for the dashboard. Read failures degrade
// to a zero-valued summary.
func (s *Service) Summary(ctx context.Context) DashboardSummary {
	summary := DashboardSummary{
		TopPatterns:    []PatternCount{},
		ScamTypeCounts: map[string]int{},
	}

	incidents := s.ListIncidents(ctx)
	summary.TotalIncidents = len(incidents)

	totalRisk := 0
	patternCounts := map[string]int{}
	for _, incident := range incidents {
		switch incident.Kind {
		case threat.KindWebsite:
			summary.WebsiteIncidents++
		case threat.KindAudio:
			summary.AudioIncidents++
		}

		totalRisk += incident.RiskScore
		if incident.RiskScore > summary.MaxRisk {
			summary.MaxRisk = incident.RiskScore
		}
		if incident.RiskScore >= 80 {
			summary.HighRiskCount++
		}
		for _, pattern := range incident.Patterns {
			patternCounts[pattern]++
		}
	}
	if len(incidents) > 0 {
		summary.AverageRisk = totalRisk / len(incidents)
	}
	summary.TopPatterns = topPatterns(patternCounts, 5)

	for _, event := range s.ListRecentIntel(ctx) {
		summary.ScamTypeCounts[event.ScamType]++
	}

	return summary
}

func (s *Service) buildIncident(
	kind threat.IncidentKind,
	target string,
	riskScore int,
	patterns []string,
) threat.Incident {
	if patterns == nil {
		patterns = []string{}
	}
	return threat.Incident{
		ID:        s.newID(),
		Kind:      kind,
		Target:    strings.TrimSpace(target),
		CreatedAt: s.now().UTC().Format(timeLayout),
		RiskScore: riskScore,
		Patterns:  patterns,
	}
}

func topPatterns(counts map[string]int, limit int) []PatternCount {
	items := make([]PatternCount, 0, len(counts))
	for pattern, count := range counts {
		items = append(items, PatternCount{Pattern: pattern, Count: count})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Pattern < items[j].Pattern
	})

	if len(items) > limit {
		items = items[:limit]
	}
	return items
}
