package detection

import (
	"time"

	"github.com/google/uuid"

	"cyberguard/internal/domain/threat"
	"cyberguard/internal/ports"
)

// Service runs the ingest pipeline: delegate input to the analysis gateway,
// persist flagged verdicts as incidents plus honeypot intelligence, and
// aggregate stored state for display.
type Service struct {
	incidents ports.IncidentRepository
	honeypot  ports.HoneypotRepository
	analyzer  ports.Analyzer
	cache     ports.Cache
	publisher ports.IntelPublisher

	cacheTTL time.Duration
	now      func() time.Time
	newID    func() string
}

// NewService wires detection usecases. cache and publisher may be nil; the
// pipeline then skips verdict caching and intel publishing.
func NewService(
	incidents ports.IncidentRepository,
	honeypot ports.HoneypotRepository,
	analyzer ports.Analyzer,
	cache ports.Cache,
	publisher ports.IntelPublisher,
	cacheTTL time.Duration,
) *Service {
	return &Service{
		incidents: incidents,
		honeypot:  honeypot,
		analyzer:  analyzer,
		cache:     cache,
		publisher: publisher,
		cacheTTL:  cacheTTL,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// WebsiteAnalysis is the outcome of one URL submission. Persisted is false
// either for a Safe verdict (nothing to store) or when the store write
// failed; Incident is still populated in the failure case so the caller can
// show the flagged result without pretending it is durable.
type WebsiteAnalysis struct {
	Verdict   threat.WebsiteVerdict
	Incident  *threat.Incident
	Persisted bool
	CacheHit  bool
}

type TranscriptAnalysis struct {
	Verdict   threat.TranscriptVerdict
	Incident  *threat.Incident
	Persisted bool
}

// DashboardSummary aggregates stored state for the dashboard view.
type DashboardSummary struct {
	TotalIncidents   int            `json:"totalIncidents"`
	WebsiteIncidents int            `json:"websiteIncidents"`
	AudioIncidents   int            `json:"audioIncidents"`
	HighRiskCount    int            `json:"highRiskCount"`
	AverageRisk      int            `json:"averageRisk"`
	MaxRisk          int            `json:"maxRisk"`
	TopPatterns      []PatternCount `json:"topPatterns"`
	ScamTypeCounts   map[string]int `json:"scamTypeCounts"`
}

type PatternCount struct {
	Pattern string `json:"pattern"`
	Count   int    `json:"count"`
}
