package threat

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// IncidentKind names the analysis surface that produced an incident.
type IncidentKind string

const (
	KindWebsite IncidentKind = "website"
	KindAudio   IncidentKind = "audio"
)

// WebsiteStatus is the gateway's three-way classification of a URL.
type WebsiteStatus string

const (
	StatusSafe       WebsiteStatus = "Safe"
	StatusSuspicious WebsiteStatus = "Suspicious"
	StatusFake       WebsiteStatus = "Fake"
)

// Scam type labels recorded with honeypot events.
const (
	ScamTypePhishing   = "Phishing"
	ScamTypeAudioFraud = "Audio Fraud"
)

// AudioTarget is the fixed incident target for live-call sessions, which have
// no URL to record.
const AudioTarget = "Live Call Analysis"

// ExcerptLimit caps source-text excerpts stored inside honeypot intel.
const ExcerptLimit = 200

// Incident is one flagged analysis. Append-only: risk score and patterns are
// never recomputed after the write.
type Incident struct {
	ID        string
	Kind      IncidentKind
	Target    string
	CreatedAt string
	RiskScore int
	Patterns  []string
}

// HoneypotEvent is a denormalized intelligence snapshot taken from a flagging
// incident. Intel stays an opaque JSON blob; readers parse it themselves.
type HoneypotEvent struct {
	ID         string
	ScamType   string
	IncidentID string
	Intel      string
	CreatedAt  string
}

// WebsiteVerdict is the gateway's answer for a URL.
type WebsiteVerdict struct {
	Status    WebsiteStatus `json:"status" jsonschema:"enum=Safe,enum=Suspicious,enum=Fake"`
	RiskScore int           `json:"riskScore" jsonschema_description:"Risk score from 0 to 100"`
	Reasons   []string      `json:"reasons"`
	Details   string        `json:"details"`
}

// Flagged reports whether the verdict must produce incident and honeypot
// writes.
func (v WebsiteVerdict) Flagged() bool {
	return v.Status != StatusSafe
}

// TranscriptVerdict is the gateway's answer for a call transcript.
type TranscriptVerdict struct {
	ScamProbability int      `json:"scamProbability" jsonschema_description:"Scam probability from 0 to 100"`
	IsScam          bool     `json:"isScam"`
	Alerts          []string `json:"alerts"`
	Explanation     string   `json:"explanation"`
}

func (v TranscriptVerdict) Flagged() bool {
	return v.IsScam
}

// ChatRole is a turn author in the support conversation.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatTurn is one prior turn handed back to the gateway on each message.
type ChatTurn struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// ValidateWebsiteVerdict rejects gateway replies that parsed as JSON but do
// not satisfy the verdict contract. A rejected verdict persists nothing.
func ValidateWebsiteVerdict(v WebsiteVerdict) error {
	switch v.Status {
	case StatusSafe, StatusSuspicious, StatusFake:
	default:
		return fmt.Errorf("invalid website status %q", string(v.Status))
	}
	if v.RiskScore < 0 || v.RiskScore > 100 {
		return fmt.Errorf("risk score %d out of range [0,100]", v.RiskScore)
	}
	if v.Flagged() && len(v.Reasons) == 0 {
		return fmt.Errorf("flagged verdict %q carries no reasons", string(v.Status))
	}
	return nil
}

func ValidateTranscriptVerdict(v TranscriptVerdict) error {
	if v.ScamProbability < 0 || v.ScamProbability > 100 {
		return fmt.Errorf("scam probability %d out of range [0,100]", v.ScamProbability)
	}
	if v.IsScam && len(v.Alerts) == 0 {
		return fmt.Errorf("scam verdict carries no alerts")
	}
	return nil
}

func ValidateKind(kind IncidentKind) error {
	switch kind {
	case KindWebsite, KindAudio:
		return nil
	default:
		return fmt.Errorf("invalid incident kind %q", string(kind))
	}
}

// TruncateExcerpt bounds stored source text at ExcerptLimit runes without
// splitting a rune.
func TruncateExcerpt(text string) string {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) <= ExcerptLimit {
		return trimmed
	}

	runes := []rune(trimmed)
	return string(runes[:ExcerptLimit])
}
