package ports

import (
	"context"

	"cyberguard/internal/domain/threat"
)

// Analyzer is the external generative-model boundary that produces every risk
// judgment in the system. Implementations return already-validated verdicts;
// any transport, decode, or schema failure comes back as an error and the
// caller persists nothing.
type Analyzer interface {
	AnalyzeWebsite(ctx context.Context, url string) (threat.WebsiteVerdict, error)
	AnalyzeTranscript(ctx context.Context, transcript string) (threat.TranscriptVerdict, error)
	ChatReply(ctx context.Context, message string, history []threat.ChatTurn) (string, error)
}
