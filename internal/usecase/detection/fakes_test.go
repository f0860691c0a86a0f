package detection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cyberguard/internal/domain/threat"
)

type fakeIncidentRepo struct {
	rows       []threat.Incident
	insertErr  error
	listErr    error
	insertSeen int
}

func (f *fakeIncidentRepo) Insert(_ context.Context, incident threat.Incident) error {
	f.insertSeen++
	if f.insertErr != nil {
		return f.insertErr
	}
	f.rows = append(f.rows, incident)
	return nil
}

func (f *fakeIncidentRepo) ListAll(_ context.Context) ([]threat.Incident, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]threat.Incident, len(f.rows))
	copy(out, f.rows)
	// Newest first, mirroring the sqlite repository contract.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

type fakeHoneypotRepo struct {
	rows      []threat.HoneypotEvent
	insertErr error
	listErr   error
}

func (f *fakeHoneypotRepo) Insert(_ context.Context, event threat.HoneypotEvent) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.rows = append(f.rows, event)
	return nil
}

func (f *fakeHoneypotRepo) ListRecent(_ context.Context) ([]threat.HoneypotEvent, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]threat.HoneypotEvent, len(f.rows))
	copy(out, f.rows)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

type fakeAnalyzer struct {
	websiteVerdict    threat.WebsiteVerdict
	websiteErr        error
	websiteCalls      int
	transcriptVerdict threat.TranscriptVerdict
	transcriptErr     error
	chatReply         string
	chatErr           error
	lastMessage       string
	lastHistory       []threat.ChatTurn
}

func (f *fakeAnalyzer) AnalyzeWebsite(_ context.Context, _ string) (threat.WebsiteVerdict, error) {
	f.websiteCalls++
	if f.websiteErr != nil {
		return threat.WebsiteVerdict{}, f.websiteErr
	}
	return f.websiteVerdict, nil
}

func (f *fakeAnalyzer) AnalyzeTranscript(_ context.Context, _ string) (threat.TranscriptVerdict, error) {
	if f.transcriptErr != nil {
		return threat.TranscriptVerdict{}, f.transcriptErr
	}
	return f.transcriptVerdict, nil
}

func (f *fakeAnalyzer) ChatReply(_ context.Context, message string, history []threat.ChatTurn) (string, error) {
	f.lastMessage = message
	f.lastHistory = history
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return f.chatReply, nil
}

type fakeCache struct {
	entries map[string]string
	getErr  error
	setErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]string{}}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	value, found := f.entries[key]
	return value, found, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[key] = value
	return nil
}

func (f *fakeCache) Delete(_ context.Context, key string) error {
	delete(f.entries, key)
	return nil
}

type fakePublisher struct {
	published []threat.HoneypotEvent
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, event threat.HoneypotEvent) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, event)
	return nil
}

var errStoreDown = errors.New("store unreachable")

func newTestService(
	incidents *fakeIncidentRepo,
	honeypot *fakeHoneypotRepo,
	analyzer *fakeAnalyzer,
	cache *fakeCache,
	publisher *fakePublisher,
) *Service {
	svc := &Service{
		incidents: incidents,
		honeypot:  honeypot,
		analyzer:  analyzer,
		cacheTTL:  15 * time.Minute,
	}
	if cache != nil {
		svc.cache = cache
	}
	if publisher != nil {
		svc.publisher = publisher
	}

	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("id-%04d", seq)
	}
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		base = base.Add(time.Second)
		return base
	}
	return svc
}
