package detection

import (
	"context"
	"testing"

	"cyberguard/internal/domain/threat"
)

func TestRecordIncidentGeneratesIDAndTimestamp(t *testing.T) {
	incidents := &fakeIncidentRepo{}
	svc := newTestService(incidents, &fakeHoneypotRepo{}, &fakeAnalyzer{}, nil, nil)

	incident, err := svc.RecordIncident(
		context.Background(),
		threat.KindWebsite,
		"http://example-bank-login.com",
		92,
		[]string{"urgency", "lookalike-domain"},
	)
	if err != nil {
		t.Fatalf("RecordIncident() error = %v", err)
	}
	if incident.ID == "" || incident.CreatedAt == "" {
		t.Fatalf("missing server-generated fields: %#v", incident)
	}
	if len(incidents.rows) != 1 {
		t.Fatalf("rows = %d", len(incidents.rows))
	}
	if incidents.rows[0].ID != incident.ID {
		t.Fatalf("stored id = %q, returned %q", incidents.rows[0].ID, incident.ID)
	}
}

func TestRecordIncidentValidation(t *testing.T) {
	svc := newTestService(&fakeIncidentRepo{}, &fakeHoneypotRepo{}, &fakeAnalyzer{}, nil, nil)
	ctx := context.Background()

	if _, err := svc.RecordIncident(ctx, "email", "x", 10, nil); err == nil {
		t.Fatal("expected kind error")
	}
	if _, err := svc.RecordIncident(ctx, threat.KindWebsite, "  ", 10, nil); err == nil {
		t.Fatal("expected target error")
	}
	if _, err := svc.RecordIncident(ctx, threat.KindWebsite, "x", 101, nil); err == nil {
		t.Fatal("expected score error")
	}
	if _, err := svc.RecordIncident(ctx, threat.KindWebsite, "x", -1, nil); err == nil {
		t.Fatal("expected score error")
	}
}

func TestListIncidentsDegradesToEmptyOnStoreFailure(t *testing.T) {
	incidents := &fakeIncidentRepo{listErr: errStoreDown}
	svc := newTestService(incidents, &fakeHoneypotRepo{}, &fakeAnalyzer{}, nil, nil)

	items := svc.ListIncidents(context.Background())
	if items == nil {
		t.Fatal("ListIncidents() returned nil, want empty slice")
	}
	if len(items) != 0 {
		t.Fatalf("ListIncidents() len = %d", len(items))
	}
}

func TestListRecentIntelDegradesToEmptyOnStoreFailure(t *testing.T) {
	honeypot := &fakeHoneypotRepo{listErr: errStoreDown}
	svc := newTestService(&fakeIncidentRepo{}, honeypot, &fakeAnalyzer{}, nil, nil)

	items := svc.ListRecentIntel(context.Background())
	if items == nil || len(items) != 0 {
		t.Fatalf("ListRecentIntel() = %#v, want empty slice", items)
	}
}

func TestSummaryAggregates(t *testing.T) {
	incidents := &fakeIncidentRepo{}
	honeypot := &fakeHoneypotRepo{}
	svc := newTestService(incidents, honeypot, &fakeAnalyzer{}, nil, nil)
	ctx := context.Background()

	seed := []struct {
		kind     threat.IncidentKind
		score    int
		patterns []string
	}{
		{threat.KindWebsite, 92, []string{"lookalike domain", "no SSL"}},
		{threat.KindWebsite, 55, []string{"urgency"}},
		{threat.KindAudio, 81, []string{"urgency", "gift cards"}},
	}
	for _, item := range seed {
		target := "http://a.example"
		if item.kind == threat.KindAudio {
			target = threat.AudioTarget
		}
		if _, err := svc.RecordIncident(ctx, item.kind, target, item.score, item.patterns); err != nil {
			t.Fatalf("seed incident: %v", err)
		}
	}
	if _, err := svc.RecordHoneypotEvent(ctx, "", threat.ScamTypePhishing, `{"url":"x"}`); err != nil {
		t.Fatalf("seed honeypot: %v", err)
	}
	if _, err := svc.RecordHoneypotEvent(ctx, "", threat.ScamTypeAudioFraud, `{}`); err != nil {
		t.Fatalf("seed honeypot: %v", err)
	}

	summary := svc.Summary(ctx)
	if summary.TotalIncidents != 3 || summary.WebsiteIncidents != 2 || summary.AudioIncidents != 1 {
		t.Fatalf("summary counts = %#v", summary)
	}
	if summary.MaxRisk != 92 {
		t.Fatalf("max risk = %d", summary.MaxRisk)
	}
	if summary.AverageRisk != (92+55+81)/3 {
		t.Fatalf("average risk = %d", summary.AverageRisk)
	}
	if summary.HighRiskCount != 2 {
		t.Fatalf("high risk count = %d", summary.HighRiskCount)
	}
	if len(summary.TopPatterns) == 0 || summary.TopPatterns[0].Pattern != "urgency" || summary.TopPatterns[0].Count != 2 {
		t.Fatalf("top patterns = %#v", summary.TopPatterns)
	}
	if summary.ScamTypeCounts[threat.ScamTypePhishing] != 1 || summary.ScamTypeCounts[threat.ScamTypeAudioFraud] != 1 {
		t.Fatalf("scam type counts = %#v", summary.ScamTypeCounts)
	}
}

func TestSummaryDegradesWhenStoreUnreachable(t *testing.T) {
	incidents := &fakeIncidentRepo{listErr: errStoreDown}
	honeypot := &fakeHoneypotRepo{listErr: errStoreDown}
	svc := newTestService(incidents, honeypot, &fakeAnalyzer{}, nil, nil)

	summary := svc.Summary(context.Background())
	if summary.TotalIncidents != 0 || len(summary.TopPatterns) != 0 || len(summary.ScamTypeCounts) != 0 {
		t.Fatalf("degraded summary = %#v", summary)
	}
}

func TestRecordHoneypotEventQuotesNonJSONIntel(t *testing.T) {
	honeypot := &fakeHoneypotRepo{}
	svc := newTestService(&fakeIncidentRepo{}, honeypot, &fakeAnalyzer{}, nil, nil)

	event, err := svc.RecordHoneypotEvent(context.Background(), "inc-1", threat.ScamTypePhishing, "plain text intel")
	if err != nil {
		t.Fatalf("RecordHoneypotEvent() error = %v", err)
	}
	if event.Intel != `"plain text intel"` {
		t.Fatalf("intel = %q", event.Intel)
	}
	if event.IncidentID != "inc-1" {
		t.Fatalf("incident_id = %q", event.IncidentID)
	}
}
