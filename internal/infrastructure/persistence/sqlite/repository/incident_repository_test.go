package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"cyberguard/internal/domain/threat"
	"cyberguard/internal/infrastructure/persistence/sqlite/model"
	"cyberguard/internal/ports"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "cyberguard.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(&model.Incident{}, &model.HoneypotEvent{}, &model.VerdictKV{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func stamp(offset time.Duration) string {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	return base.Add(offset).Format(time.RFC3339Nano)
}

func TestInsertAndListRoundTrip(t *testing.T) {
	repo := NewIncidentRepository(setupDB(t), 0)
	ctx := context.Background()

	in := threat.Incident{
		ID:        "inc-1",
		Kind:      threat.KindWebsite,
		Target:    "http://example-bank-login.com",
		CreatedAt: stamp(0),
		RiskScore: 92,
		Patterns:  []string{"urgency", "lookalike-domain"},
	}
	if err := repo.Insert(ctx, in); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	items, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("ListAll() len = %d", len(items))
	}

	got := items[0]
	if got.ID != in.ID || got.Kind != in.Kind || got.Target != in.Target ||
		got.CreatedAt != in.CreatedAt || got.RiskScore != in.RiskScore {
		t.Fatalf("ListAll() = %#v, want %#v", got, in)
	}
	if len(got.Patterns) != 2 || got.Patterns[0] != "urgency" || got.Patterns[1] != "lookalike-domain" {
		t.Fatalf("patterns = %#v, order not preserved", got.Patterns)
	}

	// Read idempotence: a second read without writes returns the same rows.
	again, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() second read error = %v", err)
	}
	if len(again) != 1 || again[0].ID != got.ID || again[0].RiskScore != got.RiskScore {
		t.Fatalf("ListAll() second read = %#v", again)
	}
}

func TestListAllOrdersNewestFirst(t *testing.T) {
	repo := NewIncidentRepository(setupDB(t), 0)
	ctx := context.Background()

	for i, offset := range []time.Duration{0, time.Minute, 2 * time.Minute} {
		if err := repo.Insert(ctx, threat.Incident{
			ID:        fmt.Sprintf("inc-%d", i+1),
			Kind:      threat.KindAudio,
			Target:    threat.AudioTarget,
			CreatedAt: stamp(offset),
			RiskScore: 50,
			Patterns:  []string{"urgency"},
		}); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	items, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("ListAll() len = %d", len(items))
	}
	if items[0].ID != "inc-3" || items[1].ID != "inc-2" || items[2].ID != "inc-1" {
		t.Fatalf("ListAll() order = %s,%s,%s", items[0].ID, items[1].ID, items[2].ID)
	}
}

func TestInsertDuplicateID(t *testing.T) {
	repo := NewIncidentRepository(setupDB(t), 0)
	ctx := context.Background()

	incident := threat.Incident{
		ID:        "inc-dup",
		Kind:      threat.KindWebsite,
		Target:    "http://a.example",
		CreatedAt: stamp(0),
		RiskScore: 70,
		Patterns:  []string{"no SSL"},
	}
	if err := repo.Insert(ctx, incident); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	err := repo.Insert(ctx, incident)
	if !errors.Is(err, ports.ErrDuplicateID) {
		t.Fatalf("Insert() duplicate error = %v, want ErrDuplicateID", err)
	}

	items, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("duplicate insert changed row count: %d", len(items))
	}
}

func TestInsertRejectsInvalidKind(t *testing.T) {
	repo := NewIncidentRepository(setupDB(t), 0)

	err := repo.Insert(context.Background(), threat.Incident{
		ID:        "inc-bad",
		Kind:      "email",
		Target:    "x",
		CreatedAt: stamp(0),
	})
	if err == nil {
		t.Fatal("Insert() expected kind validation error")
	}
}

func TestRetentionPrunesOldestBeyondCap(t *testing.T) {
	repo := NewIncidentRepository(setupDB(t), 3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := repo.Insert(ctx, threat.Incident{
			ID:        fmt.Sprintf("inc-%d", i+1),
			Kind:      threat.KindWebsite,
			Target:    "http://a.example",
			CreatedAt: stamp(time.Duration(i) * time.Minute),
			RiskScore: 40,
			Patterns:  []string{"x"},
		}); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	items, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("ListAll() len = %d, want cap 3", len(items))
	}
	if items[0].ID != "inc-5" || items[2].ID != "inc-3" {
		t.Fatalf("retention kept wrong rows: %s..%s", items[0].ID, items[2].ID)
	}
}
