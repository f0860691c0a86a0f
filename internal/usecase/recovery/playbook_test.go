package recovery

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const validPlaybook = `
version = 1

[[scenarios]]
id = "phishing-credentials"
title = "Credentials entered on a phishing site"
severity = "high"
helpline = "1930"

[[scenarios.steps]]
title = "Change passwords"
detail = "Start with the account the fake site imitated, then any account sharing that password."

[[scenarios.steps]]
title = "Contact your bank"
detail = "Ask for a card block and report the fraudulent site."

[[scenarios]]
id = "voice-scam-payment"
title = "Payment made during a scam call"
severity = "critical"
helpline = "1930"

[[scenarios.steps]]
title = "Report the transaction"
detail = "File a complaint with your bank within 24 hours to maximise recovery odds."
`

func writePlaybook(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "recovery.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write playbook: %v", err)
	}
	return path
}

func TestNewStoreLoadsScenarios(t *testing.T) {
	path := writePlaybook(t, validPlaybook)

	store, err := NewStore(context.Background(), path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	scenarios := store.Scenarios()
	if len(scenarios) != 2 {
		t.Fatalf("got %d scenarios, want 2", len(scenarios))
	}
	if scenarios[0].ID != "phishing-credentials" {
		t.Fatalf("got first scenario %q, want phishing-credentials", scenarios[0].ID)
	}
	if len(scenarios[0].Steps) != 2 {
		t.Fatalf("got %d steps, want 2", len(scenarios[0].Steps))
	}
	if scenarios[1].Severity != "critical" {
		t.Fatalf("got severity %q, want critical", scenarios[1].Severity)
	}
}

func TestNewStoreMissingFileDegradesToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")

	store, err := NewStore(context.Background(), path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if got := store.Scenarios(); len(got) != 0 {
		t.Fatalf("got %d scenarios, want 0", len(got))
	}
}

func TestReloadReplacesScenarios(t *testing.T) {
	path := writePlaybook(t, validPlaybook)

	store, err := NewStore(context.Background(), path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	updated := `
version = 1

[[scenarios]]
id = "sim-swap"
title = "Phone lost signal during the scam call"
severity = "critical"
helpline = "1930"

[[scenarios.steps]]
title = "Call your carrier"
detail = "A sudden loss of signal can mean a SIM swap; lock the number immediately."
`
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatalf("rewrite playbook: %v", err)
	}

	store.reload(context.Background())

	scenarios := store.Scenarios()
	if len(scenarios) != 1 {
		t.Fatalf("got %d scenarios, want 1", len(scenarios))
	}
	if scenarios[0].ID != "sim-swap" {
		t.Fatalf("got scenario %q, want sim-swap", scenarios[0].ID)
	}
}

func TestReloadKeepsLastGoodCopyOnBrokenEdit(t *testing.T) {
	path := writePlaybook(t, validPlaybook)

	store, err := NewStore(context.Background(), path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if err := os.WriteFile(path, []byte("version = 1\n[[scenarios]]\nid = \"\"\n"), 0o644); err != nil {
		t.Fatalf("rewrite playbook: %v", err)
	}

	store.reload(context.Background())

	if got := len(store.Scenarios()); got != 2 {
		t.Fatalf("got %d scenarios after broken edit, want 2", got)
	}
}

func TestValidatePlaybookRejectsBadInput(t *testing.T) {
	cases := []struct {
		name     string
		contents string
	}{
		{
			name:     "wrong version",
			contents: "version = 2\n",
		},
		{
			name:     "missing scenario id",
			contents: "version = 1\n[[scenarios]]\ntitle = \"x\"\n[[scenarios.steps]]\ntitle = \"y\"\n",
		},
		{
			name: "duplicate scenario id",
			contents: "version = 1\n" +
				"[[scenarios]]\nid = \"a\"\ntitle = \"x\"\n[[scenarios.steps]]\ntitle = \"y\"\n" +
				"[[scenarios]]\nid = \"a\"\ntitle = \"x\"\n[[scenarios.steps]]\ntitle = \"y\"\n",
		},
		{
			name:     "scenario without steps",
			contents: "version = 1\n[[scenarios]]\nid = \"a\"\ntitle = \"x\"\n",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writePlaybook(t, tc.contents)
			if _, err := loadPlaybook(path); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}
