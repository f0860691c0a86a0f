package openaigw

import (
	"strings"
	"testing"

	"cyberguard/internal/bootstrap/config"
)

func TestNewGatewayReflectsVerdictSchemas(t *testing.T) {
	gw, err := NewGateway(config.AnalysisConfig{Model: "gpt-4o-mini", TimeoutSeconds: 5})
	if err != nil {
		t.Fatalf("NewGateway() error = %v", err)
	}

	for _, field := range []string{"status", "riskScore", "reasons", "details"} {
		if !strings.Contains(gw.websiteSchema, field) {
			t.Fatalf("website schema missing %q: %s", field, gw.websiteSchema)
		}
	}
	for _, value := range []string{"Safe", "Suspicious", "Fake"} {
		if !strings.Contains(gw.websiteSchema, value) {
			t.Fatalf("website schema missing enum value %q", value)
		}
	}
	for _, field := range []string{"scamProbability", "isScam", "alerts", "explanation"} {
		if !strings.Contains(gw.transcriptSchema, field) {
			t.Fatalf("transcript schema missing %q: %s", field, gw.transcriptSchema)
		}
	}
}

func TestNewGatewayRequiresModel(t *testing.T) {
	if _, err := NewGateway(config.AnalysisConfig{}); err == nil {
		t.Fatal("NewGateway() expected error for empty model")
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare json", in: `{"status":"Safe"}`, want: `{"status":"Safe"}`},
		{name: "json fence", in: "```json\n{\"status\":\"Safe\"}\n```", want: `{"status":"Safe"}`},
		{name: "plain fence", in: "```\n{}\n```", want: "{}"},
		{name: "surrounding whitespace", in: "  {\"a\":1}\n", want: `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFence(tt.in); got != tt.want {
				t.Fatalf("StripCodeFence() = %q, want %q", got, tt.want)
			}
		})
	}
}
