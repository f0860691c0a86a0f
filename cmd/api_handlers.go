package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"cyberguard/internal/domain/threat"
	"cyberguard/internal/usecase/detection"
	"cyberguard/internal/usecase/recovery"
)

type detectionAPIService interface {
	AnalyzeWebsite(ctx context.Context, url string) (detection.WebsiteAnalysis, error)
	AnalyzeTranscript(ctx context.Context, transcript string) (detection.TranscriptAnalysis, error)
	RecordIncident(ctx context.Context, kind threat.IncidentKind, target string, riskScore int, patterns []string) (threat.Incident, error)
	ListIncidents(ctx context.Context) []threat.Incident
	RecordHoneypotEvent(ctx context.Context, incidentID string, scamType string, intel string) (threat.HoneypotEvent, error)
	ListRecentIntel(ctx context.Context) []threat.HoneypotEvent
	Summary(ctx context.Context) detection.DashboardSummary
}

type supportAPIService interface {
	Reply(ctx context.Context, message string, history []threat.ChatTurn) (string, error)
}

type recoveryAPIStore interface {
	Scenarios() []recovery.Scenario
}

type apiHandler struct {
	detection detectionAPIService
	support   supportAPIService
	recovery  recoveryAPIStore
}

func newAPIHandler(det detectionAPIService, sup supportAPIService, rec recoveryAPIStore) http.Handler {
	h := &apiHandler{
		detection: det,
		support:   sup,
		recovery:  rec,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/incidents", h.listIncidents)
		r.Post("/incidents", h.createIncident)
		r.Get("/honeypot", h.listHoneypot)
		r.Post("/honeypot", h.createHoneypotEvent)
		r.Post("/analyze/website", h.analyzeWebsite)
		r.Post("/analyze/transcript", h.analyzeTranscript)
		r.Post("/chat", h.chat)
		r.Get("/summary", h.summary)
		r.Get("/recovery", h.recoveryScenarios)
	})
	r.Get("/ws/live", h.liveAnalysis)

	return r
}

// Wire shapes follow the dashboard's existing field names.
type incidentPayload struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	Target    string   `json:"target"`
	Timestamp string   `json:"timestamp"`
	RiskScore int      `json:"riskScore"`
	Patterns  []string `json:"patterns"`
}

type honeypotEventPayload struct {
	ID             string `json:"id"`
	ScamType       string `json:"scam_type"`
	IncidentID     string `json:"incident_id,omitempty"`
	IntelExtracted string `json:"intel_extracted"`
	Timestamp      string `json:"timestamp"`
}

type websiteAnalysisResponse struct {
	Status    threat.WebsiteStatus `json:"status"`
	RiskScore int                  `json:"riskScore"`
	Reasons   []string             `json:"reasons"`
	Details   string               `json:"details"`
	Incident  *incidentPayload     `json:"incident,omitempty"`
	Persisted bool                 `json:"persisted"`
	Cached    bool                 `json:"cached"`
}

type transcriptAnalysisResponse struct {
	ScamProbability int              `json:"scamProbability"`
	IsScam          bool             `json:"isScam"`
	Alerts          []string         `json:"alerts"`
	Explanation     string           `json:"explanation"`
	Incident        *incidentPayload `json:"incident,omitempty"`
	Persisted       bool             `json:"persisted"`
}

type recoveryScenarioPayload struct {
	ID       string                `json:"id"`
	Title    string                `json:"title"`
	Severity string                `json:"severity"`
	Helpline string                `json:"helpline"`
	Steps    []recoveryStepPayload `json:"steps"`
}

type recoveryStepPayload struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

type apiErrorResponse struct {
	Error string `json:"error"`
}

func (h *apiHandler) listIncidents(w http.ResponseWriter, r *http.Request) {
	incidents := h.detection.ListIncidents(r.Context())

	out := make([]incidentPayload, 0, len(incidents))
	for _, incident := range incidents {
		out = append(out, toIncidentPayload(incident))
	}
	writeAPIJSON(w, http.StatusOK, out)
}

func (h *apiHandler) createIncident(w http.ResponseWriter, r *http.Request) {
	// Client id/timestamp fields are accepted for compatibility but ignored;
	// the server generates both.
	var body incidentPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	incident, err := h.detection.RecordIncident(
		r.Context(),
		threat.IncidentKind(body.Type),
		body.Target,
		body.RiskScore,
		body.Patterns,
	)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeAPIJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"incident": toIncidentPayload(incident),
	})
}

func (h *apiHandler) listHoneypot(w http.ResponseWriter, r *http.Request) {
	events := h.detection.ListRecentIntel(r.Context())

	out := make([]honeypotEventPayload, 0, len(events))
	for _, event := range events {
		out = append(out, toHoneypotPayload(event))
	}
	writeAPIJSON(w, http.StatusOK, out)
}

func (h *apiHandler) createHoneypotEvent(w http.ResponseWriter, r *http.Request) {
	var body honeypotEventPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if _, err := h.detection.RecordHoneypotEvent(r.Context(), body.IncidentID, body.ScamType, body.IntelExtracted); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeAPIJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *apiHandler) analyzeWebsite(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.URL) == "" {
		writeAPIError(w, http.StatusBadRequest, "url is required")
		return
	}

	result, err := h.detection.AnalyzeWebsite(r.Context(), body.URL)
	if err != nil {
		writeAPIError(w, http.StatusBadGateway, "analysis unavailable")
		return
	}

	resp := websiteAnalysisResponse{
		Status:    result.Verdict.Status,
		RiskScore: result.Verdict.RiskScore,
		Reasons:   emptyIfNil(result.Verdict.Reasons),
		Details:   result.Verdict.Details,
		Persisted: result.Persisted,
		Cached:    result.CacheHit,
	}
	if result.Incident != nil {
		payload := toIncidentPayload(*result.Incident)
		resp.Incident = &payload
	}
	writeAPIJSON(w, http.StatusOK, resp)
}

func (h *apiHandler) analyzeTranscript(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Transcript string `json:"transcript"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.Transcript) == "" {
		writeAPIError(w, http.StatusBadRequest, "transcript is required")
		return
	}

	result, err := h.detection.AnalyzeTranscript(r.Context(), body.Transcript)
	if err != nil {
		writeAPIError(w, http.StatusBadGateway, "analysis unavailable")
		return
	}

	resp := transcriptAnalysisResponse{
		ScamProbability: result.Verdict.ScamProbability,
		IsScam:          result.Verdict.IsScam,
		Alerts:          emptyIfNil(result.Verdict.Alerts),
		Explanation:     result.Verdict.Explanation,
		Persisted:       result.Persisted,
	}
	if result.Incident != nil {
		payload := toIncidentPayload(*result.Incident)
		resp.Incident = &payload
	}
	writeAPIJSON(w, http.StatusOK, resp)
}

func (h *apiHandler) chat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string            `json:"message"`
		History []threat.ChatTurn `json:"history"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.Message) == "" {
		writeAPIError(w, http.StatusBadRequest, "message is required")
		return
	}

	content, err := h.support.Reply(r.Context(), body.Message, body.History)
	if err != nil {
		writeAPIError(w, http.StatusBadGateway, "support chat unavailable")
		return
	}

	writeAPIJSON(w, http.StatusOK, map[string]string{"content": content})
}

func (h *apiHandler) summary(w http.ResponseWriter, r *http.Request) {
	writeAPIJSON(w, http.StatusOK, h.detection.Summary(r.Context()))
}

func (h *apiHandler) recoveryScenarios(w http.ResponseWriter, _ *http.Request) {
	scenarios := h.recovery.Scenarios()

	out := make([]recoveryScenarioPayload, 0, len(scenarios))
	for _, scenario := range scenarios {
		steps := make([]recoveryStepPayload, 0, len(scenario.Steps))
		for _, step := range scenario.Steps {
			steps = append(steps, recoveryStepPayload{Title: step.Title, Detail: step.Detail})
		}
		out = append(out, recoveryScenarioPayload{
			ID:       scenario.ID,
			Title:    scenario.Title,
			Severity: scenario.Severity,
			Helpline: scenario.Helpline,
			Steps:    steps,
		})
	}
	writeAPIJSON(w, http.StatusOK, out)
}

func toIncidentPayload(incident threat.Incident) incidentPayload {
	return incidentPayload{
		ID:        incident.ID,
		Type:      string(incident.Kind),
		Target:    incident.Target,
		Timestamp: incident.CreatedAt,
		RiskScore: incident.RiskScore,
		Patterns:  emptyIfNil(incident.Patterns),
	}
}

func toHoneypotPayload(event threat.HoneypotEvent) honeypotEventPayload {
	return honeypotEventPayload{
		ID:             event.ID,
		ScamType:       event.ScamType,
		IncidentID:     event.IncidentID,
		IntelExtracted: event.Intel,
		Timestamp:      event.CreatedAt,
	}
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	writeAPIJSON(w, status, apiErrorResponse{Error: message})
}

func writeAPIJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
