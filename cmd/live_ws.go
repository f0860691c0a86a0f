package cmd

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"cyberguard/internal/bootstrap/logging"
	"cyberguard/internal/errs"
)

var liveUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The dashboard is served from a different origin in development.
	CheckOrigin: func(_ *http.Request) bool { return true },
}

type liveFrame struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type liveVerdictFrame struct {
	Type            string   `json:"type"`
	ScamProbability int      `json:"scamProbability"`
	IsScam          bool     `json:"isScam"`
	Alerts          []string `json:"alerts"`
	Explanation     string   `json:"explanation"`
	Persisted       bool     `json:"persisted"`
}

type liveErrorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// liveAnalysis runs a live-call session over a websocket. The client streams
// transcript chunks and asks for analysis whenever it wants a verdict; the
// accumulated transcript lives only as long as the connection.
func (h *apiHandler) liveAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := logging.WithAttrs(r.Context(), slog.String("component", "cmd.live"))

	conn, err := liveUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn(ctx, "websocket upgrade failed", slog.Any("err", errs.Loggable(err)))
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	var transcript strings.Builder
	for {
		var frame liveFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Warn(ctx, "live session closed unexpectedly", slog.Any("err", errs.Loggable(err)))
			}
			return
		}

		switch frame.Type {
		case "chunk":
			if transcript.Len() > 0 {
				transcript.WriteByte('\n')
			}
			transcript.WriteString(frame.Text)

		case "reset":
			transcript.Reset()

		case "analyze":
			text := strings.TrimSpace(transcript.String())
			if text == "" {
				if err := conn.WriteJSON(liveErrorFrame{Type: "error", Error: "no transcript received yet"}); err != nil {
					return
				}
				continue
			}

			result, err := h.detection.AnalyzeTranscript(ctx, text)
			if err != nil {
				logging.Error(ctx, "live transcript analysis failed", slog.Any("err", errs.Loggable(err)))
				if err := conn.WriteJSON(liveErrorFrame{Type: "error", Error: "analysis unavailable"}); err != nil {
					return
				}
				continue
			}

			if err := conn.WriteJSON(liveVerdictFrame{
				Type:            "verdict",
				ScamProbability: result.Verdict.ScamProbability,
				IsScam:          result.Verdict.IsScam,
				Alerts:          emptyIfNil(result.Verdict.Alerts),
				Explanation:     result.Verdict.Explanation,
				Persisted:       result.Persisted,
			}); err != nil {
				return
			}

		default:
			if err := conn.WriteJSON(liveErrorFrame{Type: "error", Error: "unknown frame type"}); err != nil {
				return
			}
		}
	}
}
