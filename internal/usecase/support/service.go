package support

import (
	"context"
	"errors"
	"strings"

	"cyberguard/internal/domain/threat"
	"cyberguard/internal/errs"
	"cyberguard/internal/ports"
)

// Service handles the support chat. Conversations are transient: the caller
// holds the history and replays it on every turn, nothing is persisted.
type Service struct {
	analyzer ports.Analyzer
}

func NewService(analyzer ports.Analyzer) *Service {
	return &Service{analyzer: analyzer}
}

func (s *Service) Reply(ctx context.Context, message string, history []threat.ChatTurn) (string, error) {
	if ctx == nil {
		return "", errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return "", errs.Wrap(err, "check context")
	}
	if s.analyzer == nil {
		return "", errors.New("analyzer is required")
	}

	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return "", errors.New("message is required")
	}

	for _, turn := range history {
		switch turn.Role {
		case threat.RoleUser, threat.RoleAssistant:
		default:
			return "", errors.New("history contains an invalid role")
		}
	}

	reply, err := s.analyzer.ChatReply(ctx, trimmed, history)
	if err != nil {
		return "", errs.Wrap(err, "chat reply")
	}
	return reply, nil
}
