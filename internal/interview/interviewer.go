package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/common"
	"github.com/spigell/hh-interviewer/internal/logger"
	"github.com/spigell/hh-interviewer/internal/utils"
)

const previewLength = 120

// Interviewer advances sessions through a completion gateway.
type Interviewer struct {
	gateway ai.Gateway
	logger  *zap.Logger
	timeout time.Duration
}

// NewInterviewer returns an Interviewer. A zero timeout leaves deadlines to the caller's context.
func NewInterviewer(gateway ai.Gateway, log *zap.Logger, timeout time.Duration) *Interviewer {
	if log == nil {
		log = zap.NewNop()
	}

	return &Interviewer{
		gateway: gateway,
		logger:  log,
		timeout: timeout,
	}
}

// Advance sends the candidate's text together with the whole transcript and returns the reply and
// the extended session. On any error the returned session is s itself.
func (i *Interviewer) Advance(ctx context.Context, s Session, userText string) (string, Session, error) {
	if strings.TrimSpace(userText) == "" {
		return "", s, fmt.Errorf("%w: message must not be empty", common.ErrValidation)
	}
	if !s.Bound() {
		return "", s, fmt.Errorf("%w: session has no system prompt", common.ErrValidation)
	}

	pending := s.with(ai.Message{Role: ai.RoleUser, Content: userText})

	log := i.logger.With(
		zap.String(logger.FieldCandidateID, s.CandidateID),
		zap.Int("transcript_length", pending.Len()),
	)
	log.Debug("sending candidate message", zap.String("message_preview", utils.TruncateForLog(userText, previewLength)))

	callCtx := ctx
	if i.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	start := time.Now()
	completion, err := i.gateway.Complete(callCtx, pending.Transcript())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			log.Warn("completion timed out", zap.Duration("timeout", i.timeout), zap.Error(err))
			return "", s, fmt.Errorf("%w: completion timed out: %v", common.ErrGateway, err)
		}
		log.Warn("completion failed", zap.Error(err))
		return "", s, fmt.Errorf("%w: %v", common.ErrGateway, err)
	}

	if completion == nil {
		return "", s, fmt.Errorf("%w: gateway returned no completion", common.ErrGateway)
	}
	if completion.TotalTokens < 0 {
		return "", s, fmt.Errorf("%w: gateway reported negative usage %d", common.ErrGateway, completion.TotalTokens)
	}

	next := pending.with(ai.Message{Role: ai.RoleAssistant, Content: completion.Text})
	next.totalTokens = s.totalTokens + completion.TotalTokens

	log.Info("interview turn completed",
		zap.Int("tokens", completion.TotalTokens),
		zap.Int("total_tokens", next.totalTokens),
		zap.Duration("latency", time.Since(start)),
		zap.String("reply_preview", utils.TruncateForLog(completion.Text, previewLength)),
	)

	return completion.Text, next, nil
}
