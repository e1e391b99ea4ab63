package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/VaidehiLodhi/alibi-legal-assist/internal/domain"
	"github.com/VaidehiLodhi/alibi-legal-assist/internal/metrics"
	"github.com/jackc/pgx/v5"
)

type Deps struct {
	Queue        MessageQueue
	Responder    Responder
	Logger       *slog.Logger
	ReclaimAfter time.Duration
	MaxAttempts  int
	ReplyTimeout time.Duration
}

type Worker struct {
	queue        MessageQueue
	responder    Responder
	logger       *slog.Logger
	reclaimAfter time.Duration
	maxAttempts  int
	replyTimeout time.Duration
}

func New(deps Deps) *Worker {
	l := deps.Logger
	if l == nil {
		l = slog.Default()
	}

	reclaim := deps.ReclaimAfter
	if reclaim <= 0 {
		reclaim = 5 * time.Minute
	}

	maxAtt := deps.MaxAttempts
	if maxAtt <= 0 {
		maxAtt = 3
	}

	timeout := deps.ReplyTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Worker{
		queue:        deps.Queue,
		responder:    deps.Responder,
		logger:       l,
		reclaimAfter: reclaim,
		maxAttempts:  maxAtt,
		replyTimeout: timeout,
	}
}

// Run polls for pending messages until ctx is done.
func (w *Worker) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 800 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := w.ProcessOnce(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error("worker process failed", "error", err)
		}
	}
}

// ProcessOnce claims at most one pending user message and answers it.
// Returns nil when there was nothing to do.
func (w *Worker) ProcessOnce(ctx context.Context) error {
	msg, err := w.queue.ClaimPending(ctx, time.Now().Add(-w.reclaimAfter))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		w.logger.Error("claim message failed", "error", err)
		return err
	}

	w.logger.Info("message claimed",
		"message_id", msg.ID,
		"project_id", msg.ProjectID,
		"attempt", msg.Attempts,
	)

	reply, replyErr := w.respond(ctx, msg.Content)
	if replyErr != nil {
		return w.handleFailure(ctx, msg, replyErr)
	}

	if err := w.queue.Complete(ctx, msg, reply, domain.MessageResult, domain.MessageDone); err != nil {
		w.logger.Error("store assistant reply failed",
			"message_id", msg.ID,
			"project_id", msg.ProjectID,
			"error", err,
		)
		return err
	}
	metrics.IncChatMessage(string(domain.MessageDone))

	w.logger.Info("message answered",
		"message_id", msg.ID,
		"project_id", msg.ProjectID,
	)
	return nil
}

func (w *Worker) respond(ctx context.Context, prompt string) (string, error) {
	if w.responder == nil {
		return "", errors.New("no responder configured")
	}

	rctx, cancel := context.WithTimeout(ctx, w.replyTimeout)
	defer cancel()

	return w.responder.Respond(rctx, prompt)
}

// handleFailure retries up to maxAttempts.
// - attempts < maxAttempts: release the message back to PENDING
// - otherwise: store an ERROR reply and mark the message FAILED
func (w *Worker) handleFailure(ctx context.Context, msg domain.PendingMessage, replyErr error) error {
	if msg.Attempts < w.maxAttempts {
		w.logger.Warn("reply failed - retrying",
			"message_id", msg.ID,
			"project_id", msg.ProjectID,
			"attempt", msg.Attempts,
			"max_attempts", w.maxAttempts,
			"error", replyErr,
		)
		if err := w.queue.Release(ctx, msg.ID); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		metrics.IncChatMessage(string(domain.MessagePending))
		return nil
	}

	w.logger.Error("reply permanently failed",
		"message_id", msg.ID,
		"project_id", msg.ProjectID,
		"attempts", msg.Attempts,
		"max_attempts", w.maxAttempts,
		"error", replyErr,
	)

	if err := w.queue.Complete(ctx, msg, domain.FailedAssistantReply, domain.MessageError, domain.MessageFailed); err != nil {
		return err
	}
	metrics.IncChatMessage(string(domain.MessageFailed))
	return nil
}
