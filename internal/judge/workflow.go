package judge

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"
	"time"

	"codepad/internal/ui"
	pkgerrors "codepad/pkg/errors"
	"codepad/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	defaultPollInterval = 2000 * time.Millisecond
	defaultMaxPolls     = 150 // ~5 minutes at the default interval

	noticeDuration          = time.Second
	noticeRateLimitDuration = 10 * time.Second

	successMessage   = "Compiled Successfully!"
	failureMessage   = "Something went wrong! Please try again."
	rateLimitMessage = "Submission quota exceeded! Please wait before trying again."
	timeoutMessage   = "Submission timed out waiting for a verdict."
)

// Phase is the workflow's submission lifecycle state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
	PhasePolling
	PhaseCompleted
	PhaseFailed
)

// WorkflowConfig tunes polling. Zero values take the defaults; MaxPolls < 0
// means unbounded.
type WorkflowConfig struct {
	PollInterval time.Duration
	MaxPolls     int
}

// Workflow drives one submission at a time through submit and poll. A newer
// Submit supersedes the in-flight one: its poll loop is canceled and any
// late result is discarded by sequence number. The poll loop also dies with
// the context passed to Submit, so an owner tearing down leaks no timers.
type Workflow struct {
	client   *Client
	notifier ui.Notifier
	interval time.Duration
	maxPolls int
	onResult func(Result)

	mu     sync.Mutex
	phase  Phase
	seq    uint64
	cancel context.CancelFunc
}

func NewWorkflow(client *Client, notifier ui.Notifier, cfg WorkflowConfig, onResult func(Result)) *Workflow {
	interval := cfg.PollInterval
	if interval == 0 {
		interval = defaultPollInterval
	}
	maxPolls := cfg.MaxPolls
	if maxPolls == 0 {
		maxPolls = defaultMaxPolls
	}
	return &Workflow{
		client:   client,
		notifier: notifier,
		interval: interval,
		maxPolls: maxPolls,
		onResult: onResult,
	}
}

// Phase returns the current lifecycle state.
func (w *Workflow) Phase() Phase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase
}

// Cancel stops any in-flight poll loop, for owner teardown.
func (w *Workflow) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	if w.phase == PhaseSubmitting || w.phase == PhasePolling {
		w.phase = PhaseIdle
	}
}

// Submit encodes and queues the source, then polls in the background until
// a terminal status arrives. Empty or whitespace-only source is rejected
// before any network call and the workflow stays idle.
func (w *Workflow) Submit(ctx context.Context, source, stdin string, languageID int, userID, problemID string) error {
	if strings.TrimSpace(source) == "" {
		return pkgerrors.New(pkgerrors.EmptySourceCode)
	}

	w.mu.Lock()
	w.seq++
	seq := w.seq
	if w.cancel != nil {
		// Supersede the in-flight submission.
		w.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.phase = PhaseSubmitting
	w.mu.Unlock()

	req := Request{
		LanguageID:             languageID,
		SourceCode:             base64.StdEncoding.EncodeToString([]byte(source)),
		Stdin:                  base64.StdEncoding.EncodeToString([]byte(stdin)),
		RedirectStderrToStdout: true,
		UserID:                 userID,
		ProblemID:              problemID,
	}
	token, err := w.client.CreateSubmission(runCtx, req)
	if err != nil {
		w.fail(runCtx, seq, err)
		return err
	}

	w.mu.Lock()
	if seq == w.seq {
		w.phase = PhasePolling
	}
	w.mu.Unlock()
	logger.Debug(runCtx, "submission queued", zap.String("token", token))

	go w.poll(runCtx, seq, token)
	return nil
}

func (w *Workflow) poll(ctx context.Context, seq uint64, token string) {
	for attempt := 1; ; attempt++ {
		if w.maxPolls > 0 && attempt > w.maxPolls {
			w.fail(ctx, seq, pkgerrors.New(pkgerrors.PollTimeout))
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.interval):
		}

		result, err := w.client.GetSubmission(ctx, token)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.fail(ctx, seq, err)
			return
		}
		if IsPending(result.Status.ID) {
			continue
		}
		w.complete(ctx, seq, result)
		return
	}
}

func (w *Workflow) fail(ctx context.Context, seq uint64, err error) {
	if !w.settle(seq, PhaseFailed) {
		return
	}
	logger.Error(ctx, "submission failed", zap.Error(err))
	switch pkgerrors.GetCode(err) {
	case pkgerrors.RateLimited:
		w.notifier.Notify(ui.Error, rateLimitMessage, noticeRateLimitDuration)
	case pkgerrors.PollTimeout:
		w.notifier.Notify(ui.Error, timeoutMessage, noticeDuration)
	default:
		w.notifier.Notify(ui.Error, failureMessage, noticeDuration)
	}
}

func (w *Workflow) complete(ctx context.Context, seq uint64, result Result) {
	if !w.settle(seq, PhaseCompleted) {
		return
	}
	logger.Info(ctx, "submission completed",
		zap.Int("status_id", result.Status.ID),
		zap.String("status", result.Status.Description),
	)
	w.notifier.Notify(ui.Success, successMessage, noticeDuration)
	if w.onResult != nil {
		w.onResult(result)
	}
}

// settle moves to a terminal phase if this submission is still the current
// one. Superseded submissions report false and their outcome is dropped.
func (w *Workflow) settle(seq uint64, phase Phase) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if seq != w.seq {
		return false
	}
	w.phase = phase
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	return true
}
