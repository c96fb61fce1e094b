package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"StockSignal/internal/domain/models"
	applogger "StockSignal/pkg/logger"

	"github.com/google/uuid"
)

// Invocation is one spawn-run-reap cycle of a worker process.
type Invocation struct {
	ID       string
	Kind     models.Kind
	Path     string
	Args     []string
	Dir      string
	Deadline time.Duration
}

// RunnerOption configures Runner.
type RunnerOption func(*Runner)

// Runner spawns worker processes and turns whatever they do into an outcome.
// It holds no per-call state and is safe for concurrent use.
type Runner struct {
	logger    *applogger.Logger
	waitDelay time.Duration
}

// NewRunner creates a Runner.
func NewRunner(l *applogger.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		logger:    l,
		waitDelay: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = applogger.Nop()
	}
	return r
}

// WithWaitDelay bounds how long Run waits for pipes to close after the worker
// exits or is killed.
func WithWaitDelay(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.waitDelay = d
	}
}

// Run executes inv and resolves no later than inv.Deadline (plus the wait delay
// when a killed worker leaves descendants holding its pipes).
func (r *Runner) Run(ctx context.Context, inv Invocation) models.InvocationOutcome {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	log := r.logger.With(
		applogger.String("invocation_id", inv.ID),
		applogger.String("kind", string(inv.Kind)),
	)
	start := time.Now()

	if inv.Deadline <= 0 {
		return models.Failed(models.Failure{
			Kind:   models.FailureValidation,
			Detail: "deadline must be positive",
		}, 0)
	}

	runCtx, cancel := context.WithTimeout(ctx, inv.Deadline)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, inv.Path, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Env = os.Environ()
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = r.waitDelay
	configureProcess(cmd)

	log.Debug("worker spawn", applogger.String("path", inv.Path), applogger.Duration("deadline_ms", inv.Deadline))
	err := cmd.Run()
	elapsed := time.Since(start)

	outcome := r.classify(runCtx, inv, err, stdout.Bytes(), stderr.String(), elapsed)
	if outcome.OK() {
		log.Info("worker done", applogger.Duration("duration_ms", elapsed))
	} else {
		log.Warn("worker failed",
			applogger.String("outcome", outcome.Label()),
			applogger.Int("exit_code", outcome.Failure.ExitCode),
			applogger.Duration("duration_ms", elapsed),
		)
	}
	return outcome
}

func (r *Runner) classify(ctx context.Context, inv Invocation, err error, stdout []byte, stderr string, elapsed time.Duration) models.InvocationOutcome {
	if err != nil {
		// The context fired first: the worker was killed, so its output is untrusted.
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return models.Failed(models.Failure{
					Kind:   models.FailureTimeout,
					Detail: fmt.Sprintf("worker exceeded deadline of %s", inv.Deadline),
				}, elapsed)
			}
			return models.Failed(models.Failure{
				Kind:   models.FailureCanceled,
				Detail: ctxErr.Error(),
			}, elapsed)
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			detail := stderr
			if detail == "" {
				detail = exitErr.Error()
			}
			return models.Failed(models.Failure{
				Kind:     models.FailureWorker,
				Detail:   detail,
				ExitCode: exitErr.ExitCode(),
			}, elapsed)
		}

		return models.Failed(models.Failure{
			Kind:     models.FailureWorker,
			Detail:   fmt.Sprintf("spawn worker: %v", err),
			ExitCode: -1,
		}, elapsed)
	}

	payload, perr := decodeSingleJSON(stdout)
	if perr != nil {
		return models.Failed(models.Failure{
			Kind:   models.FailureParse,
			Detail: perr.Error(),
			Raw:    string(stdout),
		}, elapsed)
	}
	return models.Succeeded(payload, elapsed)
}

// decodeSingleJSON accepts exactly one JSON value surrounded by optional whitespace.
func decodeSingleJSON(b []byte) (json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty worker output")
		}
		return nil, fmt.Errorf("decode worker output: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode worker output: unexpected data after JSON value")
	}
	return raw, nil
}
