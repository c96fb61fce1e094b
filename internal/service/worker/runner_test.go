//go:build unix

package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"StockSignal/internal/domain/models"
)

func shell(t *testing.T, script string, deadline time.Duration) Invocation {
	t.Helper()
	return Invocation{
		Kind:     models.KindSignal,
		Path:     "/bin/sh",
		Args:     []string{"-c", script},
		Deadline: deadline,
	}
}

func TestRunSuccess(t *testing.T) {
	const payload = `{"symbol":"8058.T","last_close":2500,"predicted_return":0.004,"signal":"BUY","features":{"ret":0.01,"ma5":2490,"ma20":2470,"rsi":58.2}}`
	r := NewRunner(nil)

	out := r.Run(context.Background(), shell(t, "printf '%s\\n' '"+payload+"'", 5*time.Second))

	if !out.OK() {
		t.Fatalf("expected success, got %+v", out.Failure)
	}
	if string(out.Payload) != payload {
		t.Fatalf("payload mismatch:\n got %s\nwant %s", out.Payload, payload)
	}
}

func TestRunNonZeroExitUsesStderr(t *testing.T) {
	r := NewRunner(nil)

	out := r.Run(context.Background(), shell(t, "echo partial; echo 'Traceback: boom' >&2; exit 3", 5*time.Second))

	if out.OK() {
		t.Fatalf("expected failure")
	}
	if out.Failure.Kind != models.FailureWorker {
		t.Fatalf("expected worker_error, got %s", out.Failure.Kind)
	}
	if out.Failure.Detail != "Traceback: boom\n" {
		t.Fatalf("unexpected detail %q", out.Failure.Detail)
	}
	if out.Failure.ExitCode != 3 {
		t.Fatalf("unexpected exit code %d", out.Failure.ExitCode)
	}
	if out.Payload != nil {
		t.Fatalf("failure must not carry a payload")
	}
}

func TestRunNonZeroExitWithoutStderr(t *testing.T) {
	r := NewRunner(nil)

	out := r.Run(context.Background(), shell(t, "exit 4", 5*time.Second))

	if out.OK() || out.Failure.Kind != models.FailureWorker {
		t.Fatalf("expected worker_error, got %+v", out)
	}
	if out.Failure.Detail != "exit status 4" {
		t.Fatalf("unexpected detail %q", out.Failure.Detail)
	}
}

func TestRunParseErrorKeepsRawOutput(t *testing.T) {
	r := NewRunner(nil)
	cases := map[string]string{
		"text":     "echo 'not json at all'",
		"trailing": `printf '{"a":1} {"b":2}\n'`,
		"empty":    "true",
		"warning":  `echo 'FutureWarning: x'; printf '{"a":1}'`,
	}
	for name, script := range cases {
		t.Run(name, func(t *testing.T) {
			inv := shell(t, script, 5*time.Second)
			out := r.Run(context.Background(), inv)
			if out.OK() {
				t.Fatalf("expected parse_error, got payload %s", out.Payload)
			}
			if out.Failure.Kind != models.FailureParse {
				t.Fatalf("expected parse_error, got %s", out.Failure.Kind)
			}
			if out.Failure.Detail == "" {
				t.Fatalf("expected decode error detail")
			}
		})
	}

	out := r.Run(context.Background(), shell(t, "echo 'not json at all'", 5*time.Second))
	if out.Failure.Raw != "not json at all\n" {
		t.Fatalf("raw must equal captured stdout, got %q", out.Failure.Raw)
	}
}

func TestRunTimeoutKillsWorker(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "pid")
	r := NewRunner(nil)
	deadline := 200 * time.Millisecond

	start := time.Now()
	out := r.Run(context.Background(), shell(t, "echo '{\"partial\":'; echo $$ > "+pidFile+"; exec sleep 10", deadline))
	elapsed := time.Since(start)

	if out.OK() {
		t.Fatalf("expected timeout")
	}
	if out.Failure.Kind != models.FailureTimeout {
		t.Fatalf("expected timeout, got %s (%s)", out.Failure.Kind, out.Failure.Detail)
	}
	if out.Failure.Raw != "" || out.Payload != nil {
		t.Fatalf("timed out output must be discarded")
	}
	if elapsed > deadline+2*time.Second {
		t.Fatalf("resolved too late: %s", elapsed)
	}

	b, err := os.ReadFile(pidFile)
	if err != nil {
		t.Fatalf("read pid: %v", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		t.Fatalf("parse pid: %v", err)
	}
	if err := syscall.Kill(pid, 0); !errors.Is(err, syscall.ESRCH) {
		t.Fatalf("worker %d still running after timeout (kill -0: %v)", pid, err)
	}
}

func TestRunTimeoutKillsDescendants(t *testing.T) {
	// A background child keeps stdout open; only a group kill releases the pipe
	// before the wait delay.
	r := NewRunner(nil, WithWaitDelay(5*time.Second))

	start := time.Now()
	out := r.Run(context.Background(), shell(t, "sleep 10 & wait", 200*time.Millisecond))

	if out.OK() || out.Failure.Kind != models.FailureTimeout {
		t.Fatalf("expected timeout, got %+v", out)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("descendant kept the invocation alive for %s", elapsed)
	}
}

func TestRunCanceledByCaller(t *testing.T) {
	r := NewRunner(nil)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	out := r.Run(ctx, shell(t, "exec sleep 10", 10*time.Second))

	if out.OK() || out.Failure.Kind != models.FailureCanceled {
		t.Fatalf("expected canceled, got %+v", out)
	}
}

func TestRunSpawnFailure(t *testing.T) {
	r := NewRunner(nil)

	out := r.Run(context.Background(), Invocation{
		Kind:     models.KindOHLC,
		Path:     filepath.Join(t.TempDir(), "no-such-python"),
		Deadline: time.Second,
	})

	if out.OK() || out.Failure.Kind != models.FailureWorker {
		t.Fatalf("expected worker_error, got %+v", out)
	}
	if out.Failure.ExitCode != -1 {
		t.Fatalf("unexpected exit code %d", out.Failure.ExitCode)
	}
}

func TestRunInheritsEnvAndDir(t *testing.T) {
	t.Setenv("STOCKSIGNAL_TEST_VAR", "from-parent")
	dir := t.TempDir()
	r := NewRunner(nil)

	inv := shell(t, `printf '["%s","%s"]' "$STOCKSIGNAL_TEST_VAR" "$(pwd -P)"`, 5*time.Second)
	inv.Dir = dir
	out := r.Run(context.Background(), inv)

	if !out.OK() {
		t.Fatalf("expected success, got %+v", out.Failure)
	}
	want, _ := filepath.EvalSymlinks(dir)
	if string(out.Payload) != `["from-parent","`+want+`"]` {
		t.Fatalf("unexpected payload %s", out.Payload)
	}
}

func TestRunRejectsNonPositiveDeadline(t *testing.T) {
	r := NewRunner(nil)

	out := r.Run(context.Background(), shell(t, "echo 1", 0))

	if out.OK() || out.Failure.Kind != models.FailureValidation {
		t.Fatalf("expected validation_error, got %+v", out)
	}
}
