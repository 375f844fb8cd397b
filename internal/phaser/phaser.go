// Package phaser runs the external trio phasing engine.
package phaser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Inputs is the number of FASTA files the phaser takes: two per member.
const Inputs = 6

// waitDelay bounds how long output copying may outlive a cancelled process.
const waitDelay = 2 * time.Second

// Runner invokes the phaser binary.
type Runner struct {
	Binary string
	Mode   string // passed as the first argument when set
	Dir    string // working directory of the process
	// Output is where the phase string ends up. With CaptureStdout the
	// process's standard output is written there; otherwise the binary is
	// expected to create it.
	Output        string
	CaptureStdout bool

	logger *zap.Logger
}

// NewRunner creates a runner for binary.
func NewRunner(binary string) *Runner {
	return &Runner{Binary: binary, CaptureStdout: true, logger: zap.NewNop()}
}

// SetLogger sets the logger for the process's stderr and lifecycle.
func (r *Runner) SetLogger(l *zap.Logger) {
	r.logger = l
}

// Args returns the command-line arguments for the six FASTA files, in
// mother A, mother B, father A, father B, child A, child B order.
func (r *Runner) Args(fastas []string) ([]string, error) {
	if len(fastas) != Inputs {
		return nil, fmt.Errorf("phaser takes %d fasta files, got %d", Inputs, len(fastas))
	}
	var args []string
	if r.Mode != "" {
		args = append(args, r.Mode)
	}
	return append(args, fastas...), nil
}

// ExitError reports a phaser process that ran and failed.
type ExitError struct {
	Binary   string
	ExitCode int
	Stderr   string // last lines of standard error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("phaser %s exited with status %d", e.Binary, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Run invokes the phaser on the given FASTA files and blocks until it exits.
// All inputs must be complete before Run is called; the phase string is
// only valid once Run returns without error.
func (r *Runner) Run(ctx context.Context, fastas []string) error {
	abs := make([]string, len(fastas))
	for i, p := range fastas {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("phaser input: %w", err)
		}
		a, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("phaser input: %w", err)
		}
		abs[i] = a
	}
	args, err := r.Args(abs)
	if err != nil {
		return err
	}
	if r.Output == "" {
		return errors.New("phaser output path not set")
	}

	cmd := exec.CommandContext(ctx, r.Binary, args...)
	cmd.Dir = r.Dir
	cmd.WaitDelay = waitDelay

	var stdout io.Writer = io.Discard
	var tmp *os.File
	if r.CaptureStdout {
		if err := os.MkdirAll(filepath.Dir(r.Output), 0o755); err != nil {
			return fmt.Errorf("create phaser output directory: %w", err)
		}
		tmp, err = os.CreateTemp(filepath.Dir(r.Output), "."+filepath.Base(r.Output)+".*")
		if err != nil {
			return fmt.Errorf("create phaser output: %w", err)
		}
		defer os.Remove(tmp.Name())
		defer tmp.Close()
		stdout = tmp
	}
	cmd.Stdout = stdout

	stderr := &tailWriter{logger: r.logger, max: 5}
	cmd.Stderr = stderr

	r.logger.Info("running phaser",
		zap.String("binary", r.Binary),
		zap.Strings("args", args))

	if err := cmd.Run(); err != nil {
		stderr.flush()
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Binary: r.Binary, ExitCode: exitErr.ExitCode(), Stderr: stderr.tail()}
		}
		return fmt.Errorf("run phaser: %w", err)
	}
	stderr.flush()

	if tmp != nil {
		if err := tmp.Close(); err != nil {
			return fmt.Errorf("close phaser output: %w", err)
		}
		if err := os.Rename(tmp.Name(), r.Output); err != nil {
			return fmt.Errorf("rename phaser output: %w", err)
		}
	} else if _, err := os.Stat(r.Output); err != nil {
		return fmt.Errorf("phaser produced no output: %w", err)
	}

	r.logger.Info("phaser finished", zap.String("output", r.Output))
	return nil
}

// tailWriter logs each stderr line and keeps the last few.
type tailWriter struct {
	mu      sync.Mutex
	logger  *zap.Logger
	max     int
	partial bytes.Buffer
	lines   []string
}

func (w *tailWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.partial.Write(p)
	for {
		i := bytes.IndexByte(w.partial.Bytes(), '\n')
		if i < 0 {
			break
		}
		w.add(string(w.partial.Next(i + 1)))
	}
	return len(p), nil
}

func (w *tailWriter) add(line string) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return
	}
	w.logger.Debug("phaser stderr", zap.String("line", line))
	w.lines = append(w.lines, line)
	if len(w.lines) > w.max {
		w.lines = w.lines[1:]
	}
}

func (w *tailWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.partial.Len() > 0 {
		w.add(w.partial.String())
		w.partial.Reset()
	}
}

func (w *tailWriter) tail() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return strings.Join(w.lines, "; ")
}
