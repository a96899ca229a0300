// file: internal/fingerprint/fpcalc.go
// version: 1.0.0
// guid: 2c7e9a41-8b3d-4f56-a0e2-6d1b5c9f3e78

// Package fingerprint identifies recordings from their audio content using
// Chromaprint's fpcalc and the AcoustID web service.
package fingerprint

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	// ErrUnavailable means fpcalc could not be run
	ErrUnavailable = errors.New("fingerprint: fpcalc unavailable")
	// ErrNoCredential means no AcoustID API key is configured
	ErrNoCredential = errors.New("fingerprint: acoustid api key not configured")
)

// Executor abstracts command execution for testability
type Executor interface {
	Output(ctx context.Context, binary string, args []string) ([]byte, error)
}

type commandExecutor struct{}

func (commandExecutor) Output(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%w: %s", err, msg)
		}
		return out, err
	}
	return out, nil
}

// Result is a computed fingerprint
type Result struct {
	Duration    float64 `json:"duration"`
	Fingerprint string  `json:"fingerprint"`
}

// FpcalcOption configures an Fpcalc
type FpcalcOption func(*Fpcalc)

// WithExecutor injects a custom executor (primarily for tests)
func WithExecutor(e Executor) FpcalcOption {
	return func(f *Fpcalc) {
		if e != nil {
			f.exec = e
		}
	}
}

// Fpcalc runs the Chromaprint command line tool
type Fpcalc struct {
	binary  string
	timeout time.Duration
	exec    Executor

	probeOnce sync.Once
	probeErr  error
}

// NewFpcalc creates an fpcalc runner. Each invocation is bounded by timeout.
func NewFpcalc(binary string, timeout time.Duration, opts ...FpcalcOption) *Fpcalc {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "fpcalc"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	f := &Fpcalc{binary: binary, timeout: timeout, exec: commandExecutor{}}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Probe checks once per run that fpcalc can be executed. Later calls return
// the first result.
func (f *Fpcalc) Probe(ctx context.Context) error {
	f.probeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(ctx, f.timeout)
		defer cancel()
		if _, err := f.exec.Output(ctx, f.binary, []string{"-version"}); err != nil {
			f.probeErr = fmt.Errorf("%w: %s: %v", ErrUnavailable, f.binary, err)
		}
	})
	return f.probeErr
}

// Fingerprint computes the fingerprint and duration of the file at path
func (f *Fpcalc) Fingerprint(ctx context.Context, path string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	out, err := f.exec.Output(ctx, f.binary, []string{"-json", path})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("fpcalc timed out after %s: %w", f.timeout, ctx.Err())
		}
		return nil, fmt.Errorf("fpcalc: %w", err)
	}
	return parseOutput(out)
}

// parseOutput accepts both the -json output and the older KEY=value output
func parseOutput(out []byte) (*Result, error) {
	trimmed := bytes.TrimSpace(out)
	var res Result

	if bytes.HasPrefix(trimmed, []byte("{")) {
		if err := json.Unmarshal(trimmed, &res); err != nil {
			return nil, fmt.Errorf("decode fpcalc output: %w", err)
		}
	} else {
		sc := bufio.NewScanner(bytes.NewReader(trimmed))
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			key, val, ok := strings.Cut(sc.Text(), "=")
			if !ok {
				continue
			}
			switch strings.ToUpper(strings.TrimSpace(key)) {
			case "DURATION":
				d, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
				if err != nil {
					return nil, fmt.Errorf("parse duration %q: %w", val, err)
				}
				res.Duration = d
			case "FINGERPRINT":
				res.Fingerprint = strings.TrimSpace(val)
			}
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read fpcalc output: %w", err)
		}
	}

	if res.Fingerprint == "" {
		return nil, errors.New("fpcalc returned no fingerprint")
	}
	if res.Duration <= 0 {
		return nil, errors.New("fpcalc returned no duration")
	}
	return &res, nil
}
