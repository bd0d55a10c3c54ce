// Package procdriver spawns a CLI operator under a PTY and drives it to
// completion, following the teacher's codex-interactive-driver "runner"
// type: pty.Start, a background read loop draining the PTY into a bounded
// ring buffer, and a single doneCh carrying cmd.Wait's result. Unlike the
// teacher's driver, ProcessDriver runs one full task end-to-end rather than
// replaying a scripted action list, and its only timeout is the absolute
// one supplied by the caller — there is deliberately no inactivity/idle
// watchdog (spec §4.8/§9: a CLI operator can legitimately sit silent for
// minutes while it thinks).
package procdriver

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
)

// Result is everything ProcessDriver observed about one run.
type Result struct {
	Output   string
	ExitCode int
	TimedOut bool
	Duration time.Duration
}

// Driver runs a single command to completion under a PTY.
type Driver struct {
	maxBytes int
}

// New returns a Driver that retains up to maxBytes of combined output. A
// non-positive maxBytes defaults to 4 MiB, generous enough for a full CLI
// transcript without risking unbounded memory growth on a runaway process.
func New(maxBytes int) *Driver {
	if maxBytes <= 0 {
		maxBytes = 4 << 20
	}
	return &Driver{maxBytes: maxBytes}
}

// Run spawns name with args under a PTY in dir, waits for it to exit or for
// ctx to be done, and returns the captured output. On cancellation it sends
// SIGTERM to the whole process group, waits briefly for a graceful exit,
// then SIGKILLs.
func (d *Driver) Run(ctx context.Context, dir, name string, args []string, env []string) (Result, error) {
	start := time.Now()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return Result{}, fmt.Errorf("procdriver: start %s: %w", name, err)
	}
	defer ptmx.Close()

	var mu sync.Mutex
	var output []byte
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		buf := make([]byte, 8192)
		for {
			n, rErr := ptmx.Read(buf)
			if n > 0 {
				mu.Lock()
				output = appendBounded(output, buf[:n], d.maxBytes)
				mu.Unlock()
			}
			if rErr != nil {
				return
			}
		}
	}()

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	var waitErr error
	timedOut := false
	select {
	case waitErr = <-waitCh:
	case <-ctx.Done():
		timedOut = true
		waitErr = d.terminate(cmd, waitCh)
	}

	<-readDone

	mu.Lock()
	combined := string(output)
	mu.Unlock()

	exitCode := 0
	if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	return Result{
		Output:   combined,
		ExitCode: exitCode,
		TimedOut: timedOut,
		Duration: time.Since(start),
	}, nil
}

// terminate sends SIGTERM to the process group, gives it a grace window to
// exit, and escalates to SIGKILL if it hasn't — the same graceful-then-force
// shutdown every teacher binary's signal handler performs.
func (d *Driver) terminate(cmd *exec.Cmd, waitCh chan error) error {
	pgid := -cmd.Process.Pid
	_ = syscall.Kill(pgid, syscall.SIGTERM)

	select {
	case err := <-waitCh:
		return err
	case <-time.After(5 * time.Second):
	}

	_ = syscall.Kill(pgid, syscall.SIGKILL)
	return <-waitCh
}

func appendBounded(existing, chunk []byte, maxBytes int) []byte {
	if len(chunk) >= maxBytes {
		return append([]byte(nil), chunk[len(chunk)-maxBytes:]...)
	}
	need := len(existing) + len(chunk) - maxBytes
	if need > 0 {
		existing = append([]byte(nil), existing[need:]...)
	}
	return append(existing, chunk...)
}

// StripANSI removes terminal escape sequences from s, the way the stdout
// parser cleans PTY output before pattern-matching it.
func StripANSI(s string) string {
	var b strings.Builder
	i := 0
	for i < len(s) {
		if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && !isANSITerminator(s[j]) {
				j++
			}
			if j < len(s) {
				j++
			}
			i = j
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

func isANSITerminator(b byte) bool {
	return b >= 0x40 && b <= 0x7e
}
