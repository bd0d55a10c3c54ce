package procdriver

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestRunCapturesOutput(t *testing.T) {
	d := New(0)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := d.Run(ctx, t.TempDir(), "bash", []string{"-c", "echo hello-world"}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(result.Output, "hello-world") {
		t.Fatalf("expected output to contain hello-world, got %q", result.Output)
	}
	if result.TimedOut {
		t.Fatalf("did not expect timeout")
	}
}

func TestRunHonorsContextTimeout(t *testing.T) {
	d := New(0)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	result, err := d.Run(ctx, t.TempDir(), "bash", []string{"-c", "sleep 10"}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.TimedOut {
		t.Fatalf("expected timeout to be reported")
	}
}

func TestRunNonZeroExitCode(t *testing.T) {
	d := New(0)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := d.Run(ctx, t.TempDir(), "bash", []string{"-c", "exit 3"}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", result.ExitCode)
	}
}

func TestStripANSIRemovesEscapeSequences(t *testing.T) {
	in := "\x1b[31mred text\x1b[0m plain"
	out := StripANSI(in)
	if strings.Contains(out, "\x1b") {
		t.Fatalf("expected escape sequences removed, got %q", out)
	}
	if !strings.Contains(out, "red text") || !strings.Contains(out, "plain") {
		t.Fatalf("expected visible text preserved, got %q", out)
	}
}
