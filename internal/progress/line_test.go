package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/dynrev/internal/reverse"
)

func TestPlainLines(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, WithInterval(0))

	l.Observe(reverse.Progress{Stage: reverse.StageStatic, Index: 1, Total: 10, Convergence: 0.25, Status: "iterating"})
	l.Observe(reverse.Progress{Stage: reverse.StageStatic, Index: 2, Total: 10, Convergence: 1e-13, Status: "converged", Converged: true})
	l.Done()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), buf.String())
	}
	if want := "static  iteration 1  convergence 2.500e-01  iterating"; lines[0] != want {
		t.Errorf("line = %q, want %q", lines[0], want)
	}
	if !strings.HasSuffix(lines[1], "converged") {
		t.Errorf("line = %q", lines[1])
	}
	if strings.Contains(buf.String(), "\r") {
		t.Error("plain output must not use carriage returns")
	}
}

func TestDynamicLine(t *testing.T) {
	got := plain(reverse.Progress{Stage: reverse.StageDynamic, Index: 3, Total: 11, Convergence: 2e-11, Evaluations: 24, Status: "converged"})
	want := "dynamic  step 3/10  error 2.000e-11  evaluations 24  converged"
	if got != want {
		t.Errorf("line = %q, want %q", got, want)
	}
}

func TestThrottle(t *testing.T) {
	var buf bytes.Buffer
	clock := time.Unix(0, 0)
	l := New(&buf, WithInterval(time.Second))
	l.now = func() time.Time { return clock }

	for i := 1; i <= 5; i++ {
		l.Observe(reverse.Progress{Stage: reverse.StageStatic, Index: i, Status: "iterating"})
	}
	clock = clock.Add(2 * time.Second)
	l.Observe(reverse.Progress{Stage: reverse.StageStatic, Index: 6, Status: "iterating"})
	l.Observe(reverse.Progress{Stage: reverse.StageStatic, Index: 7, Status: "max iterations exceeded"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want first, after interval and final: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[2], "iteration 7") {
		t.Errorf("final line = %q", lines[2])
	}
}

func TestInPlace(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, WithInterval(0), WithInPlace(true))

	l.Observe(reverse.Progress{Stage: reverse.StageDynamic, Index: 0, Total: 3, Status: "initial", Converged: true})
	l.Observe(reverse.Progress{Stage: reverse.StageDynamic, Index: 2, Total: 3, Status: "converged", Converged: true})
	l.Done()

	out := buf.String()
	if strings.Count(out, "\r") != 2 {
		t.Errorf("expected two overwrites, got %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("Done must end the line")
	}
	if !strings.Contains(out, "step 2/2") {
		t.Errorf("missing step in %q", out)
	}
}

func TestNotATerminal(t *testing.T) {
	if isTerminal(&bytes.Buffer{}) {
		t.Error("a buffer is not a terminal")
	}
}
