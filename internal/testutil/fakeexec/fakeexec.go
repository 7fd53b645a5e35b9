// SPDX-License-Identifier: MPL-2.0

// Package fakeexec fakes external programs for tests using the
// TestHelperProcess pattern.
//
// A Recorder hands out exec.Cmd values that re-run the test binary. Every
// package using it must declare
//
//	func TestHelperProcess(t *testing.T) { fakeexec.HelperProcess() }
//
// so the re-executed binary plays back the scripted response and exits
// before any real test runs.
package fakeexec

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
)

const (
	envWant        = "WSLGET_FAKEEXEC"
	envExitCode    = "WSLGET_FAKEEXEC_EXIT"
	envStdout      = "WSLGET_FAKEEXEC_STDOUT"
	envStdoutBytes = "WSLGET_FAKEEXEC_STDOUT_BYTES"
	envStderr      = "WSLGET_FAKEEXEC_STDERR"
)

type (
	// Response is what a faked program writes and how it exits.
	Response struct {
		// Stdout is written verbatim to stdout.
		Stdout string
		// StdoutBytes, when positive, writes that many generated bytes after Stdout.
		StdoutBytes int
		// Stderr is written verbatim to stderr.
		Stderr string
		// ExitCode is the process exit status.
		ExitCode int
	}

	// Invocation is one recorded program run. Name is the base name of the
	// program path.
	Invocation struct {
		Name string
		Args []string
	}

	// Recorder scripts responses by argv prefix and records every invocation.
	Recorder struct {
		mu          sync.Mutex
		rules       []rule
		fallback    Response
		invocations []Invocation
	}

	rule struct {
		prefix []string
		resp   Response
	}
)

// New creates a Recorder whose unscripted programs succeed silently.
func New() *Recorder {
	return &Recorder{}
}

// On scripts resp for invocations whose argv (program base name followed by
// arguments) starts with prefix. The longest matching prefix wins.
func (r *Recorder) On(resp Response, prefix ...string) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule{prefix: prefix, resp: resp})
	return r
}

// Default sets the response for invocations no rule matches.
func (r *Recorder) Default(resp Response) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = resp
	return r
}

// Command returns a function compatible with exec.CommandContext.
func (r *Recorder) Command(t testing.TB) func(ctx context.Context, name string, args ...string) *exec.Cmd {
	t.Helper()
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		inv := Invocation{Name: filepath.Base(name), Args: slices.Clone(args)}
		resp := r.record(inv)

		cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
		//nolint:gosec // re-executes the test binary
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = []string{
			envWant + "=1",
			envExitCode + "=" + strconv.Itoa(resp.ExitCode),
			envStdout + "=" + base64.StdEncoding.EncodeToString([]byte(resp.Stdout)),
			envStdoutBytes + "=" + strconv.Itoa(resp.StdoutBytes),
			envStderr + "=" + base64.StdEncoding.EncodeToString([]byte(resp.Stderr)),
		}
		return cmd
	}
}

func (r *Recorder) record(inv Invocation) Response {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invocations = append(r.invocations, inv)

	argv := append([]string{inv.Name}, inv.Args...)
	best, bestLen := r.fallback, -1
	for _, rl := range r.rules {
		if len(rl.prefix) > len(argv) || len(rl.prefix) <= bestLen {
			continue
		}
		if slices.Equal(argv[:len(rl.prefix)], rl.prefix) {
			best, bestLen = rl.resp, len(rl.prefix)
		}
	}
	return best
}

// Invocations returns a copy of every recorded invocation in order.
func (r *Recorder) Invocations() []Invocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.invocations)
}

// Count returns how many invocations start with prefix.
func (r *Recorder) Count(prefix ...string) int {
	n := 0
	for _, inv := range r.Invocations() {
		if inv.HasPrefix(prefix...) {
			n++
		}
	}
	return n
}

// Index returns the position of the first invocation starting with prefix,
// or -1.
func (r *Recorder) Index(prefix ...string) int {
	for i, inv := range r.Invocations() {
		if inv.HasPrefix(prefix...) {
			return i
		}
	}
	return -1
}

// HasPrefix reports whether the invocation's argv starts with prefix.
func (i Invocation) HasPrefix(prefix ...string) bool {
	argv := append([]string{i.Name}, i.Args...)
	return len(prefix) <= len(argv) && slices.Equal(argv[:len(prefix)], prefix)
}

// String renders the invocation as a command line.
func (i Invocation) String() string {
	return strings.Join(append([]string{i.Name}, i.Args...), " ")
}

// HelperProcess plays back the scripted response when the binary was
// re-executed by a Recorder, then exits. Otherwise it returns immediately.
func HelperProcess() {
	if os.Getenv(envWant) != "1" {
		return
	}

	if out := decode(os.Getenv(envStdout)); out != "" {
		fmt.Fprint(os.Stdout, out)
	}
	if n, _ := strconv.Atoi(os.Getenv(envStdoutBytes)); n > 0 {
		writeGenerated(n)
	}
	if errOut := decode(os.Getenv(envStderr)); errOut != "" {
		fmt.Fprint(os.Stderr, errOut)
	}

	code, _ := strconv.Atoi(os.Getenv(envExitCode))
	os.Exit(code)
}

func writeGenerated(n int) {
	chunk := []byte(strings.Repeat("rootfs-bytes\n", 4096))
	for n > 0 {
		w := min(n, len(chunk))
		if _, err := os.Stdout.Write(chunk[:w]); err != nil {
			os.Exit(3)
		}
		n -= w
	}
}

func decode(s string) string {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return ""
	}
	return string(b)
}
