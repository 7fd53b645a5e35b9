// SPDX-License-Identifier: MPL-2.0

package container

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/wslget/wslget/internal/issue"
	"github.com/wslget/wslget/internal/process"
	"github.com/wslget/wslget/internal/testutil/fakeexec"
)

func TestHelperProcess(t *testing.T) { fakeexec.HelperProcess() }

func newTestEngine(t *testing.T, rec *fakeexec.Recorder) *DockerEngine {
	t.Helper()
	runner := process.NewRunner(process.WithExecCommand(rec.Command(t)))
	return NewDockerEngine(
		WithBinaryPath("docker"),
		WithRunner(runner),
		withRetryDelay(time.Millisecond),
	)
}

func TestBaseCLIEngine_Args(t *testing.T) {
	t.Parallel()

	e := NewBaseCLIEngine("docker")
	tests := []struct {
		name string
		got  []string
		want []string
	}{
		{"pull", e.PullArgs("ubuntu:20.04"), []string{"pull", "ubuntu:20.04"}},
		{"create", e.CreateArgs("ubuntu:20.04"), []string{"create", "ubuntu:20.04"}},
		{"export", e.ExportArgs("abc123"), []string{"export", "abc123"}},
		{"remove", e.RemoveArgs("abc123"), []string{"rm", "abc123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if len(tt.got) != len(tt.want) {
				t.Fatalf("args = %v, want %v", tt.got, tt.want)
			}
			for i := range tt.want {
				if tt.got[i] != tt.want[i] {
					t.Fatalf("args = %v, want %v", tt.got, tt.want)
				}
			}
		})
	}
}

func TestEngine_Create_TrimsID(t *testing.T) {
	rec := fakeexec.New().On(fakeexec.Response{Stdout: "abc123\n"}, "docker", "create")
	e := newTestEngine(t, rec)

	id, err := e.Create(t.Context(), "ubuntu:20.04")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if id != "abc123" {
		t.Errorf("Create() id = %q, want %q", id, "abc123")
	}
}

func TestEngine_Create_EmptyID(t *testing.T) {
	rec := fakeexec.New().On(fakeexec.Response{Stdout: "  \n"}, "docker", "create")
	e := newTestEngine(t, rec)

	_, err := e.Create(t.Context(), "ubuntu:20.04")
	if !errors.Is(err, ErrEmptyContainerID) {
		t.Fatalf("Create() error = %v, want ErrEmptyContainerID", err)
	}
	if stage, _ := process.StageOf(err); stage != StageCreate {
		t.Errorf("stage = %q, want %q", stage, StageCreate)
	}
}

func TestEngine_Pull_PermanentFailure(t *testing.T) {
	rec := fakeexec.New().On(fakeexec.Response{
		Stderr:   "Error response from daemon: manifest for nosuch:tag not found",
		ExitCode: 1,
	}, "docker", "pull")
	e := newTestEngine(t, rec)

	err := e.Pull(t.Context(), "nosuch:tag")
	if err == nil {
		t.Fatal("Pull() expected error")
	}
	if got := rec.Count("docker", "pull"); got != 1 {
		t.Errorf("pull invocations = %d, want 1", got)
	}
	if stage, ok := process.StageOf(err); !ok || stage != StagePull {
		t.Errorf("StageOf() = %q, %v, want %q", stage, ok, StagePull)
	}
	var actionable *issue.ActionableError
	if !errors.As(err, &actionable) || !actionable.HasSuggestions() {
		t.Errorf("Pull() error should carry suggestions, got %T", err)
	}
}

func TestEngine_Pull_RetriesTransientFailure(t *testing.T) {
	rec := fakeexec.New().On(fakeexec.Response{Stderr: "Cannot connect", ExitCode: 125}, "docker", "pull")
	e := newTestEngine(t, rec)

	if err := e.Pull(t.Context(), "ubuntu:20.04"); err == nil {
		t.Fatal("Pull() expected error")
	}
	if got := rec.Count("docker", "pull"); got != pullAttempts {
		t.Errorf("pull invocations = %d, want %d", got, pullAttempts)
	}
}

func TestEngine_Export_Stream(t *testing.T) {
	rec := fakeexec.New().On(fakeexec.Response{StdoutBytes: 64 << 10}, "docker", "export")
	e := newTestEngine(t, rec)

	s, err := e.Export(t.Context(), "abc123")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	n, err := io.Copy(io.Discard, s)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if n != 64<<10 {
		t.Errorf("read %d bytes, want %d", n, 64<<10)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestEngine_Export_FailureCarriesStage(t *testing.T) {
	rec := fakeexec.New().On(fakeexec.Response{Stderr: "no such container", ExitCode: 1}, "docker", "export")
	e := newTestEngine(t, rec)

	s, err := e.Export(t.Context(), "gone")
	if err != nil {
		t.Fatalf("Export() start error = %v", err)
	}
	_, _ = io.Copy(io.Discard, s)
	err = s.Close()
	if stage, _ := process.StageOf(err); stage != StageExport {
		t.Fatalf("Close() error = %v, want stage %q", err, StageExport)
	}
}

func TestEngine_Remove(t *testing.T) {
	rec := fakeexec.New().On(fakeexec.Response{ExitCode: 1, Stderr: "no such container"}, "docker", "rm")
	e := newTestEngine(t, rec)

	err := e.Remove(t.Context(), "abc123")
	if stage, _ := process.StageOf(err); stage != StageRemove {
		t.Fatalf("Remove() error = %v, want stage %q", err, StageRemove)
	}
	if rec.Index("docker", "rm", "abc123") != 0 {
		t.Errorf("invocations = %v", rec.Invocations())
	}
}

func TestEngine_Available(t *testing.T) {
	t.Run("daemon reachable", func(t *testing.T) {
		rec := fakeexec.New().On(fakeexec.Response{Stdout: "27.0.1\n"}, "docker", "version")
		e := newTestEngine(t, rec)
		if !e.Available() {
			t.Fatal("Available() = false, want true")
		}
		v, err := e.Version(t.Context())
		if err != nil || v != "27.0.1" {
			t.Errorf("Version() = %q, %v", v, err)
		}
	})

	t.Run("daemon down", func(t *testing.T) {
		rec := fakeexec.New().On(fakeexec.Response{ExitCode: 1}, "docker", "version")
		if newTestEngine(t, rec).Available() {
			t.Fatal("Available() = true, want false")
		}
	})

	t.Run("binary missing", func(t *testing.T) {
		rec := fakeexec.New()
		runner := process.NewRunner(process.WithExecCommand(rec.Command(t)))
		e := NewDockerEngine(WithBinaryPath(""), WithRunner(runner))
		if e.Available() {
			t.Fatal("Available() = true, want false")
		}
		if len(rec.Invocations()) != 0 {
			t.Errorf("unexpected invocations: %v", rec.Invocations())
		}
	})
}

func TestNewEngine(t *testing.T) {
	t.Run("unknown type", func(t *testing.T) {
		if _, err := NewEngine("lxc"); err == nil {
			t.Fatal("NewEngine(lxc) expected error")
		}
	})

	t.Run("falls back to podman", func(t *testing.T) {
		rec := fakeexec.New().
			On(fakeexec.Response{ExitCode: 1}, "docker", "version").
			On(fakeexec.Response{Stdout: "5.0.0"}, "podman", "version")
		runner := process.NewRunner(process.WithExecCommand(rec.Command(t)))

		engine, err := newEngineWithPaths(EngineTypeDocker, runner)
		if err != nil {
			t.Fatalf("NewEngine() error = %v", err)
		}
		if engine.Name() != "podman" {
			t.Errorf("Name() = %q, want podman", engine.Name())
		}
	})

	t.Run("none available", func(t *testing.T) {
		rec := fakeexec.New().Default(fakeexec.Response{ExitCode: 1})
		runner := process.NewRunner(process.WithExecCommand(rec.Command(t)))

		_, err := newEngineWithPaths(EngineTypePodman, runner)
		var notAvail *ErrEngineNotAvailable
		if !errors.As(err, &notAvail) {
			t.Fatalf("error = %v, want *ErrEngineNotAvailable", err)
		}
		if notAvail.Engine != "podman" {
			t.Errorf("Engine = %q, want podman", notAvail.Engine)
		}
	})
}

// newEngineWithPaths calls NewEngine with each engine resolved to its bare
// name so fake processes match regardless of the host PATH.
func newEngineWithPaths(preferred EngineType, runner *process.Runner) (Engine, error) {
	return NewEngine(preferred, WithRunner(runner), withBinaryPathFromName())
}

func withBinaryPathFromName() BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.binaryPath = e.name
	}
}
