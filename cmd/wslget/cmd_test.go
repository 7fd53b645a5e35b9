// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/wslget/wslget/internal/config"
	"github.com/wslget/wslget/internal/container"
	"github.com/wslget/wslget/internal/process"
	"github.com/wslget/wslget/internal/registration"
	"github.com/wslget/wslget/internal/rootfs"
	"github.com/wslget/wslget/internal/testutil"
	"github.com/wslget/wslget/internal/testutil/fakeexec"
	"github.com/wslget/wslget/internal/wslapi"
	"github.com/wslget/wslget/internal/wslapi/wslapitest"
	"github.com/wslget/wslget/internal/wslcli"
)

func TestHelperProcess(t *testing.T) { fakeexec.HelperProcess() }

type (
	// fakeServices wires the real services to an in-memory platform API and
	// scripted docker/wsl.exe processes.
	fakeServices struct {
		t       *testing.T
		api     *wslapitest.Fake
		rec     *fakeexec.Recorder
		openErr error
	}

	staticConfig struct {
		cfg *config.Config
	}

	// scriptedPrompter answers prompts from a queue and records the prompts.
	scriptedPrompter struct {
		answers []string
		asked   []string
	}

	harness struct {
		app    *App
		api    *wslapitest.Fake
		rec    *fakeexec.Recorder
		prompt *scriptedPrompter
		cfg    *config.Config
		stdout *bytes.Buffer
		stderr *bytes.Buffer
	}
)

func (f *fakeServices) runner() *process.Runner {
	return process.NewRunner(process.WithExecCommand(f.rec.Command(f.t)))
}

func (f *fakeServices) Packager(_ *config.Config, logger *log.Logger) (Packager, error) {
	engine := container.NewDockerEngine(container.WithBinaryPath("docker"), container.WithRunner(f.runner()))
	return rootfs.NewPackager(&rootfs.EngineSource{Engine: engine, Logger: logger}), nil
}

func (f *fakeServices) Open(cfg *config.Config, logger *log.Logger) (*Services, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return NewServices(cfg, f.api, wslcli.New(wslcli.WithRunner(f.runner())), logger), nil
}

func (s staticConfig) LoadWithPath(context.Context, config.LoadOptions) (*config.Config, string, error) {
	cp := *s.cfg
	return &cp, "", nil
}

func (p *scriptedPrompter) next(prompt string) (string, error) {
	p.asked = append(p.asked, prompt)
	if len(p.answers) == 0 {
		return "", errors.New("unexpected prompt: " + prompt)
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

func (p *scriptedPrompter) Input(prompt string) (string, error)    { return p.next(prompt) }
func (p *scriptedPrompter) Password(prompt string) (string, error) { return p.next(prompt) }
func (p *scriptedPrompter) Confirm(prompt string) (bool, error) {
	a, err := p.next(prompt)
	return a == "y", err
}

func newHarness(t *testing.T, answers ...string) *harness {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = filepath.Join(t.TempDir(), "data")

	h := &harness{
		api: wslapitest.New(),
		rec: fakeexec.New().
			On(fakeexec.Response{Stdout: "abc123\n"}, "docker", "create").
			On(fakeexec.Response{StdoutBytes: 64 << 10}, "docker", "export"),
		prompt: &scriptedPrompter{answers: answers},
		cfg:    cfg,
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	h.app = NewApp(Dependencies{
		Config:   staticConfig{cfg: cfg},
		Services: &fakeServices{t: t, api: h.api, rec: h.rec},
		Prompt:   h.prompt,
		Stdout:   h.stdout,
		Stderr:   h.stderr,
	})
	return h
}

func (h *harness) run(t *testing.T, args ...string) error {
	t.Helper()
	root := NewRootCommand(h.app)
	root.SetArgs(args)
	root.SetOut(h.stdout)
	root.SetErr(h.stderr)
	return root.ExecuteContext(t.Context())
}

func TestInstall_NoUser(t *testing.T) {
	h := newHarness(t)

	if err := h.run(t, "install", "--no-user", "ubuntu:20.04"); err != nil {
		t.Fatalf("install error = %v\n%s", err, h.stderr)
	}

	if got := h.rec.Count("wsl.exe", "--import", "ubuntu-20.04", filepath.Join(h.cfg.DataDir, "ubuntu-20.04")); got != 1 {
		t.Errorf("import invoked %d times, want 1: %v", got, h.rec.Invocations())
	}
	if got := h.rec.Count("docker", "rm", "abc123"); got != 1 {
		t.Errorf("container removed %d times, want 1", got)
	}
	if len(h.prompt.asked) != 0 {
		t.Errorf("--no-user should not prompt, asked %v", h.prompt.asked)
	}
	out := h.stdout.String()
	for _, want := range []string{"Installing ubuntu:20.04 as ubuntu-20.04", "Complete!"} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout missing %q:\n%s", want, out)
		}
	}
}

func TestInstall_CustomName(t *testing.T) {
	h := newHarness(t)

	if err := h.run(t, "install", "--no-user", "library/debian", "deb"); err != nil {
		t.Fatalf("install error = %v", err)
	}
	if got := h.rec.Count("docker", "pull", "library/debian:latest"); got != 1 {
		t.Errorf("pull invoked %d times, want 1", got)
	}
	if got := h.rec.Count("wsl.exe", "--import", "deb"); got != 1 {
		t.Errorf("import as deb invoked %d times, want 1", got)
	}
}

func TestInstall_AlreadyRegisteredFailsBeforePrompting(t *testing.T) {
	h := newHarness(t, "alice")
	h.api.AddDistribution("ubuntu-20.04", wslapi.DistributionConfiguration{Version: 2})

	err := h.run(t, "install", "ubuntu:20.04")
	if !errors.Is(err, registration.ErrAlreadyRegistered) {
		t.Fatalf("install error = %v, want ErrAlreadyRegistered", err)
	}
	if len(h.prompt.asked) != 0 {
		t.Errorf("prompted %v before the precondition check", h.prompt.asked)
	}
	if n := len(h.rec.Invocations()); n != 0 {
		t.Errorf("%d processes started, want none", n)
	}
}

func TestInstall_InvalidImage(t *testing.T) {
	h := newHarness(t)

	err := h.run(t, "install", "--no-user", "a:b:c")
	if !errors.Is(err, rootfs.ErrInvalidImageRef) {
		t.Fatalf("install error = %v, want ErrInvalidImageRef", err)
	}
}

func TestInstall_PlatformUnavailable(t *testing.T) {
	h := newHarness(t)
	h.app.Services.(*fakeServices).openErr = wslapi.ErrUnsupportedPlatform

	err := h.run(t, "install", "--no-user", "ubuntu")
	if !errors.Is(err, wslapi.ErrUnsupportedPlatform) {
		t.Fatalf("install error = %v", err)
	}
}

func TestUninstall(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		answers    []string
		registered bool
		wantErr    error
		wantCalls  int
		wantOut    string
	}{
		{name: "yes flag", args: []string{"uninstall", "-y", "deb"}, registered: true, wantCalls: 1, wantOut: "Complete!"},
		{name: "confirmed", args: []string{"uninstall", "deb"}, answers: []string{"y"}, registered: true, wantCalls: 1, wantOut: "Uninstalling deb"},
		{name: "declined", args: []string{"uninstall", "deb"}, answers: []string{"n"}, registered: true, wantOut: "Nothing changed."},
		{name: "not installed", args: []string{"uninstall", "-y", "deb"}, wantErr: registration.ErrNotRegistered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.answers...)
			if tt.registered {
				h.api.AddDistribution("deb", wslapi.DistributionConfiguration{Version: 2})
			}

			err := h.run(t, tt.args...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("uninstall error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("uninstall error = %v", err)
			}
			if got := h.api.Count("Unregister"); got != tt.wantCalls {
				t.Errorf("Unregister called %d times, want %d", got, tt.wantCalls)
			}
			if !strings.Contains(h.stdout.String(), tt.wantOut) {
				t.Errorf("stdout missing %q:\n%s", tt.wantOut, h.stdout)
			}
		})
	}
}

func TestList(t *testing.T) {
	h := newHarness(t)
	h.rec.On(fakeexec.Response{Stdout: "Ubuntu\r\n\r\ndeb\r\n"}, "wsl.exe", "--list", "--quiet")

	if err := h.run(t, "list"); err != nil {
		t.Fatalf("list error = %v", err)
	}
	if got := h.stdout.String(); got != "Ubuntu\ndeb\n" {
		t.Errorf("stdout = %q", got)
	}
}

func TestSetDefaultUser(t *testing.T) {
	h := newHarness(t)
	h.api.AddDistribution("deb", wslapi.DistributionConfiguration{Version: 2, DefaultUID: 0, Flags: wslapi.FlagsDefault})
	h.rec.On(fakeexec.Response{Stdout: "1000\n"}, "wsl.exe", "-d", "deb")

	if err := h.run(t, "set-default-user", "deb", "alice"); err != nil {
		t.Fatalf("set-default-user error = %v", err)
	}
	cfg, _ := h.api.Distribution("deb")
	if cfg.DefaultUID != 1000 || cfg.Flags != wslapi.FlagsDefault {
		t.Errorf("configuration = %+v, want uid 1000 with default flags", cfg)
	}
	if !strings.Contains(h.stdout.String(), "uid 1000") {
		t.Errorf("stdout = %q", h.stdout)
	}
}

func TestSetDefaultUser_UnknownDistro(t *testing.T) {
	h := newHarness(t)

	err := h.run(t, "set-default-user", "nope", "alice")
	if !errors.Is(err, registration.ErrNotRegistered) {
		t.Fatalf("error = %v, want ErrNotRegistered", err)
	}
	if h.api.Count("Configure") != 0 {
		t.Error("Configure must not be called for unknown distributions")
	}
}

func TestDownload(t *testing.T) {
	h := newHarness(t)
	dest := filepath.Join(t.TempDir(), "alpine.tar.gz")

	if err := h.run(t, "download", "alpine:3.20", "-o", dest); err != nil {
		t.Fatalf("download error = %v", err)
	}
	if got := testutil.GunzipLen(t, dest); got != 64<<10 {
		t.Errorf("tarball holds %d bytes, want %d", got, 64<<10)
	}
	if h.api.Count("IsRegistered") != 0 {
		t.Error("download must not touch the platform API")
	}
}

func TestDownload_DefaultName(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	h := newHarness(t)

	if err := h.run(t, "download", "library/alpine:3.20"); err != nil {
		t.Fatalf("download error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "library-alpine-3.20.tar.gz")); err != nil {
		t.Errorf("default tarball missing: %v", err)
	}
}

func TestConfigCommands(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "wslget.cue")

	if err := h.run(t, "--config", path, "config", "path"); err != nil {
		t.Fatalf("config path error = %v", err)
	}
	if strings.TrimSpace(h.stdout.String()) != path {
		t.Errorf("config path = %q, want %q", h.stdout, path)
	}

	h.stdout.Reset()
	if err := h.run(t, "--config", path, "config", "init"); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config init did not write %s: %v", path, err)
	}

	h.stdout.Reset()
	if err := h.run(t, "config", "dump"); err != nil {
		t.Fatalf("config dump error = %v", err)
	}
	if !strings.Contains(h.stdout.String(), `container_engine: "docker"`) {
		t.Errorf("config dump = %s", h.stdout)
	}

	h.stdout.Reset()
	if err := h.run(t, "config", "show"); err != nil {
		t.Fatalf("config show error = %v", err)
	}
	for _, want := range []string{"(using defaults)", "rootfs_source", "(Docker Hub)"} {
		if !strings.Contains(h.stdout.String(), want) {
			t.Errorf("config show missing %q:\n%s", want, h.stdout)
		}
	}
}

func TestVerboseFlagEnablesDebugLogging(t *testing.T) {
	h := newHarness(t)

	if err := h.run(t, "--verbose", "download", "alpine", "-o", filepath.Join(t.TempDir(), "a.tar.gz")); err != nil {
		t.Fatalf("download error = %v", err)
	}
	if h.app.logger.GetLevel() != log.DebugLevel {
		t.Errorf("logger level = %v, want debug", h.app.logger.GetLevel())
	}
}
