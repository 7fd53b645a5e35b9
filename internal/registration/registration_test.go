// SPDX-License-Identifier: MPL-2.0

package registration

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/wslget/wslget/internal/process"
	"github.com/wslget/wslget/internal/testutil/fakeexec"
	"github.com/wslget/wslget/internal/wslapi"
	"github.com/wslget/wslget/internal/wslapi/wslapitest"
	"github.com/wslget/wslget/internal/wslcli"
)

func TestHelperProcess(t *testing.T) { fakeexec.HelperProcess() }

func newService(t *testing.T, api wslapi.API, rec *fakeexec.Recorder, opts ...Option) *Service {
	t.Helper()
	client := wslcli.New(wslcli.WithRunner(process.NewRunner(process.WithExecCommand(rec.Command(t)))))
	return NewService(api, client, opts...)
}

func TestService_Register(t *testing.T) {
	rec := fakeexec.New()
	dataDir := filepath.Join(t.TempDir(), "wslget", "arch-latest")
	s := newService(t, wslapitest.New(), rec)

	if err := s.Register(t.Context(), "arch-latest", dataDir, "rootfs.tar.gz"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if info, err := os.Stat(dataDir); err != nil || !info.IsDir() {
		t.Fatalf("data directory not created: %v", err)
	}
	if rec.Count("wsl.exe", "--import", "arch-latest", dataDir, "rootfs.tar.gz", "--version", "2") != 1 {
		t.Errorf("invocations = %v", rec.Invocations())
	}
}

func TestService_Register_Version1(t *testing.T) {
	rec := fakeexec.New()
	s := newService(t, wslapitest.New(), rec, WithVersion(1))

	if err := s.Register(t.Context(), "old", t.TempDir(), "r.tar.gz"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if rec.Count("wsl.exe", "--import", "old") != 1 || rec.Invocations()[0].Args[5] != "1" {
		t.Errorf("invocations = %v", rec.Invocations())
	}
}

func TestService_Register_ImportFailure(t *testing.T) {
	rec := fakeexec.New().On(fakeexec.Response{Stderr: "Error code: Wsl/Service/RegisterDistro/E_ACCESSDENIED", ExitCode: 1}, "wsl.exe", "--import")
	s := newService(t, wslapitest.New(), rec)

	err := s.Register(t.Context(), "arch-latest", t.TempDir(), "rootfs.tar.gz")
	if !errors.Is(err, ErrRegistration) {
		t.Fatalf("Register() error = %v, want ErrRegistration", err)
	}
	if stage, _ := process.StageOf(err); stage != wslcli.StageImport {
		t.Errorf("stage = %q, want %q", stage, wslcli.StageImport)
	}
}

func TestService_Preconditions(t *testing.T) {
	api := wslapitest.New().AddDistribution("Ubuntu", wslapi.DistributionConfiguration{Version: 2})
	s := newService(t, api, fakeexec.New())

	err := s.EnsureNotRegistered("Ubuntu")
	var pre *PreconditionError
	if !errors.As(err, &pre) || !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("EnsureNotRegistered(Ubuntu) = %v, want PreconditionError(ErrAlreadyRegistered)", err)
	}
	if err := s.EnsureNotRegistered("fresh"); err != nil {
		t.Errorf("EnsureNotRegistered(fresh) = %v", err)
	}
	if err := s.EnsureRegistered("fresh"); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("EnsureRegistered(fresh) = %v, want ErrNotRegistered", err)
	}
}

func TestService_Unregister(t *testing.T) {
	api := wslapitest.New().AddDistribution("arch-latest", wslapi.DistributionConfiguration{Version: 2})
	s := newService(t, api, fakeexec.New())

	if err := s.Unregister("arch-latest"); err != nil {
		t.Fatalf("Unregister() error = %v", err)
	}
	if api.IsRegistered("arch-latest") {
		t.Error("distribution still registered")
	}
	if err := s.Unregister("arch-latest"); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("second Unregister() = %v, want ErrNotRegistered", err)
	}
	if got := api.Count("Unregister"); got != 1 {
		t.Errorf("API Unregister called %d times, want 1", got)
	}
}

func TestService_List(t *testing.T) {
	rec := fakeexec.New().On(fakeexec.Response{Stdout: "Ubuntu\narch-latest\n"}, "wsl.exe", "--list")
	got, err := newService(t, wslapitest.New(), rec).List(t.Context())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if !slices.Equal(got, []string{"Ubuntu", "arch-latest"}) {
		t.Errorf("List() = %q", got)
	}
}
