package sampler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCorePercents(t *testing.T) {
	prev := []cpu.TimesStat{
		{User: 100, Idle: 100},
		{User: 50, Idle: 150},
	}
	cur := []cpu.TimesStat{
		{User: 175, Idle: 125}, // 75 busy of 100
		{User: 50, Idle: 250},  // idle
		{User: 10, Idle: 10},   // new core, no history
	}
	got := CorePercents(prev, cur)
	want := []float64{75, 0, 0}
	if len(got) != len(want) {
		t.Fatalf("len = %d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("core %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestParseTrack(t *testing.T) {
	tr, err := ParseTrack("spotify\tPlaying\tBjörk\tHomogenic\tJóga\n")
	if err != nil {
		t.Fatalf("ParseTrack: %v", err)
	}
	if tr.Player != "spotify" || tr.Status != "Playing" || tr.Artist != "Björk" || tr.Title != "Jóga" {
		t.Fatalf("unexpected track %+v", tr)
	}

	for _, bad := range []string{"", "No players found", "mpv\tStopped\t\t\t"} {
		if _, err := ParseTrack(bad); !errors.Is(err, ErrUnavailable) {
			t.Errorf("ParseTrack(%q) err = %v, want ErrUnavailable", bad, err)
		}
	}
}

func TestParseVPN(t *testing.T) {
	tests := []struct {
		name      string
		out       string
		connected bool
		relay     string
	}{
		{"legacy connected", "Tunnel status: Connected to WireGuard se-got-wg-001 in Gothenburg, Sweden\n", true, "se-got-wg-001"},
		{"legacy disconnected", "Tunnel status: Disconnected\n", false, ""},
		{"current connected", "Connected\n    Relay:                  de-fra-wg-005\n    Visible location:       Germany, Frankfurt\n", true, "de-fra-wg-005"},
		{"current disconnected", "Disconnected\n", false, ""},
		{"connecting", "Connecting\n", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseVPN(tt.out)
			if err != nil {
				t.Fatalf("ParseVPN: %v", err)
			}
			if v.Connected != tt.connected || v.Relay != tt.relay {
				t.Fatalf("got %+v, want connected=%v relay=%q", v, tt.connected, tt.relay)
			}
		})
	}
	if _, err := ParseVPN("   \n"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("empty output err = %v", err)
	}
}

func TestParseGPUs(t *testing.T) {
	out := "0, NVIDIA GeForce RTX 3090, 37, 2048, 24576\n1, NVIDIA A100, 100, 81920, 81920\ngarbage\n"
	gpus := ParseGPUs(out)
	if len(gpus) != 2 {
		t.Fatalf("len = %d", len(gpus))
	}
	if gpus[0].Util != 37 || gpus[0].MemUsed != 2048<<20 || gpus[0].MemTotal != 24576<<20 {
		t.Fatalf("unexpected gpu0 %+v", gpus[0])
	}
	if gpus[1].Index != 1 || gpus[1].Name != "NVIDIA A100" {
		t.Fatalf("unexpected gpu1 %+v", gpus[1])
	}
}

type fakeRunner struct {
	outputs map[string]string
	err     error
	calls   int
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.outputs[name+" "+strings.Join(args, " ")], nil
}

func TestGPURegistry(t *testing.T) {
	const (
		discover = "nvidia-smi --query-gpu=index,name --format=csv,noheader,nounits"
		poll     = "nvidia-smi --query-gpu=index,name,utilization.gpu,memory.used,memory.total --format=csv,noheader,nounits"
	)
	f := &fakeRunner{outputs: map[string]string{
		discover: "0, RTX\n",
		poll:     "0, RTX, 12, 1024, 8192\n",
	}}
	r := NewGPURegistry(context.Background(), f.run, time.Second, testLogger())
	if r.Len() != 1 {
		t.Fatalf("Len = %d", r.Len())
	}
	if _, err := r.Get(0); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("before poll err = %v", err)
	}
	if _, err := r.Get(3); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown index err = %v", err)
	}
	r.Update(context.Background())
	g, err := r.Get(0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if g.Util != 12 || g.MemTotal != 8192<<20 {
		t.Fatalf("unexpected reading %+v", g)
	}
}

func TestGPURegistryWithoutDriver(t *testing.T) {
	f := &fakeRunner{err: ErrUnavailable}
	r := NewGPURegistry(context.Background(), f.run, time.Second, testLogger())
	if r.Len() != 0 {
		t.Fatalf("Len = %d", r.Len())
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Run(ctx) // returns immediately
	if f.calls != 1 {
		t.Fatalf("calls = %d, want only discovery", f.calls)
	}
}

func TestSystemVPNUsesCommand(t *testing.T) {
	s := NewSystem(nil, []string{"mullvad", "status"}, testLogger())
	f := &fakeRunner{outputs: map[string]string{"mullvad status": "Connected\n  Relay: ch-zrh-wg-001\n"}}
	s.Run = f.run
	v, err := s.VPN(context.Background())
	if err != nil || !v.Connected || v.Relay != "ch-zrh-wg-001" {
		t.Fatalf("VPN = %+v, %v", v, err)
	}
	if _, err := s.GPU(context.Background(), 0); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("GPU without registry err = %v", err)
	}
}

func TestRunCmdMissingBinary(t *testing.T) {
	_, err := RunCmd(context.Background(), "statusline-definitely-missing-binary")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestRunCmdDeadlineWithLingeringChild(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := RunCmd(ctx, "sh", "-c", "sleep 3; echo Connected")
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("RunCmd returned after %v with a 100ms deadline", elapsed)
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}
