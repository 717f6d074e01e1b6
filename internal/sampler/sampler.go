// Package sampler reads raw values from the system: gopsutil for CPU, memory,
// disk and network counters, and external commands for the GPU, media player
// and VPN client. Every call is bounded by its context.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/Dicklesworthstone/statusline/internal/model"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
)

var (
	// ErrNotFound means the requested device, interface or path is absent.
	ErrNotFound = errors.New("sampler: not found")
	// ErrUnavailable means an optional collaborator could not answer this
	// time: timeout, missing command, no active player.
	ErrUnavailable = errors.New("sampler: unavailable")
)

// Source is everything the bar reads from the outside world.
type Source interface {
	CPU(ctx context.Context) ([]float64, error)
	Memory(ctx context.Context) (model.Memory, error)
	Disk(ctx context.Context, path string) (model.Disk, error)
	Net(ctx context.Context) (map[string]model.NetCounters, error)
	GPU(ctx context.Context, index int) (model.GPU, error)
	Track(ctx context.Context) (model.Track, error)
	VPN(ctx context.Context) (model.VPN, error)
}

// System is the live Source.
type System struct {
	GPUs       *GPURegistry
	VPNCommand []string
	Run        Runner
	Logger     *slog.Logger

	mu       sync.Mutex
	prevCore []cpu.TimesStat
}

// NewSystem wires a System. gpus may be nil when GPU sampling is disabled.
func NewSystem(gpus *GPURegistry, vpnCommand []string, logger *slog.Logger) *System {
	if logger == nil {
		logger = slog.Default()
	}
	return &System{GPUs: gpus, VPNCommand: vpnCommand, Run: RunCmd, Logger: logger}
}

// CPU returns per-core utilization from the times delta since the previous
// call. The first call reports zeros.
func (s *System) CPU(ctx context.Context) ([]float64, error) {
	times, err := cpu.TimesWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("%w: cpu times: %v", ErrUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	perCore := CorePercents(s.prevCore, times)
	s.prevCore = times
	return perCore, nil
}

// CorePercents computes busy percentages between two per-core samples.
// Cores missing from prev report 0.
func CorePercents(prev, cur []cpu.TimesStat) []float64 {
	perCore := make([]float64, len(cur))
	for i, c := range cur {
		if i >= len(prev) {
			continue
		}
		p := prev[i]
		dt := c.Total() - p.Total()
		di := (c.Idle + c.Iowait) - (p.Idle + p.Iowait)
		if dt > 0 {
			perCore[i] = clamp100(100 * (1 - di/dt))
		}
	}
	return perCore
}

// Memory returns virtual and swap memory figures.
func (s *System) Memory(ctx context.Context) (model.Memory, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return model.Memory{}, fmt.Errorf("%w: virtual memory: %v", ErrUnavailable, err)
	}
	out := model.Memory{
		TotalBytes:     vm.Total,
		AvailableBytes: vm.Available,
		UsedPercent:    vm.UsedPercent,
	}
	if sw, err := mem.SwapMemoryWithContext(ctx); err == nil {
		out.SwapTotal = sw.Total
		out.SwapFree = sw.Free
		out.SwapPercent = sw.UsedPercent
	} else {
		s.Logger.Debug("sampler: swap memory", slog.String("error", err.Error()))
	}
	return out, nil
}

// Disk returns usage of the filesystem mounted at path.
func (s *System) Disk(ctx context.Context, path string) (model.Disk, error) {
	u, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.Disk{}, fmt.Errorf("%w: disk %s", ErrNotFound, path)
		}
		return model.Disk{}, fmt.Errorf("%w: disk %s: %v", ErrUnavailable, path, err)
	}
	return model.Disk{Path: path, TotalBytes: u.Total, FreeBytes: u.Free}, nil
}

// Net returns cumulative byte counters keyed by interface name.
func (s *System) Net(ctx context.Context) (map[string]model.NetCounters, error) {
	counters, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("%w: net counters: %v", ErrUnavailable, err)
	}
	out := make(map[string]model.NetCounters, len(counters))
	for _, c := range counters {
		out[c.Name] = model.NetCounters{Name: c.Name, BytesSent: c.BytesSent, BytesRecv: c.BytesRecv}
	}
	return out, nil
}

// GPU returns the most recent poll for the device at index.
func (s *System) GPU(_ context.Context, index int) (model.GPU, error) {
	if s.GPUs == nil {
		return model.GPU{}, fmt.Errorf("%w: gpu sampling disabled", ErrUnavailable)
	}
	return s.GPUs.Get(index)
}

// Track asks playerctl for the active MPRIS player's metadata.
func (s *System) Track(ctx context.Context) (model.Track, error) {
	out, err := s.Run(ctx, "playerctl", "metadata", "--format", trackFormat)
	if err != nil {
		return model.Track{}, err
	}
	return ParseTrack(out)
}

// VPN runs the configured status command and parses its output.
func (s *System) VPN(ctx context.Context) (model.VPN, error) {
	if len(s.VPNCommand) == 0 {
		return model.VPN{}, fmt.Errorf("%w: no vpn command", ErrUnavailable)
	}
	out, err := s.Run(ctx, s.VPNCommand[0], s.VPNCommand[1:]...)
	if err != nil {
		return model.VPN{}, err
	}
	return ParseVPN(out)
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
