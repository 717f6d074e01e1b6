package sampler

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Dicklesworthstone/statusline/internal/model"
)

// GPURegistry discovers NVIDIA devices once at startup and keeps their latest
// readings fresh from a background poller, so a slow nvidia-smi never holds
// up a tick.
type GPURegistry struct {
	Poll    time.Duration
	Timeout time.Duration

	run    Runner
	logger *slog.Logger

	mu      sync.RWMutex
	names   map[int]string
	devices map[int]model.GPU
}

// NewGPURegistry enumerates devices. A machine without nvidia-smi yields an
// empty registry, not an error.
func NewGPURegistry(ctx context.Context, run Runner, timeout time.Duration, logger *slog.Logger) *GPURegistry {
	if run == nil {
		run = RunCmd
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &GPURegistry{
		Poll:    2 * time.Second,
		Timeout: timeout,
		run:     run,
		logger:  logger,
		names:   make(map[int]string),
		devices: make(map[int]model.GPU),
	}
	qctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	out, err := run(qctx, "nvidia-smi", "--query-gpu=index,name", "--format=csv,noheader,nounits")
	if err != nil {
		logger.Info("gpu: no devices", slog.String("error", err.Error()))
		return r
	}
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		parts := strings.SplitN(sc.Text(), ",", 2)
		if len(parts) != 2 {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			continue
		}
		r.names[idx] = strings.TrimSpace(parts[1])
	}
	logger.Debug("gpu: registry ready", slog.Int("devices", len(r.names)))
	return r
}

// Len reports how many devices were discovered.
func (r *GPURegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// Get returns the latest reading for index.
func (r *GPURegistry) Get(index int) (model.GPU, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.names[index]; !ok {
		return model.GPU{}, fmt.Errorf("%w: gpu %d", ErrNotFound, index)
	}
	g, ok := r.devices[index]
	if !ok {
		return model.GPU{}, fmt.Errorf("%w: gpu %d not polled yet", ErrUnavailable, index)
	}
	return g, nil
}

// Run polls until ctx is done. It does nothing for an empty registry.
func (r *GPURegistry) Run(ctx context.Context) {
	if r.Len() == 0 {
		return
	}
	r.Update(ctx)

	ticker := time.NewTicker(r.Poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Update(ctx)
		}
	}
}

// Update performs one poll of every device.
func (r *GPURegistry) Update(ctx context.Context) {
	qctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()
	out, err := r.run(qctx, "nvidia-smi",
		"--query-gpu=index,name,utilization.gpu,memory.used,memory.total",
		"--format=csv,noheader,nounits")
	if err != nil {
		r.logger.Debug("gpu: poll failed", slog.String("error", err.Error()))
		return
	}
	gpus := ParseGPUs(out)
	r.mu.Lock()
	for _, g := range gpus {
		if _, ok := r.names[g.Index]; ok {
			r.devices[g.Index] = g
		}
	}
	r.mu.Unlock()
}

// ParseGPUs reads nvidia-smi CSV rows of index,name,util,mem.used,mem.total
// with memory in MiB.
func ParseGPUs(out string) []model.GPU {
	var gpus []model.GPU
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		parts := strings.Split(sc.Text(), ",")
		if len(parts) < 5 {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			continue
		}
		gpus = append(gpus, model.GPU{
			Index:    idx,
			Name:     strings.TrimSpace(parts[1]),
			Util:     parseFloat(parts[2]),
			MemUsed:  uint64(parseFloat(parts[3]) * (1 << 20)),
			MemTotal: uint64(parseFloat(parts[4]) * (1 << 20)),
		})
	}
	return gpus
}

func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
