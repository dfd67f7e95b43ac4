package services

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"
)

// ResourceSnapshot captures system resource usage at a point in time. It is
// attached to cache-stats and health responses.
type ResourceSnapshot struct {
	Timestamp      time.Time `json:"timestamp"`
	CPUPercent     float64   `json:"cpu_percent"`
	MemoryPercent  float64   `json:"memory_percent"`
	MemoryUsedMB   float64   `json:"memory_used_mb"`
	MemoryTotalMB  float64   `json:"memory_total_mb"`
	GoroutineCount int       `json:"goroutine_count"`
	CPUCores       int       `json:"cpu_cores"`
}

// ResourceMonitor samples CPU and memory usage via gopsutil.
type ResourceMonitor struct {
	logger *logrus.Logger
}

// NewResourceMonitor creates a resource monitor.
func NewResourceMonitor(logger *logrus.Logger) *ResourceMonitor {
	if logger == nil {
		logger = logrus.New()
	}
	return &ResourceMonitor{logger: logger}
}

// Snapshot returns current resource usage. Metrics that cannot be sampled
// are left at zero rather than failing the caller.
func (m *ResourceMonitor) Snapshot(ctx context.Context) ResourceSnapshot {
	snapshot := ResourceSnapshot{
		Timestamp:      time.Now(),
		GoroutineCount: runtime.NumGoroutine(),
		CPUCores:       runtime.NumCPU(),
	}

	// Interval 0 compares against the previous sample instead of blocking.
	if cpuPercent, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(cpuPercent) > 0 {
		snapshot.CPUPercent = cpuPercent[0]
	} else if err != nil {
		m.logger.WithError(err).Debug("Could not sample CPU usage")
	}

	if memInfo, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		snapshot.MemoryPercent = memInfo.UsedPercent
		snapshot.MemoryUsedMB = float64(memInfo.Used) / (1024 * 1024)
		snapshot.MemoryTotalMB = float64(memInfo.Total) / (1024 * 1024)
	} else {
		m.logger.WithError(err).Debug("Could not sample memory usage")
	}

	return snapshot
}
