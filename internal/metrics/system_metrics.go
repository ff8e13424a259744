package metrics

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

var (
	systemCPUUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "system_cpu_usage_percent",
			Help: "Current CPU usage percentage",
		},
		[]string{"core"},
	)

	systemMemoryUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "system_memory_usage_bytes",
			Help: "Current memory usage in bytes",
		},
		[]string{"type"},
	)

	goHeapAlloc = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clinicdesk_go_heap_alloc_bytes",
			Help: "Heap memory usage in bytes",
		},
	)

	goGoroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clinicdesk_go_goroutines",
			Help: "Number of goroutines that currently exist",
		},
	)

	systemMetricsOnce sync.Once
)

// StartSystemMetricsCollection starts a goroutine to collect system metrics.
// Gated behind ENABLE_SYSTEM_METRICS.
func StartSystemMetricsCollection(interval time.Duration) {
	if os.Getenv("ENABLE_SYSTEM_METRICS") != "true" {
		return
	}

	systemMetricsOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for range ticker.C {
				collectSystemMetrics()
				collectGoRuntimeMetrics()
			}
		}()
	})
}

// collectSystemMetrics collects system-level metrics
func collectSystemMetrics() {
	// CPU usage
	if cpuPercentages, err := cpu.Percent(0, true); err == nil {
		for i, percentage := range cpuPercentages {
			systemCPUUsage.WithLabelValues(fmt.Sprintf("cpu%d", i)).Set(percentage)
		}
	}

	// Memory usage
	if vmstat, err := mem.VirtualMemory(); err == nil {
		systemMemoryUsage.WithLabelValues("total").Set(float64(vmstat.Total))
		systemMemoryUsage.WithLabelValues("available").Set(float64(vmstat.Available))
		systemMemoryUsage.WithLabelValues("used").Set(float64(vmstat.Used))
		systemMemoryUsage.WithLabelValues("free").Set(float64(vmstat.Free))
	}
}

// collectGoRuntimeMetrics collects Go runtime metrics
func collectGoRuntimeMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	goHeapAlloc.Set(float64(m.HeapAlloc))
	goGoroutines.Set(float64(runtime.NumGoroutine()))
}
