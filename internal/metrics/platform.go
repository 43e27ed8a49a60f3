package metrics

import (
	"context"
	"os"
	"runtime"
	"time"

	gpprocess "github.com/shirou/gopsutil/v4/process"
	"github.com/prometheus/client_golang/prometheus"
)

// ProcessMetrics is the platform probe's per-PID sample,
// surfaced as the optional `metrics` field of GET /api/processes/:id.
type ProcessMetrics struct {
	PID           int32   `json:"pid"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryRSSByte uint64  `json:"memory_rss_bytes"`
	MemoryVMSByte uint64  `json:"memory_vms_bytes"`
	NumThreads    int32   `json:"num_threads"`
	NumFDs        int32   `json:"num_fds,omitempty"`
}

// Sample queries the live OS process for pid via gopsutil. A process that
// has already exited (or never existed) yields an error the caller should
// treat as "no metrics available" rather than a hard failure.
func Sample(ctx context.Context, pid int32) (ProcessMetrics, error) {
	p, err := gpprocess.NewProcessWithContext(ctx, pid)
	if err != nil {
		return ProcessMetrics{}, err
	}
	cpuPct, _ := p.CPUPercentWithContext(ctx)
	memInfo, _ := p.MemoryInfoWithContext(ctx)
	threads, _ := p.NumThreadsWithContext(ctx)
	fds, _ := p.NumFDsWithContext(ctx)

	m := ProcessMetrics{PID: pid, CPUPercent: cpuPct, NumThreads: threads, NumFDs: fds}
	if memInfo != nil {
		m.MemoryRSSByte = memInfo.RSS
		m.MemoryVMSByte = memInfo.VMS
	}
	return m, nil
}

// PlatformInfo is GET /api/platform's body: OS family and hostname.
type PlatformInfo struct {
	OS       string `json:"os"`
	Hostname string `json:"hostname"`
}

func CurrentPlatform() PlatformInfo {
	host, _ := os.Hostname()
	return PlatformInfo{OS: runtime.GOOS, Hostname: host}
}

// resourceCPU/resourceMemory are optional gauges an operator can scrape
// alongside the lifecycle counters; they are populated by whatever calls
// Sample and chooses to publish it (the HTTP handler does not, to keep
// each /api/processes/:id call cheap; these are for a background poller.
var (
	resourceCPU = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: "nurvus", Subsystem: "process", Name: "cpu_percent", Help: "Sampled CPU percent."},
		[]string{"id"},
	)
	resourceRSS = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: "nurvus", Subsystem: "process", Name: "memory_rss_bytes", Help: "Sampled resident set size."},
		[]string{"id"},
	)
)

func init() {
	_ = prometheus.Register(resourceCPU)
	_ = prometheus.Register(resourceRSS)
}

// PublishResourceSample records a platform-probe sample for id under the
// regular Prometheus registry.
func PublishResourceSample(id string, m ProcessMetrics) {
	resourceCPU.WithLabelValues(id).Set(m.CPUPercent)
	resourceRSS.WithLabelValues(id).Set(float64(m.MemoryRSSByte))
}

// PollInterval is how often a background poller (see cmd/nurvus) refreshes
// the resource gauges for running processes.
const PollInterval = 10 * time.Second
