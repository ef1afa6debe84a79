package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics tracks the permission sync reconciler: how far behind the
// optimistic toggles the persisted state runs.
type SyncMetrics struct {
	permissionSyncLag       *prometheus.HistogramVec
	permissionSyncBacklog   *prometheus.GaugeVec
	permissionSyncOldest    *prometheus.GaugeVec
	permissionSyncProcessed *prometheus.CounterVec
}

var (
	syncMetricsOnce sync.Once
	syncMetrics     *SyncMetrics
)

func Sync() *SyncMetrics {
	return SyncWithConfig(Config{})
}

func SyncWithConfig(cfg Config) *SyncMetrics {
	syncMetricsOnce.Do(func() {
		syncMetrics = newSyncMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return syncMetrics
}

func ResetSyncMetricsForTest() {
	syncMetricsOnce = sync.Once{}
	syncMetrics = nil
}

func newSyncMetrics(registerer prometheus.Registerer, cfg Config) *SyncMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "isp-core"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	permissionSyncLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "ispcore_permission_sync_lag_seconds",
			Help: "Lag between an optimistic permission toggle and its persisted sync.",
			Buckets: []float64{
				1,
				5,
				15,
				60,
				300,
				900,
				3600,
			},
			ConstLabels: constLabels,
		},
		[]string{"result"}, // synced | failed
	)

	permissionSyncBacklog := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:        "ispcore_permission_sync_backlog_total",
			Help:        "Number of permission toggles pending sync by status.",
			ConstLabels: constLabels,
		},
		[]string{"status"},
	)

	permissionSyncProcessed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "ispcore_permission_sync_processed_total",
			Help:        "Total permission sync rows processed.",
			ConstLabels: constLabels,
		},
		[]string{"result"}, // synced | failed | retried
	)

	permissionSyncOldest := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:        "ispcore_permission_sync_oldest_seconds",
			Help:        "Age of the oldest permission toggle awaiting sync.",
			ConstLabels: constLabels,
		},
		[]string{"status"},
	)

	registerer.MustRegister(
		permissionSyncLag,
		permissionSyncBacklog,
		permissionSyncProcessed,
		permissionSyncOldest,
	)

	return &SyncMetrics{
		permissionSyncLag:       permissionSyncLag,
		permissionSyncBacklog:   permissionSyncBacklog,
		permissionSyncProcessed: permissionSyncProcessed,
		permissionSyncOldest:    permissionSyncOldest,
	}
}

func (m *SyncMetrics) ObserveSyncLag(result string, lag time.Duration) {
	if m == nil {
		return
	}
	m.permissionSyncLag.WithLabelValues(result).Observe(lag.Seconds())
}

func (m *SyncMetrics) SetBacklog(status string, value int) {
	if m == nil {
		return
	}
	m.permissionSyncBacklog.WithLabelValues(status).Set(float64(value))
}

func (m *SyncMetrics) IncProcessed(result string) {
	if m == nil {
		return
	}
	m.permissionSyncProcessed.WithLabelValues(result).Inc()
}

func (m *SyncMetrics) SetOldest(status string, age time.Duration) {
	if m == nil {
		return
	}
	seconds := age.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.permissionSyncOldest.WithLabelValues(status).Set(seconds)
}
