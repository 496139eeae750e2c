package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

var (
	// API 请求计数器
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ehrm_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	// API 请求响应时间
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ehrm_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 审批节点决策数
	approvalDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ehrm_approval_decisions_total",
			Help: "Total number of approval slot decisions",
		},
		[]string{"kind", "decision"},
	)

	// 申请状态流转数
	submissionTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ehrm_submission_transitions_total",
			Help: "Total number of submission status transitions",
		},
		[]string{"kind", "from", "to"},
	)

	// 排班台账调整数
	shiftAdjustmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ehrm_shift_adjustments_total",
			Help: "Total number of shift ledger adjustments",
		},
		[]string{"action"}, // noop, update, create
	)

	// 额度不足导致的审批失败数
	quotaConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ehrm_quota_conflicts_total",
			Help: "Total number of approvals blocked by insufficient leave quota",
		},
	)

	// 通知投递结果
	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ehrm_notifications_total",
			Help: "Total number of notification deliveries",
		},
		[]string{"sink", "result"}, // result: ok, error, dropped
	)

	// 数据库连接数
	databaseConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ehrm_database_connections_active",
			Help: "Number of active database connections",
		},
	)

	databaseConnectionsIdle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ehrm_database_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

func init() {
	prometheus.MustRegister(
		apiRequestsTotal,
		apiRequestDuration,
		approvalDecisionsTotal,
		submissionTransitionsTotal,
		shiftAdjustmentsTotal,
		quotaConflictsTotal,
		notificationsTotal,
		databaseConnectionsActive,
		databaseConnectionsIdle,
	)
}

// Handler 返回 Prometheus 指标处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest 记录 API 请求
func RecordAPIRequest(method, path string, status int, duration float64) {
	apiRequestsTotal.WithLabelValues(method, path, fmt.Sprintf("%d", status)).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordDecision 记录审批节点决策
func RecordDecision(kind, decision string) {
	approvalDecisionsTotal.WithLabelValues(kind, decision).Inc()
}

// RecordTransition 记录申请状态流转
func RecordTransition(kind, from, to string) {
	submissionTransitionsTotal.WithLabelValues(kind, from, to).Inc()
}

// RecordShiftAdjustment 记录排班台账调整
func RecordShiftAdjustment(action string) {
	shiftAdjustmentsTotal.WithLabelValues(action).Inc()
}

// RecordQuotaConflict 记录额度不足
func RecordQuotaConflict() {
	quotaConflictsTotal.Inc()
}

// RecordNotification 记录通知投递结果
func RecordNotification(sink, result string) {
	notificationsTotal.WithLabelValues(sink, result).Inc()
}

// UpdateDatabaseConnections 更新数据库连接数指标
func UpdateDatabaseConnections(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	stats := sqlDB.Stats()
	databaseConnectionsActive.Set(float64(stats.InUse))
	databaseConnectionsIdle.Set(float64(stats.Idle))

	return nil
}
