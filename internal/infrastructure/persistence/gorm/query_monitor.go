package gorm

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const monitorStartKey = "query_monitor:start"

// QueryStats holds aggregated query statistics
type QueryStats struct {
	TotalQueries     int64         `json:"total_queries"`
	SlowQueries      int64         `json:"slow_queries"`
	FailedQueries    int64         `json:"failed_queries"`
	AverageQueryTime time.Duration `json:"average_query_time"`
	TotalQueryTime   time.Duration `json:"total_query_time"`
}

// SlowQuery is one statement that crossed the slow threshold
type SlowQuery struct {
	SQL       string        `json:"sql"`
	Table     string        `json:"table"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
	Error     string        `json:"error,omitempty"`
}

// QueryMonitor times every GORM statement through callbacks, exports the
// durations to Prometheus and keeps the most recent slow queries.
type QueryMonitor struct {
	logger      *zap.Logger
	threshold   time.Duration
	duration    *prometheus.HistogramVec
	mu          sync.RWMutex
	stats       QueryStats
	slowQueries []SlowQuery
	maxSlowLogs int
}

// NewQueryMonitor creates a monitor and registers its collector on reg
func NewQueryMonitor(reg prometheus.Registerer, threshold time.Duration, logger *zap.Logger) (*QueryMonitor, error) {
	if threshold <= 0 {
		threshold = 100 * time.Millisecond
	}
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kitchen",
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Duration of database statements by operation, table and status",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation", "table", "status"},
	)
	if reg != nil {
		if err := reg.Register(duration); err != nil {
			return nil, err
		}
	}
	return &QueryMonitor{
		logger:      logger.Named("query-monitor"),
		threshold:   threshold,
		duration:    duration,
		maxSlowLogs: 200,
	}, nil
}

// Install registers before/after callbacks on every GORM processor
func (qm *QueryMonitor) Install(db *gorm.DB) error {
	cb := db.Callback()
	registrations := []error{
		cb.Create().Before("gorm:create").Register("monitor:before_create", qm.before),
		cb.Create().After("gorm:create").Register("monitor:after_create", qm.after("create")),
		cb.Query().Before("gorm:query").Register("monitor:before_query", qm.before),
		cb.Query().After("gorm:query").Register("monitor:after_query", qm.after("query")),
		cb.Update().Before("gorm:update").Register("monitor:before_update", qm.before),
		cb.Update().After("gorm:update").Register("monitor:after_update", qm.after("update")),
		cb.Delete().Before("gorm:delete").Register("monitor:before_delete", qm.before),
		cb.Delete().After("gorm:delete").Register("monitor:after_delete", qm.after("delete")),
		cb.Row().Before("gorm:row").Register("monitor:before_row", qm.before),
		cb.Row().After("gorm:row").Register("monitor:after_row", qm.after("row")),
		cb.Raw().Before("gorm:raw").Register("monitor:before_raw", qm.before),
		cb.Raw().After("gorm:raw").Register("monitor:after_raw", qm.after("raw")),
	}
	for _, err := range registrations {
		if err != nil {
			return err
		}
	}
	return nil
}

func (qm *QueryMonitor) before(db *gorm.DB) {
	db.InstanceSet(monitorStartKey, time.Now())
}

func (qm *QueryMonitor) after(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(monitorStartKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}

		table, sql := "", ""
		if db.Statement != nil {
			table = db.Statement.Table
			sql = db.Statement.SQL.String()
		}
		qm.record(op, table, sql, time.Since(start), db.Error)
	}
}

func (qm *QueryMonitor) record(op, table, sql string, d time.Duration, err error) {
	status := "ok"
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		status = "error"
	}
	qm.duration.WithLabelValues(op, table, status).Observe(d.Seconds())

	qm.mu.Lock()
	defer qm.mu.Unlock()

	qm.stats.TotalQueries++
	qm.stats.TotalQueryTime += d
	qm.stats.AverageQueryTime = qm.stats.TotalQueryTime / time.Duration(qm.stats.TotalQueries)
	if status == "error" {
		qm.stats.FailedQueries++
	}
	if d < qm.threshold {
		return
	}

	qm.stats.SlowQueries++
	slow := SlowQuery{
		SQL:       sanitizeSQL(sql),
		Table:     table,
		Duration:  d,
		Timestamp: time.Now(),
	}
	if err != nil {
		slow.Error = err.Error()
	}
	if len(qm.slowQueries) >= qm.maxSlowLogs {
		qm.slowQueries = qm.slowQueries[1:]
	}
	qm.slowQueries = append(qm.slowQueries, slow)

	qm.logger.Warn("Slow query detected",
		zap.String("operation", op),
		zap.String("table", table),
		zap.Duration("duration", d),
		zap.String("sql", slow.SQL),
	)
}

// Stats returns current query statistics
func (qm *QueryMonitor) Stats() QueryStats {
	qm.mu.RLock()
	defer qm.mu.RUnlock()
	return qm.stats
}

// SlowQueries returns up to limit of the most recent slow queries
func (qm *QueryMonitor) SlowQueries(limit int) []SlowQuery {
	qm.mu.RLock()
	defer qm.mu.RUnlock()

	if limit <= 0 || limit > len(qm.slowQueries) {
		limit = len(qm.slowQueries)
	}
	out := make([]SlowQuery, limit)
	copy(out, qm.slowQueries[len(qm.slowQueries)-limit:])
	return out
}

// sanitizeSQL strips literal values and caps the length for logging
func sanitizeSQL(sql string) string {
	sanitized := strings.ReplaceAll(sql, "'", "?")
	if len(sanitized) > 500 {
		sanitized = sanitized[:500] + "..."
	}
	return sanitized
}
