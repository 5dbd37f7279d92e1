// Package queue implements the resilient work-queue service shared by every
// queue table (ask, summary, truth, message, question generation). One
// Service instance is parameterized by Config and operates over
// model.QueueRow regardless of which physical table backs it.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/chatcortex/internal/domain/model"
	"github.com/yungbote/chatcortex/internal/platform/logger"
)

// Config parameterizes one queue instance.
type Config struct {
	Table           string
	QueueName       string
	MaxAttempts     int
	BaseRetryDelay  time.Duration
	MaxRetryDelay   time.Duration
	LeaseTimeout    time.Duration
}

// Stats is the dashboard read-model (spec.md §6 dashboard_stats, §C of
// SPEC_FULL.md).
type Stats struct {
	QueueName        string        `json:"queue_name"`
	Pending          int64         `json:"pending"`
	Leased           int64         `json:"leased"`
	Dead             int64         `json:"dead"`
	CompletedLastDay int64         `json:"completed_last_day"`
	AvgWaitMillis    int64         `json:"avg_wait_millis"`
	AvgProcMillis    int64         `json:"avg_proc_millis"`
}

// Service implements pick/complete/fail/recover_stale/pending_count/
// dashboard_stats/cleanup over one queue table, grounded on the teacher's
// job-claim worker loop (formerly internal/jobs/worker/worker.go, now
// rebuilt here as a pure storage-layer primitive the workers in
// internal/worker call into).
type Service struct {
	db  *gorm.DB
	cfg Config
	log *logger.Logger
}

func New(db *gorm.DB, cfg Config, log *logger.Logger) *Service {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.BaseRetryDelay <= 0 {
		cfg.BaseRetryDelay = time.Second
	}
	if cfg.MaxRetryDelay <= 0 {
		cfg.MaxRetryDelay = 5 * time.Minute
	}
	if cfg.LeaseTimeout <= 0 {
		cfg.LeaseTimeout = 5 * time.Minute
	}
	return &Service{db: db, cfg: cfg, log: log.With("queue", cfg.QueueName)}
}

// Pick atomically claims one ready row: earliest next_run_at, row-level
// lock via FOR UPDATE SKIP LOCKED so concurrent workers never contend on
// the same row. Returns (nil, nil) when the queue is empty.
func (s *Service) Pick(ctx context.Context) (*model.QueueRow, error) {
	var row model.QueueRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		leaseCutoff := now.Add(-s.cfg.LeaseTimeout)
		err := tx.Table(s.cfg.Table).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("processed = false AND next_run_at <= ? AND (picked_at IS NULL OR picked_at < ?) AND attempt_count < ?", now, leaseCutoff, s.cfg.MaxAttempts).
			Order("next_run_at ASC").
			Limit(1).
			Take(&row).Error
		if err != nil {
			return err
		}
		return tx.Table(s.cfg.Table).Where("id = ?", row.ID).Updates(map[string]any{
			"picked_at":     now,
			"started_at":    now,
			"attempt_count": row.AttemptCount + 1,
		}).Error
	})
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		s.log.Error("pick failed", "error", err)
		return nil, nil
	}
	row.AttemptCount++
	return &row, nil
}

// Complete marks a row processed and clears lease/error state.
func (s *Service) Complete(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Table(s.cfg.Table).Where("id = ?", id).Updates(map[string]any{
		"processed":    true,
		"picked_at":    nil,
		"completed_at": now,
		"last_error":   "",
	}).Error
}

// Fail handles a handler error: dead-letters on final attempt, otherwise
// schedules a retry at now + backoff(attempts) with +/-20% jitter.
func (s *Service) Fail(ctx context.Context, id int64, attempts int, cause error) error {
	errText := ""
	if cause != nil {
		errText = cause.Error()
	}
	if attempts >= s.cfg.MaxAttempts {
		return s.db.WithContext(ctx).Table(s.cfg.Table).Where("id = ?", id).Updates(map[string]any{
			"processed":  true,
			"picked_at":  nil,
			"last_error": "[DEAD] " + errText,
		}).Error
	}
	delay := backoff(attempts, s.cfg.BaseRetryDelay, s.cfg.MaxRetryDelay)
	return s.db.WithContext(ctx).Table(s.cfg.Table).Where("id = ?", id).Updates(map[string]any{
		"picked_at":    nil,
		"next_run_at":  time.Now().UTC().Add(delay),
		"last_error":   errText,
	}).Error
}

func backoff(attempts int, base, max time.Duration) time.Duration {
	mult := 1 << uint(attempts-1)
	d := base * time.Duration(mult)
	if d > max || d <= 0 {
		d = max
	}
	jitter := 1 + (rand.Float64()*0.4 - 0.2)
	return time.Duration(float64(d) * jitter)
}

// RecoverStale performs the two-sweep lease recovery: rows leased past
// LeaseTimeout with attempts remaining go back to ready with an "[STALE]"
// marker; rows leased past LeaseTimeout on their final attempt are
// dead-lettered.
func (s *Service) RecoverStale(ctx context.Context) (recovered int64, deadLettered int64, err error) {
	cutoff := time.Now().UTC().Add(-s.cfg.LeaseTimeout)

	tx1 := s.db.WithContext(ctx).Table(s.cfg.Table).
		Where("processed = false AND picked_at IS NOT NULL AND picked_at < ? AND attempt_count < ?", cutoff, s.cfg.MaxAttempts).
		Updates(map[string]any{
			"picked_at":   nil,
			"next_run_at": time.Now().UTC(),
			"last_error":  gorm.Expr("coalesce(last_error, '') || ' [STALE]'"),
		})
	if tx1.Error != nil {
		return 0, 0, tx1.Error
	}

	tx2 := s.db.WithContext(ctx).Table(s.cfg.Table).
		Where("processed = false AND picked_at IS NOT NULL AND picked_at < ? AND attempt_count >= ?", cutoff, s.cfg.MaxAttempts).
		Updates(map[string]any{
			"processed":  true,
			"picked_at":  nil,
			"last_error": "[DEAD] crashed on final attempt",
		})
	if tx2.Error != nil {
		return tx1.RowsAffected, 0, tx2.Error
	}
	return tx1.RowsAffected, tx2.RowsAffected, nil
}

// PendingCount excludes currently-leased rows.
func (s *Service) PendingCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Table(s.cfg.Table).
		Where("processed = false AND picked_at IS NULL").
		Count(&n).Error
	return n, err
}

// DashboardStats summarizes queue health for the optional dashboard
// broadcaster.
func (s *Service) DashboardStats(ctx context.Context) (Stats, error) {
	stats := Stats{QueueName: s.cfg.QueueName}

	// gorm accumulates Where predicates on a reused instance, so each count
	// gets its own query builder.
	table := func() *gorm.DB { return s.db.WithContext(ctx).Table(s.cfg.Table) }

	if err := table().Where("processed = false AND picked_at IS NULL").Count(&stats.Pending).Error; err != nil {
		return stats, err
	}
	if err := table().Where("processed = false AND picked_at IS NOT NULL").Count(&stats.Leased).Error; err != nil {
		return stats, err
	}
	if err := table().Where("processed = true AND last_error LIKE '[DEAD]%'").Count(&stats.Dead).Error; err != nil {
		return stats, err
	}
	since := time.Now().UTC().Add(-24 * time.Hour)
	if err := table().Where("processed = true AND completed_at >= ? AND (last_error IS NULL OR last_error = '')", since).Count(&stats.CompletedLastDay).Error; err != nil {
		return stats, err
	}

	var avgs struct {
		AvgWaitMs float64
		AvgProcMs float64
	}
	_ = table().Select(
		"coalesce(avg(extract(epoch from (started_at - created_at)) * 1000), 0) AS avg_wait_ms, "+
			"coalesce(avg(extract(epoch from (completed_at - started_at)) * 1000), 0) AS avg_proc_ms",
	).Where("processed = true AND completed_at >= ?", since).Scan(&avgs).Error
	stats.AvgWaitMillis = int64(avgs.AvgWaitMs)
	stats.AvgProcMillis = int64(avgs.AvgProcMs)
	return stats, nil
}

// Cleanup deletes old, fully resolved rows (completed, non-dead) past
// retention, keeping the queue tables from growing unbounded.
func (s *Service) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	tx := s.db.WithContext(ctx).Table(s.cfg.Table).
		Where("processed = true AND completed_at < ? AND (last_error IS NULL OR last_error NOT LIKE '[DEAD]%')", cutoff).
		Delete(&model.QueueRow{})
	return tx.RowsAffected, tx.Error
}

// Enqueue inserts a new row with payload p and NOTIFYs the queue's channel
// with the new row id as a decimal string (spec.md §6), returning the id.
func (s *Service) Enqueue(ctx context.Context, payload any) (int64, error) {
	raw, err := marshalPayload(payload)
	if err != nil {
		return 0, err
	}
	row := model.QueueRow{
		Payload:     raw,
		CreatedAt:   time.Now().UTC(),
		NextRunAt:   time.Now().UTC(),
		Processed:   false,
		AttemptCount: 0,
	}
	if err := s.db.WithContext(ctx).Table(s.cfg.Table).Create(&row).Error; err != nil {
		return 0, err
	}
	if err := s.db.WithContext(ctx).Exec(fmt.Sprintf("SELECT pg_notify('%s', ?)", s.Channel()), fmt.Sprint(row.ID)).Error; err != nil {
		s.log.Warn("notify after enqueue failed", "id", row.ID, "error", err)
	}
	return row.ID, nil
}

func marshalPayload(p any) (datatypes.JSON, error) {
	raw, err := json.Marshal(p)
	return datatypes.JSON(raw), err
}

// Channel is the NOTIFY channel name for this queue (spec.md §6: "<queue>_channel").
func (s *Service) Channel() string {
	return fmt.Sprintf("%s_channel", s.cfg.QueueName)
}
