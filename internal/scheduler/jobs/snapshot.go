package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/sectorpulse/internal/contracts"
	"github.com/wonny/sectorpulse/pkg/logger"
)

// DefaultSnapshotSchedule fires one minute after the 09:45 cutoff on weekdays
const DefaultSnapshotSchedule = "0 46 9 * * 1-5"

// SessionTargeter resolves the session to analyse
type SessionTargeter interface {
	Target(ctx context.Context, userDate *time.Time) (contracts.TradingSession, error)
}

// SnapshotJob ranks the basket right after the cutoff and logs the result
// ⭐ SSOT: scheduled ranking snapshot
type SnapshotJob struct {
	clock    SessionTargeter
	ranker   contracts.Ranker
	tickers  []string
	bottomK  int
	schedule string
	logger   *logger.Logger

	mu   sync.RWMutex
	last *contracts.RankedResult
}

// SnapshotConfig holds snapshot job settings
type SnapshotConfig struct {
	Tickers  []string
	BottomK  int
	Schedule string
}

// NewSnapshotJob creates a new snapshot job
func NewSnapshotJob(clock SessionTargeter, ranker contracts.Ranker, cfg SnapshotConfig, log *logger.Logger) *SnapshotJob {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSnapshotSchedule
	}
	return &SnapshotJob{
		clock:    clock,
		ranker:   ranker,
		tickers:  cfg.Tickers,
		bottomK:  cfg.BottomK,
		schedule: cfg.Schedule,
		logger:   log.WithModule("snapshot_job"),
	}
}

// Name returns the job name
func (j *SnapshotJob) Name() string {
	return "sector_snapshot"
}

// Schedule returns the cron schedule (exchange zone, seconds first)
func (j *SnapshotJob) Schedule() string {
	return j.schedule
}

// Run resolves today's session, ranks the basket and logs every row
func (j *SnapshotJob) Run(ctx context.Context) error {
	session, err := j.clock.Target(ctx, nil)
	if err != nil {
		return fmt.Errorf("resolve session: %w", err)
	}

	result, err := j.ranker.Rank(ctx, j.tickers, session, j.bottomK)
	if err != nil {
		return fmt.Errorf("rank %s: %w", session.DateString(), err)
	}

	for _, row := range result.Rows {
		log := j.logger.WithTicker(row.Ticker)
		fields := map[string]interface{}{"date": result.Date}
		if row.OK() {
			fields["strength_score"] = row.StrengthScore
			fields["color"] = string(row.Color)
			fields["total_day_move_pct"] = row.TotalDayMovePct
			fields["volume_score"] = row.VolumeScore
			log.WithFields(fields).Info("Sector scored")
			continue
		}
		fields["error"] = string(row.Error)
		fields["reason"] = row.Reason
		log.WithFields(fields).Warn("Sector not scored")
	}

	j.logger.WithFields(map[string]interface{}{
		"date":   result.Date,
		"bottom": result.Bottom,
		"scored": len(result.Succeeded()),
		"rows":   len(result.Rows),
	}).Info("Sector snapshot completed")

	j.mu.Lock()
	j.last = result
	j.mu.Unlock()

	return nil
}

// Last returns the most recent successful snapshot, nil before the first run
func (j *SnapshotJob) Last() *contracts.RankedResult {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.last
}
