package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/services"
)

func TestValidateCronSchedule(t *testing.T) {
	assert.NoError(t, ValidateCronSchedule("30 3 * * *"))
	assert.NoError(t, ValidateCronSchedule("*/15 * * * *"))
	assert.Error(t, ValidateCronSchedule("not a schedule"))
	assert.Error(t, ValidateCronSchedule("0 0 0 * * *"), "six fields are not accepted")
}

func TestNextRunTime(t *testing.T) {
	from := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	next, err := NextRunTime("30 3 * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 2, 3, 30, 0, 0, time.UTC), next)
}

func TestScheduler_AddValidates(t *testing.T) {
	s := New()
	noop := func(context.Context) error { return nil }

	assert.Error(t, s.Add(Job{Name: "bad", Schedule: "nope", Run: noop}))
	assert.Error(t, s.Add(Job{Schedule: "* * * * *", Run: noop}))
	require.NoError(t, s.Add(Job{Name: "ok", Schedule: "* * * * *", Run: noop}))
	assert.Error(t, s.Add(Job{Name: "ok", Schedule: "* * * * *", Run: noop}), "duplicate names are rejected")
}

func TestScheduler_RunNowAndLifecycle(t *testing.T) {
	s := New()
	runs := 0
	require.NoError(t, s.Add(Job{Name: "count", Schedule: "0 0 1 1 *", Run: func(context.Context) error {
		runs++
		return nil
	}}))

	require.NoError(t, s.RunNow("count"))
	assert.Equal(t, 1, runs)
	assert.Error(t, s.RunNow("missing"))

	assert.Nil(t, s.NextRun("count"))

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	assert.True(t, s.IsRunning())
	next := s.NextRun("count")
	require.NotNil(t, next)
	assert.True(t, next.After(time.Now()))

	cancel()
	require.Eventually(t, func() bool { return !s.IsRunning() }, time.Second, 10*time.Millisecond)
	s.Stop()
}

type fakeRatings struct {
	enqueued []uint
	inline   int
	report   services.RatingsReport
}

func (f *fakeRatings) EnqueueRatingsRecalculation(_ context.Context, by uint) error {
	f.enqueued = append(f.enqueued, by)
	return nil
}

func (f *fakeRatings) RecalculateRatings(context.Context) (services.RatingsReport, error) {
	f.inline++
	return f.report, nil
}

func TestRatingsReconcileJob(t *testing.T) {
	ctx := context.Background()

	queued := &fakeRatings{}
	require.NoError(t, RatingsReconcileJob("30 3 * * *", queued, queued).Run(ctx))
	assert.Equal(t, []uint{0}, queued.enqueued)
	assert.Zero(t, queued.inline)

	inline := &fakeRatings{report: services.RatingsReport{BooksProcessed: 2}}
	require.NoError(t, RatingsReconcileJob("30 3 * * *", nil, inline).Run(ctx))
	assert.Equal(t, 1, inline.inline)

	partial := &fakeRatings{report: services.RatingsReport{BooksProcessed: 2, BooksFailed: 1}}
	assert.Error(t, RatingsReconcileJob("30 3 * * *", nil, partial).Run(ctx))

	assert.Error(t, RatingsReconcileJob("30 3 * * *", nil, nil).Run(ctx))
}

type fakeAudit struct {
	retention time.Duration
	days      int
	err       error
}

func (f *fakeAudit) DeleteOldEvents(_ context.Context, retention time.Duration) (int64, error) {
	f.retention = retention
	return 0, f.err
}

func (f *fakeAudit) EnqueueAuditCleanup(_ context.Context, days int) error {
	f.days = days
	return nil
}

func TestAuditCleanupJob(t *testing.T) {
	ctx := context.Background()

	inline := &fakeAudit{}
	require.NoError(t, AuditCleanupJob(DefaultAuditCleanupSchedule, 30, nil, inline).Run(ctx))
	assert.Equal(t, 30*24*time.Hour, inline.retention)

	queued := &fakeAudit{}
	require.NoError(t, AuditCleanupJob(DefaultAuditCleanupSchedule, 14, queued, nil).Run(ctx))
	assert.Equal(t, 14, queued.days)

	failing := &fakeAudit{err: errors.New("db down")}
	assert.Error(t, AuditCleanupJob(DefaultAuditCleanupSchedule, 30, nil, failing).Run(ctx))
}
