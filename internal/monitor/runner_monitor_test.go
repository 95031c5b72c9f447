package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volaticloud/internal/ent"
	"volaticloud/internal/ent/enttest"
	"volaticloud/internal/enum"
)

func TestDefaultDataDownloadTimeout(t *testing.T) {
	assert.Equal(t, 12*time.Hour, DefaultDataDownloadTimeout)
}

func TestRunnerMonitorDefaultTimeout(t *testing.T) {
	// NewRunnerMonitor should initialize with default timeout
	rm := NewRunnerMonitor(nil, nil)
	assert.Equal(t, DefaultDataDownloadTimeout, rm.GetDataDownloadTimeout())
}

func TestRunnerMonitorSetDataDownloadTimeout(t *testing.T) {
	rm := NewRunnerMonitor(nil, nil)

	// Set custom timeout
	customTimeout := 24 * time.Hour
	rm.SetDataDownloadTimeout(customTimeout)

	assert.Equal(t, customTimeout, rm.GetDataDownloadTimeout())
}

func TestRunnerMonitorDefaultInterval(t *testing.T) {
	assert.Equal(t, 5*time.Minute, DefaultRunnerMonitorInterval)
}

func TestDataRefreshInterval(t *testing.T) {
	assert.Equal(t, 24*time.Hour, DataRefreshInterval)
}

func newDownloadingRunner(t *testing.T, client *ent.Client, ctx context.Context, startedAt time.Time) *ent.BotRunner {
	t.Helper()
	r, err := client.BotRunner.Create().
		SetID(uuid.New()).
		SetName("stuck-runner").
		SetOwnerID("org-stuck").
		SetType(enum.RunnerDocker).
		SetDataDownloadStatus(enum.DataDownloadStatusDownloading).
		SetDataDownloadStartedAt(startedAt).
		SetDataDownloadProgress(map[string]interface{}{
			"pairs_completed":  1,
			"pairs_total":      4,
			"current_pair":     "BTC/USDT",
			"percent_complete": 25.0,
		}).
		Save(ctx)
	require.NoError(t, err)
	return r
}

// A runner stuck past the hard timeout transitions to failed, with
// data_is_ready cleared, an error message recorded, and
// data_download_started_at cleared so it isn't mistaken for an
// in-progress download on the next check.
func TestCheckStuckDownloadHardTimeout(t *testing.T) {
	client := enttest.Open(t, "sqlite3", "file:runner_monitor_hard_timeout?mode=memory&cache=shared&_fk=1")
	defer client.Close()
	ctx := context.Background()

	startedAt := time.Now().Add(-2 * time.Hour)
	r := newDownloadingRunner(t, client, ctx, startedAt)

	rm := NewRunnerMonitor(client, nil)
	rm.SetDataDownloadTimeout(1 * time.Hour)

	rm.checkStuckDownload(ctx, r)

	updated, err := client.BotRunner.Get(ctx, r.ID)
	require.NoError(t, err)

	assert.Equal(t, enum.DataDownloadStatusFailed, updated.DataDownloadStatus)
	assert.False(t, updated.DataIsReady)
	assert.NotEmpty(t, updated.DataErrorMessage)
	assert.Nil(t, updated.DataDownloadStartedAt, "data_download_started_at must be cleared after a stuck download is marked failed")
}

// A runner whose reported progress hasn't moved for longer than
// StuckDownloadNoProgressTimeout is marked failed even though it is
// still well within the hard timeout.
func TestCheckStuckDownloadNoProgress(t *testing.T) {
	client := enttest.Open(t, "sqlite3", "file:runner_monitor_no_progress?mode=memory&cache=shared&_fk=1")
	defer client.Close()
	ctx := context.Background()

	r := newDownloadingRunner(t, client, ctx, time.Now().Add(-10*time.Minute))

	rm := NewRunnerMonitor(client, nil)

	// Seed the progress tracker as if an earlier check already observed
	// this same percentage longer ago than the stall timeout allows.
	rm.progress[r.ID.String()] = progressSnapshot{
		percent:    25.0,
		observedAt: time.Now().Add(-StuckDownloadNoProgressTimeout - time.Minute),
	}

	rm.checkStuckDownload(ctx, r)

	updated, err := client.BotRunner.Get(ctx, r.ID)
	require.NoError(t, err)

	assert.Equal(t, enum.DataDownloadStatusFailed, updated.DataDownloadStatus)
	assert.False(t, updated.DataIsReady)
	assert.NotEmpty(t, updated.DataErrorMessage)
	assert.Nil(t, updated.DataDownloadStartedAt)
}

// A runner still reporting fresh progress within both timeouts is left
// alone: it stays in the downloading state and its tracked progress
// snapshot is recorded for the next comparison.
func TestCheckStuckDownloadStillProgressing(t *testing.T) {
	client := enttest.Open(t, "sqlite3", "file:runner_monitor_progressing?mode=memory&cache=shared&_fk=1")
	defer client.Close()
	ctx := context.Background()

	r := newDownloadingRunner(t, client, ctx, time.Now().Add(-10*time.Minute))

	rm := NewRunnerMonitor(client, nil)
	rm.checkStuckDownload(ctx, r)

	updated, err := client.BotRunner.Get(ctx, r.ID)
	require.NoError(t, err)

	assert.Equal(t, enum.DataDownloadStatusDownloading, updated.DataDownloadStatus)
	assert.Equal(t, 25.0, rm.progress[r.ID.String()].percent)
}
