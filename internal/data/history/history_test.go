package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveRunAssignsIDAndDefaults(t *testing.T) {
	store := openTestStore(t)

	id, err := store.SaveRun(RunRecord{FileCount: 3, HealthScore: 92})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	runs, err := store.LoadRuns("", time.Time{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].RunID)
	assert.Equal(t, "default", runs[0].ProjectKey)
	assert.False(t, runs[0].Timestamp.IsZero())
	assert.Equal(t, 92, runs[0].HealthScore)
}

func TestLoadRunsOrderedAndFiltered(t *testing.T) {
	store := openTestStore(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i, score := range []int{80, 85, 90} {
		_, err := store.SaveRun(RunRecord{
			ProjectKey:  "crm",
			Timestamp:   base.Add(time.Duration(i) * time.Hour),
			HealthScore: score,
		})
		require.NoError(t, err)
	}

	runs, err := store.LoadRuns("crm", time.Time{})
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, 80, runs[0].HealthScore)
	assert.Equal(t, 90, runs[2].HealthScore)

	recent, err := store.LoadRuns("crm", base.Add(90*time.Minute))
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, 90, recent[0].HealthScore)

	other, err := store.LoadRuns("unknown", time.Time{})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRunRecordRoundTrip(t *testing.T) {
	store := openTestStore(t)
	rec := RunRecord{
		RunID:         "fixed-id",
		ProjectKey:    "crm",
		Timestamp:     time.Date(2026, 8, 25, 9, 30, 0, 0, time.UTC),
		FileCount:     12,
		FunctionCount: 88,
		IssueCount:    7,
		CriticalCount: 1,
		HighCount:     2,
		MediumCount:   1,
		LowCount:      2,
		InfoCount:     1,
		HealthScore:   63,
		Duration:      1500 * time.Millisecond,
	}

	_, err := store.SaveRun(rec)
	require.NoError(t, err)

	runs, err := store.LoadRuns("crm", time.Time{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, rec, runs[0])
}
