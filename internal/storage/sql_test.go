package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nurulfaradila/pcb-defect-detection/internal/core"
)

func newSQLiteStore(t *testing.T) *SQLJobStore {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "jobs.db")
	store, err := NewSQLJobStore("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLJobStoreContract(t *testing.T) {
	runJobStoreContract(t, newSQLiteStore(t))
}

func TestSQLJobStoreList(t *testing.T) {
	runJobStoreListContract(t, newSQLiteStore(t))
}

func TestSQLJobStoreResultRoundTrip(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	job := newTestJob("job-roundtrip", time.Now().UTC())
	require.NoError(t, store.Create(ctx, job))

	result := &core.InspectionResult{Defects: []core.Detection{
		{Type: "scratch", Confidence: 0.99, BBox: [4]float64{10, 10, 50, 50}},
		{Type: "mouse_bite", Confidence: 0.42, BBox: [4]float64{100, 20, 130, 44}},
	}}
	require.NoError(t, store.UpdateResult(ctx, job.ID, core.JobStatusSuccess, result, ""))

	got, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, result, got.Result)
}

// Postgres is exercised with the same contract when a DSN is provided,
// e.g. PCB_TEST_POSTGRES_DSN=postgres://localhost:5432/pcb_test?sslmode=disable
func TestPostgresJobStoreIntegration(t *testing.T) {
	dsn := os.Getenv("PCB_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PCB_TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	store, err := NewSQLJobStore("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, err = store.db.Exec(`DELETE FROM jobs`)
	require.NoError(t, err)

	runJobStoreContract(t, store)
	runJobStoreListContract(t, store)
}
