package main

import (
	"context"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearchart/abstraction-cli/internal/oracle"
	"github.com/clearchart/abstraction-cli/internal/pipeline"
)

// recordingRun collects the patient IDs it was invoked with.
type recordingRun struct {
	mu   sync.Mutex
	seen []string
	errs map[string]error
}

func (r *recordingRun) run(_ context.Context, patientID string) (*pipeline.Result, error) {
	r.mu.Lock()
	r.seen = append(r.seen, patientID)
	r.mu.Unlock()
	if err := r.errs[patientID]; err != nil {
		return nil, err
	}
	return &pipeline.Result{Resolved: 1}, nil
}

func TestProcessBatch_RunsAllPatients(t *testing.T) {
	rec := &recordingRun{}
	err := processBatch(context.Background(), []string{"pt-1", "pt-2", "pt-3"}, 0, 2, rec.run)
	require.NoError(t, err)
	assert.Len(t, rec.seen, 3)
}

func TestProcessBatch_AppliesLimit(t *testing.T) {
	rec := &recordingRun{}
	err := processBatch(context.Background(), []string{"pt-1", "pt-2", "pt-3"}, 2, 1, rec.run)
	require.NoError(t, err)
	assert.Len(t, rec.seen, 2)
}

func TestProcessBatch_IndividualFailureDoesNotAbort(t *testing.T) {
	rec := &recordingRun{errs: map[string]error{"pt-2": eris.New("timeline missing")}}
	err := processBatch(context.Background(), []string{"pt-1", "pt-2", "pt-3"}, 0, 1, rec.run)
	require.NoError(t, err)
	assert.Len(t, rec.seen, 3)
}

func TestProcessBatch_OracleOutageAborts(t *testing.T) {
	rec := &recordingRun{errs: map[string]error{
		"pt-1": eris.Wrap(oracle.ErrUnavailable, "run degraded"),
	}}
	err := processBatch(context.Background(), []string{"pt-1", "pt-2", "pt-3"}, 0, 1, rec.run)
	require.Error(t, err)
	assert.ErrorIs(t, err, oracle.ErrUnavailable)
	// Sequential with concurrency 1: the outage on the first patient
	// stops the remaining ones from being scheduled.
	assert.Less(t, len(rec.seen), 3)
}

func TestProcessBatch_NoPatients(t *testing.T) {
	rec := &recordingRun{}
	require.NoError(t, processBatch(context.Background(), nil, 0, 4, rec.run))
	assert.Empty(t, rec.seen)
}
