package service

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/anab-disbursement-api/pkg/storage"
)

type failingSpool struct{}

func (failingSpool) Save(name string, data []byte) (string, error) {
	return "", errors.New("read-only file system")
}
func (failingSpool) Open(name string) (*os.File, error) { return nil, errors.New("unavailable") }
func (failingSpool) Delete(name string) error           { return nil }
func (failingSpool) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	return nil, nil
}

// interleavingSpool runs afterFirstSave between the first Save and the matching Open.
type interleavingSpool struct {
	*storage.LocalStorage
	afterFirstSave func()
}

func (s *interleavingSpool) Save(name string, data []byte) (string, error) {
	saved, err := s.LocalStorage.Save(name, data)
	if hook := s.afterFirstSave; hook != nil {
		s.afterFirstSave = nil
		hook()
	}
	return saved, err
}

func sampleRunResult() *RunResult {
	return &RunResult{
		RunID:    "run-1",
		FileName: "ANAB_DISB_20240315_093000.csv",
		Content:  []byte("TransactionRef,StudentID\nTRX2403150000,ANAB-0001\n"),
		Count:    1,
		Total:    500000,
	}
}

func TestBatchFileServiceDeliverRemovesSpoolCopy(t *testing.T) {
	dir := t.TempDir()
	spool, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	svc := NewBatchFileService(spool, nil, nil, time.Hour)

	var buf bytes.Buffer
	result := sampleRunResult()
	require.NoError(t, svc.Deliver(result, &buf))
	assert.Equal(t, string(result.Content), buf.String())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBatchFileServiceDeliverKeepsRunsWithSameFileNameApart(t *testing.T) {
	dir := t.TempDir()
	local, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	spool := &interleavingSpool{LocalStorage: local}
	svc := NewBatchFileService(spool, nil, nil, time.Hour)

	runA := &RunResult{
		RunID:    "run-a",
		FileName: "ANAB_DISB_20240315_093000.csv",
		Content:  []byte("header\nTRX2403150000,S-A,Alice,500000,BankA,111\n"),
	}
	runB := &RunResult{
		RunID:    "run-b",
		FileName: "ANAB_DISB_20240315_093000.csv",
		Content:  []byte("header\nTRX2403150000,S-B,Bob,750000,BankB,222\n"),
	}

	var bufA, bufB bytes.Buffer
	spool.afterFirstSave = func() {
		require.NoError(t, svc.Deliver(runB, &bufB))
	}
	require.NoError(t, svc.Deliver(runA, &bufA))

	assert.Equal(t, string(runA.Content), bufA.String())
	assert.Equal(t, string(runB.Content), bufB.String())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBatchFileServiceDeliverRequiresRunID(t *testing.T) {
	svc := NewBatchFileService(failingSpool{}, nil, nil, time.Hour)
	result := sampleRunResult()
	result.RunID = ""
	assert.Error(t, svc.Deliver(result, &bytes.Buffer{}))
}

func TestBatchFileServiceDeliverFallsBackToMemory(t *testing.T) {
	svc := NewBatchFileService(failingSpool{}, nil, nil, time.Hour)

	var buf bytes.Buffer
	result := sampleRunResult()
	require.NoError(t, svc.Deliver(result, &buf))
	assert.Equal(t, string(result.Content), buf.String())
}

func TestBatchFileServiceDeliverNilResult(t *testing.T) {
	svc := NewBatchFileService(failingSpool{}, nil, nil, time.Hour)
	assert.Error(t, svc.Deliver(nil, &bytes.Buffer{}))
}

func TestBatchFileServiceSweep(t *testing.T) {
	dir := t.TempDir()
	spool, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	metrics := NewMetricsService()
	svc := NewBatchFileService(spool, metrics, nil, time.Hour)

	_, err = spool.Save("ANAB_DISB_old.csv", []byte("x"))
	require.NoError(t, err)
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "ANAB_DISB_old.csv"), old, old))
	_, err = spool.Save("ANAB_DISB_new.csv", []byte("y"))
	require.NoError(t, err)

	removed, err := svc.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(filepath.Join(dir, "ANAB_DISB_new.csv"))
	assert.NoError(t, err)
}
