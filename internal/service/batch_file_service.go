package service

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
)

type spoolStorage interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// BatchFileService hands a committed batch file to the caller through a
// short-lived spool copy that is removed once delivered.
type BatchFileService struct {
	storage spoolStorage
	metrics *MetricsService
	logger  *zap.Logger
	ttl     time.Duration
}

// NewBatchFileService constructs a BatchFileService.
func NewBatchFileService(storage spoolStorage, metrics *MetricsService, logger *zap.Logger, ttl time.Duration) *BatchFileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &BatchFileService{storage: storage, metrics: metrics, logger: logger, ttl: ttl}
}

// Deliver writes the file to w and removes the spool copy afterwards. The run
// is already committed, so a spool failure falls back to the in-memory content.
// The spool copy is keyed by run id; FileName only names the download.
func (s *BatchFileService) Deliver(result *RunResult, w io.Writer) error {
	if result == nil {
		return fmt.Errorf("batch file result is nil")
	}
	if result.RunID == "" {
		return fmt.Errorf("batch file result has no run id")
	}

	name, err := s.storage.Save(spoolName(result.RunID), result.Content)
	if err != nil {
		s.logger.Warn("batch file spool unavailable, streaming from memory", zap.String("run_id", result.RunID), zap.Error(err))
		return s.writeMemory(result, w)
	}
	defer func() {
		if err := s.storage.Delete(name); err != nil {
			s.logger.Warn("failed to delete spooled batch file", zap.String("file", name), zap.Error(err))
		}
	}()

	file, err := s.storage.Open(name)
	if err != nil {
		s.logger.Warn("failed to reopen spooled batch file", zap.String("file", name), zap.Error(err))
		return s.writeMemory(result, w)
	}
	defer file.Close() //nolint:errcheck

	if _, err := io.Copy(w, file); err != nil {
		return fmt.Errorf("stream batch file %s: %w", name, err)
	}
	return nil
}

// Sweep removes spool files older than the configured TTL.
func (s *BatchFileService) Sweep() (int, error) {
	removed, err := s.storage.CleanupOlderThan(s.ttl)
	s.metrics.RecordSpoolSweep(len(removed))
	if len(removed) > 0 {
		s.logger.Warn("removed orphaned batch files", zap.Strings("files", removed))
	}
	if err != nil {
		return len(removed), fmt.Errorf("sweep batch spool: %w", err)
	}
	return len(removed), nil
}

func spoolName(runID string) string {
	return "run_" + runID + ".csv"
}

func (s *BatchFileService) writeMemory(result *RunResult, w io.Writer) error {
	if _, err := io.Copy(w, bytes.NewReader(result.Content)); err != nil {
		return fmt.Errorf("stream batch file %s: %w", result.FileName, err)
	}
	return nil
}
