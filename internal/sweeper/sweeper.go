package sweeper

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"homestead/server/config"
	"homestead/server/internal/database"
	"homestead/server/internal/queue"
	"homestead/server/internal/storage"
)

// Sweeper periodically scans the upload directory for files that no
// listing references and schedules them for removal. It exists because
// a client abort mid-upload can leave a stored file behind with no
// request-path cleanup ever firing for it.
type Sweeper struct {
	db       *database.Database
	writer   *storage.Writer
	queue    *queue.CleanupQueue
	config   *config.Config
	logger   *logrus.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
	jobMutex sync.Mutex // Ensures sequential sweep execution
}

func NewSweeper(db *database.Database, writer *storage.Writer, q *queue.CleanupQueue, cfg *config.Config, logger *logrus.Logger) *Sweeper {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Sweeper{
		db:       db,
		writer:   writer,
		queue:    q,
		config:   cfg,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start subscribes the removal handler and begins the periodic sweep.
func (s *Sweeper) Start() {
	s.queue.Subscribe(s.removeBatch)
	s.queue.Start()

	s.wg.Add(1)
	go s.run()
}

// Stop gracefully stops the sweeper.
func (s *Sweeper) Stop() {
	close(s.stopChan)
	s.wg.Wait()
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	interval := time.Duration(s.config.Sweeper.Interval) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			if err := s.SweepOnce(); err != nil {
				s.logger.WithError(err).Error("Upload sweep failed")
			}
		}
	}
}

// SweepOnce scans the upload root once and enqueues every unreferenced
// file older than the configured minimum age.
func (s *Sweeper) SweepOnce() error {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	referenced, err := s.db.ReferencedImageURLs()
	if err != nil {
		return fmt.Errorf("failed to load referenced images: %w", err)
	}

	entries, err := os.ReadDir(s.writer.Root())
	if err != nil {
		return fmt.Errorf("failed to read upload directory: %w", err)
	}

	minAge := time.Duration(s.config.Sweeper.MinAge) * time.Minute
	cutoff := time.Now().Add(-minAge)

	var batch []string
	enqueued := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if referenced[storage.URLPrefix+entry.Name()] {
			continue
		}

		batch = append(batch, filepath.Join(s.writer.Root(), entry.Name()))
		if len(batch) >= s.config.Sweeper.BatchSize {
			if err := s.queue.Push(batch); err != nil {
				s.logger.WithError(err).Warn("Failed to enqueue cleanup batch")
				return nil
			}
			enqueued += len(batch)
			batch = nil
		}
	}

	if len(batch) > 0 {
		if err := s.queue.Push(batch); err != nil {
			s.logger.WithError(err).Warn("Failed to enqueue cleanup batch")
			return nil
		}
		enqueued += len(batch)
	}

	if enqueued > 0 {
		s.logger.WithField("count", enqueued).Info("Enqueued orphaned upload files for removal")
	}
	return nil
}

// removeBatch deletes the files of one cleanup batch. Individual
// failures are logged and skipped.
func (s *Sweeper) removeBatch(paths []string) error {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.WithError(err).WithField("path", path).Error("Failed to remove orphaned file")
			continue
		}
		s.logger.WithField("path", path).Debug("Removed orphaned upload file")
	}
	return nil
}
