// Package backup produces encrypted snapshots of the local database on a
// schedule. Backups land in a local directory; the audit log is the only
// irreplaceable data, everything else can be refetched from the backend.
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/hmansour/medilabel/internal/store"
	"github.com/hmansour/medilabel/internal/websocket"
)

// Config controls where backups go and how many survive pruning.
type Config struct {
	Dir        string
	Passphrase string
	Keep       int
	// DailyAt is the local wall-clock time of the scheduled run, "HH:MM".
	DailyAt string
}

type Manager struct {
	db        *sql.DB
	backups   *store.BackupStore
	hub       *websocket.Hub
	cfg       Config
	scheduler *gocron.Scheduler
	logger    *slog.Logger
}

func NewManager(db *sql.DB, backups *store.BackupStore, hub *websocket.Hub, cfg Config, logger *slog.Logger) *Manager {
	if cfg.Keep <= 0 {
		cfg.Keep = 14
	}
	if cfg.DailyAt == "" {
		cfg.DailyAt = "03:30"
	}
	return &Manager{
		db:      db,
		backups: backups,
		hub:     hub,
		cfg:     cfg,
		logger:  logger.With("component", "backup"),
	}
}

// Start schedules the daily run. It returns an error only when the schedule
// itself cannot be registered; individual run failures are logged.
func (m *Manager) Start() error {
	m.scheduler = gocron.NewScheduler(time.Local)
	_, err := m.scheduler.Every(1).Day().At(m.cfg.DailyAt).Do(func() {
		if _, err := m.Run(context.Background()); err != nil {
			m.logger.Error("scheduled backup failed", "error", err)
			m.hub.Broadcast(websocket.BackupStatus("failed", ""))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule backup: %w", err)
	}
	m.scheduler.StartAsync()
	m.logger.Info("backup schedule started", "at", m.cfg.DailyAt, "keep", m.cfg.Keep)
	return nil
}

func (m *Manager) Stop() {
	if m.scheduler != nil {
		m.scheduler.Stop()
	}
}

// Run takes one backup now: vacuum the database into a temp file, encrypt
// it into the backup directory, record it, and prune old ones.
func (m *Manager) Run(ctx context.Context) (string, error) {
	if err := os.MkdirAll(m.cfg.Dir, 0700); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	tmp, err := os.CreateTemp("", "medilabel-backup-*.db")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	os.Remove(tmpPath)
	defer os.Remove(tmpPath)

	// VACUUM INTO produces a consistent copy without locking writers out.
	if _, err := m.db.ExecContext(ctx, `VACUUM INTO ?`, tmpPath); err != nil {
		return "", fmt.Errorf("vacuum database: %w", err)
	}

	plaintext, err := os.ReadFile(tmpPath)
	if err != nil {
		return "", fmt.Errorf("read vacuumed copy: %w", err)
	}
	encrypted, err := Encrypt(plaintext, m.cfg.Passphrase)
	if err != nil {
		return "", fmt.Errorf("encrypt backup: %w", err)
	}

	filename := "medilabel-" + time.Now().Format("20060102-150405") + ".db.enc"
	dest := filepath.Join(m.cfg.Dir, filename)
	if err := os.WriteFile(dest, encrypted, 0600); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}

	if _, err := m.backups.Create(filename, int64(len(encrypted))); err != nil {
		return "", err
	}
	if err := m.prune(); err != nil {
		m.logger.Warn("prune backups", "error", err)
	}

	m.logger.Info("backup written", "file", filename, "bytes", len(encrypted))
	m.hub.Broadcast(websocket.BackupStatus("completed", filename))
	return filename, nil
}

// prune deletes everything beyond the newest Keep backups, on disk and in
// the table.
func (m *Manager) prune() error {
	backups, err := m.backups.List()
	if err != nil {
		return err
	}
	for _, b := range backups[min(m.cfg.Keep, len(backups)):] {
		if err := os.Remove(filepath.Join(m.cfg.Dir, b.Filename)); err != nil && !os.IsNotExist(err) {
			m.logger.Warn("remove backup file", "file", b.Filename, "error", err)
		}
		if err := m.backups.Delete(b.ID); err != nil {
			return err
		}
	}
	return nil
}
