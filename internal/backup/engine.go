package backup

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"saveguard/internal/config"
	"saveguard/internal/fsname"
	"saveguard/internal/notify"
	"saveguard/internal/state"
)

// saveFileExt is the save-container extension written by the supported games.
const saveFileExt = ".sl2"

// timestampLayout names the per-backup subdirectory, e.g. 2026_08_23__153004.
const timestampLayout = "2006_01_02__150405"

// notifyTitle heads every user-facing alert raised by the engine.
const notifyTitle = "Save Backup"

// Engine walks the configured source directories and copies new or modified
// save files into the backup tree.
type Engine struct {
	cfg      *config.Config
	store    *state.Store
	notifier notify.Notifier
	logger   *slog.Logger
	dryRun   bool
	now      func() time.Time
}

// NewEngine creates a backup engine.
func NewEngine(cfg *config.Config, store *state.Store, notifier notify.Notifier, logger *slog.Logger, dryRun bool) *Engine {
	return &Engine{
		cfg:      cfg,
		store:    store,
		notifier: notifier,
		logger:   logger,
		dryRun:   dryRun,
		now:      time.Now,
	}
}

// Run executes one backup pass over every configured source entry. A failure
// in one entry is logged and the remaining entries still run; state is
// persisted as long as at least one entry completed.
func (e *Engine) Run(ctx context.Context) error {
	processed := 0
	backedUp := 0

	for _, src := range e.cfg.SourceDirectories {
		if err := ctx.Err(); err != nil {
			return err
		}

		count, err := e.processSource(src)
		if err != nil {
			e.logger.Error("failed to process source directory", "name", src.Name, "error", err)
			continue
		}
		processed++
		backedUp += count
	}

	if processed == 0 {
		return fmt.Errorf("all %d source directories failed", len(e.cfg.SourceDirectories))
	}

	if e.dryRun {
		e.logger.Info("dry-run complete, no changes applied", "files_detected", backedUp)
		return nil
	}

	if err := e.store.Save(); err != nil {
		e.logger.Error("failed to save state", "error", err)
		e.notifier.Notify(notifyTitle, fmt.Sprintf("Backup failed: %v", err))
		return fmt.Errorf("failed to save state: %w", err)
	}

	e.logger.Info("backup pass complete",
		"files_backed_up", backedUp,
		"directories_processed", processed)
	return nil
}

// processSource scans one configured source entry and returns the number of
// files it backed up. Environment variables in the source path and in the
// backup root are expanded here, at use time.
func (e *Engine) processSource(src config.SourceDir) (int, error) {
	sourcePath := os.ExpandEnv(src.Path)
	backupRoot := os.ExpandEnv(e.cfg.BackupDirectory)
	baseDir := filepath.Join(backupRoot, fsname.Sanitize(src.Name))

	count := 0
	err := filepath.WalkDir(sourcePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == sourcePath || !d.IsDir() || !isSaveSlotDir(d.Name()) {
			return nil
		}

		copied, err := e.processSaveSlot(src.Name, path, baseDir)
		if err != nil {
			return err
		}
		count += copied
		return nil
	})
	return count, err
}

// processSaveSlot backs up every new or modified save container found
// directly inside one digit-named slot directory.
func (e *Engine) processSaveSlot(sourceName, slotDir, baseDir string) (int, error) {
	entries, err := os.ReadDir(slotDir)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), saveFileExt) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return count, err
		}
		modTime := info.ModTime().Unix()

		prev, seen := e.store.ModTime(sourceName, entry.Name())
		if seen && modTime <= prev {
			e.logger.Debug("skipping unmodified save file",
				"name", sourceName, "file", entry.Name())
			continue
		}

		e.logger.Info("save file is new or modified",
			"name", sourceName, "file", entry.Name())

		filePath := filepath.Join(slotDir, entry.Name())
		if e.dryRun {
			e.logger.Info("[dry-run] would copy", "source", filePath, "dest", baseDir)
			count++
			continue
		}

		// The timestamp directory is computed fresh from the base for every
		// file; changed files never nest under an earlier file's directory.
		destDir := filepath.Join(baseDir, e.now().Format(timestampLayout))
		if err := os.MkdirAll(destDir, 0755); err != nil {
			return count, err
		}

		dest := filepath.Join(destDir, entry.Name())
		e.logger.Info("copying save file", "source", filePath, "dest", dest)
		if err := copyFile(filePath, dest, info); err != nil {
			return count, err
		}

		e.store.Record(sourceName, entry.Name(), modTime)
		count++
	}
	return count, nil
}

// isSaveSlotDir reports whether a directory name follows the save-slot
// convention of consisting only of decimal digits.
func isSaveSlotDir(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// copyFile copies src to dst with an atomic rename, preserving the source's
// permissions and modification time.
func copyFile(src, dst string, info fs.FileInfo) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	tmpFile, err := os.CreateTemp(filepath.Dir(dst), ".saveguard-tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := io.Copy(tmpFile, srcFile); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Chmod(info.Mode().Perm()); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := os.Chtimes(tmpPath, time.Now(), info.ModTime()); err != nil {
		return err
	}

	return os.Rename(tmpPath, dst)
}
