package xlog

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/safearchive/zip"
	"github.com/google/safeopen"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xtree/lib/infra"
)

// Fixed width, so the names sort by time.
const backupTimeFormat = "20060102T150405.000000000Z"

var _ zapcore.WriteSyncer = (*rotateLog)(nil)

// rotateLog appends to dir/filename. With a max size it renames the
// full file to filename_<utc time>.ext and watches dir to drop or
// archive the backups.
type rotateLog struct {
	mu        sync.Mutex
	settings  fileSettings
	file      *os.File
	wroteSize uint64
	closed    bool
	watcher   *fsnotify.Watcher
	mkdirOnce sync.Once
	mkdirErr  error
}

func newRotateLog(s fileSettings) *rotateLog {
	return &rotateLog{settings: s}
}

func (log *rotateLog) rotatable() bool {
	return log.settings.maxSize > 0
}

func (log *rotateLog) Write(p []byte) (int, error) {
	log.mu.Lock()
	defer log.mu.Unlock()
	if log.closed {
		return 0, os.ErrClosed
	}
	if log.file == nil {
		if err := log.openOrCreate(); err != nil {
			return 0, err
		}
	}
	// An entry larger than max size still goes into one file.
	if log.rotatable() && log.wroteSize > 0 && log.wroteSize+uint64(len(p)) > log.settings.maxSize {
		if err := log.rotate(time.Now().UTC()); err != nil {
			return 0, err
		}
	}
	n, err := log.file.Write(p)
	log.wroteSize += uint64(n)
	return n, err
}

func (log *rotateLog) Sync() error {
	log.mu.Lock()
	defer log.mu.Unlock()
	if log.file == nil {
		return nil
	}
	return log.file.Sync()
}

func (log *rotateLog) Close() error {
	log.mu.Lock()
	defer log.mu.Unlock()
	if log.closed {
		return nil
	}
	log.closed = true
	var merr error
	if log.watcher != nil {
		merr = multierr.Append(merr, log.watcher.Close())
		log.watcher = nil
	}
	if log.file != nil {
		merr = multierr.Append(merr, log.file.Close())
		log.file = nil
	}
	return merr
}

func (log *rotateLog) mkdir() error {
	log.mkdirOnce.Do(func() {
		log.mkdirErr = infra.WrapErrorStack(os.MkdirAll(log.settings.dir, 0o755))
	})
	return log.mkdirErr
}

func (log *rotateLog) openOrCreate() error {
	if err := log.mkdir(); err != nil {
		return err
	}
	s := log.settings
	f, err := safeopen.OpenFileBeneath(s.dir, s.filename, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return infra.WrapErrorStackWithMessage(err, "[XLogger] open log file "+filepath.Join(s.dir, s.filename))
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return infra.WrapErrorStack(err)
	}
	log.file = f
	log.wroteSize = uint64(info.Size())
	if log.rotatable() {
		return log.watch()
	}
	return nil
}

func (log *rotateLog) backupName(at time.Time) string {
	ext := filepath.Ext(log.settings.filename)
	return strings.TrimSuffix(log.settings.filename, ext) + "_" + at.UTC().Format(backupTimeFormat) + ext
}

// backupTime reports whether name is one of our backups.
func (log *rotateLog) backupTime(name string) (time.Time, bool) {
	ext := filepath.Ext(log.settings.filename)
	prefix := strings.TrimSuffix(log.settings.filename, ext) + "_"
	if name == log.settings.filename || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
		return time.Time{}, false
	}
	at, err := time.Parse(backupTimeFormat, strings.TrimSuffix(strings.TrimPrefix(name, prefix), ext))
	return at, err == nil
}

func (log *rotateLog) rotate(now time.Time) error {
	s := log.settings
	if err := log.file.Close(); err != nil {
		return infra.WrapErrorStackWithMessage(err, "[XLogger] close full log file")
	}
	log.file = nil
	if err := os.Rename(filepath.Join(s.dir, s.filename), filepath.Join(s.dir, log.backupName(now))); err != nil {
		return infra.WrapErrorStackWithMessage(err, "[XLogger] backup full log file")
	}
	return log.openOrCreate()
}

func (log *rotateLog) watch() error {
	if log.watcher != nil {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return infra.WrapErrorStackWithMessage(err, "[XLogger] create log dir watcher")
	}
	if err = w.Add(log.settings.dir); err != nil {
		_ = w.Close()
		return infra.WrapErrorStackWithMessage(err, "[XLogger] watch log dir")
	}
	log.watcher = w
	go log.watchLoop(w)
	return nil
}

// watchLoop prunes after every new backup until Close.
func (log *rotateLog) watchLoop(w *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if _, isBackup := log.backupTime(filepath.Base(event.Name)); isBackup {
				handleFileLogError(log.prune(time.Now().UTC()))
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			handleFileLogError(err)
		}
	}
}

type logBackup struct {
	name string
	at   time.Time
}

// backups lists the backups in dir, the oldest first.
func (log *rotateLog) backups() ([]logBackup, error) {
	entries, err := os.ReadDir(log.settings.dir)
	if err != nil {
		return nil, infra.WrapErrorStack(err)
	}
	res := make([]logBackup, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if at, ok := log.backupTime(entry.Name()); ok {
			res = append(res, logBackup{name: entry.Name(), at: at})
		}
	}
	slices.SortFunc(res, func(a, b logBackup) int {
		return a.at.Compare(b.at)
	})
	return res, nil
}

// prune drops the backups older than max age, then the oldest ones
// beyond max backups. Compressed backups wait for a full batch.
func (log *rotateLog) prune(now time.Time) error {
	s := log.settings
	all, err := log.backups()
	if err != nil {
		return err
	}
	expired := make([]logBackup, 0, len(all))
	rest := make([]logBackup, 0, len(all))
	for _, b := range all {
		if s.maxAge > 0 && now.Sub(b.at) > s.maxAge {
			expired = append(expired, b)
		} else {
			rest = append(rest, b)
		}
	}
	if s.maxBackups > 0 && len(rest) > s.maxBackups {
		expired = append(expired, rest[:len(rest)-s.maxBackups]...)
	}
	if len(expired) == 0 {
		return nil
	}
	if s.compress {
		if len(expired) < s.compressBatch {
			return nil
		}
		return log.archive(expired)
	}
	var merr error
	for _, b := range expired {
		merr = multierr.Append(merr, os.Remove(filepath.Join(s.dir, b.name)))
	}
	return merr
}

// archive moves the backups into the zip, keeping what the zip held.
// The zip is rebuilt aside and renamed over the old one.
func (log *rotateLog) archive(backups []logBackup) error {
	s := log.settings
	tmpName := s.zipName + ".tmp"
	tmp, err := safeopen.OpenFileBeneath(s.dir, tmpName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return infra.WrapErrorStack(err)
	}
	zw := zip.NewWriter(tmp)

	var merr error
	prev, err := zip.OpenReader(filepath.Join(s.dir, s.zipName))
	switch {
	case err == nil:
		prev.SetSecurityMode(prev.GetSecurityMode() | zip.MaximumSecurityMode)
		merr = multierr.Combine(copyZipEntries(zw, prev), prev.Close())
	case !errors.Is(err, fs.ErrNotExist):
		merr = err
	}
	if merr == nil {
		for _, b := range backups {
			merr = multierr.Append(merr, addZipEntry(zw, s.dir, b.name))
		}
	}
	merr = multierr.Combine(merr, zw.Close(), tmp.Close())
	if merr != nil {
		_ = os.Remove(filepath.Join(s.dir, tmpName))
		return infra.WrapErrorStackWithMessage(merr, "[XLogger] archive log backups")
	}
	if err = os.Rename(filepath.Join(s.dir, tmpName), filepath.Join(s.dir, s.zipName)); err != nil {
		return infra.WrapErrorStack(err)
	}
	for _, b := range backups {
		merr = multierr.Append(merr, os.Remove(filepath.Join(s.dir, b.name)))
	}
	return merr
}

func copyZipEntries(zw *zip.Writer, r *zip.ReadCloser) error {
	for _, f := range r.File {
		if f.Mode().IsDir() {
			continue
		}
		if err := copyZipEntry(zw, f); err != nil {
			return err
		}
	}
	return nil
}

func copyZipEntry(zw *zip.Writer, f *zip.File) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() {
		_ = rc.Close()
	}()
	w, err := zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: f.Method})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, rc)
	return err
}

func addZipEntry(zw *zip.Writer, dir, name string) error {
	f, err := safeopen.OpenBeneath(dir, name)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}

// handleFileLogError has no logger to report to.
func handleFileLogError(err error) {
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "[XLogger] file log: %s\n", err)
	}
}
