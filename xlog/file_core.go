package xlog

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xtree/lib/infra"
)

const (
	InvalidFileSizeErr     = "[XLogger] invalid file size"
	InvalidFileAgeErr      = "[XLogger] invalid file age"
	InvalidFilenameErr     = "[XLogger] log filename must not contain a directory"
	FileBufferTooLargeErr  = "[XLogger] file buffer size too large"
	defaultLogFilename     = "xtree.log"
	maxFileSize            = 1024 * MB
	maxFileBufferSize      = 10 * MB
	maxFileAge             = 14 * Day
	minFileFlushInterval   = 200 * time.Millisecond
	maxFileFlushInterval   = 3 * time.Second
	defaultFileFlushPeriod = time.Second
)

type fileSizeUnit = uint64

const (
	B  fileSizeUnit = 1
	KB fileSizeUnit = 1 << 10
	MB fileSizeUnit = 1 << 20
)

const Day = 24 * time.Hour

var (
	fileSizeRegexp = regexp.MustCompile(`^(\d+)\s*([kKmM]?[bB])$`)
	fileAgeRegexp  = regexp.MustCompile(`^(\d+)\s*([a-zA-Z]+)$`)
	fileAgeUnits   = map[string]time.Duration{
		"s": time.Second, "sec": time.Second,
		"m": time.Minute, "min": time.Minute,
		"h": time.Hour, "hour": time.Hour, "hours": time.Hour,
		"d": Day, "day": Day, "days": Day,
	}
)

// parseFileSize reads "512B", "64KB" or "10MB", at most 1024MB.
func parseFileSize(size string) (uint64, error) {
	m := fileSizeRegexp.FindStringSubmatch(strings.TrimSpace(size))
	if m == nil {
		return 0, infra.NewErrorStack(InvalidFileSizeErr + ": " + size)
	}
	n, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil || n == 0 {
		return 0, infra.NewErrorStack(InvalidFileSizeErr + ": " + size)
	}
	unit := B
	switch strings.ToUpper(m[2]) {
	case "KB":
		unit = KB
	case "MB":
		unit = MB
	}
	if n > maxFileSize/unit {
		return 0, infra.NewErrorStack(InvalidFileSizeErr + ": " + size + " exceeds 1024MB")
	}
	return n * unit, nil
}

// parseFileAge reads "30s", "15min", "12h" or "7days". Ages beyond
// two weeks are cut to two weeks.
func parseFileAge(age string) (time.Duration, error) {
	m := fileAgeRegexp.FindStringSubmatch(strings.TrimSpace(age))
	if m == nil {
		return 0, infra.NewErrorStack(InvalidFileAgeErr + ": " + age)
	}
	unit, ok := fileAgeUnits[strings.ToLower(m[2])]
	n, err := strconv.ParseInt(m[1], 10, 64)
	if !ok || err != nil || n == 0 {
		return 0, infra.NewErrorStack(InvalidFileAgeErr + ": " + age)
	}
	if n >= int64(maxFileAge/unit) {
		return maxFileAge, nil
	}
	return time.Duration(n) * unit, nil
}

// FileCoreConfig backs the "file" log writer. Rotation is on once
// MaxSize is set, MaxAge and MaxBackups then decide which backups
// are dropped or, with Compress, moved into ZipName.
type FileCoreConfig struct {
	Dir           string        `json:"dir" yaml:"dir"`
	Filename      string        `json:"filename" yaml:"filename"`
	MaxSize       string        `json:"maxSize" yaml:"maxSize"`
	MaxAge        string        `json:"maxAge" yaml:"maxAge"`
	MaxBackups    int           `json:"maxBackups" yaml:"maxBackups"`
	Compress      bool          `json:"compress" yaml:"compress"`
	ZipName       string        `json:"zipName" yaml:"zipName"`
	CompressBatch int           `json:"compressBatch" yaml:"compressBatch"`
	BufferSize    string        `json:"bufferSize" yaml:"bufferSize"`
	FlushInterval time.Duration `json:"flushInterval" yaml:"flushInterval"`
}

type fileSettings struct {
	dir           string
	filename      string
	zipName       string
	maxSize       uint64
	maxAge        time.Duration
	maxBackups    int
	compress      bool
	compressBatch int
	bufSize       int
	flushInterval time.Duration
}

func (cfg *FileCoreConfig) settings() (fileSettings, error) {
	s := fileSettings{
		dir:           cfg.Dir,
		filename:      cfg.Filename,
		zipName:       cfg.ZipName,
		maxBackups:    max(cfg.MaxBackups, 0),
		compress:      cfg.Compress,
		compressBatch: max(cfg.CompressBatch, 1),
	}
	if s.dir == "" {
		s.dir = os.TempDir()
	}
	if s.filename == "" {
		s.filename = defaultLogFilename
	}
	if s.zipName == "" {
		s.zipName = strings.TrimSuffix(s.filename, filepath.Ext(s.filename)) + "_backups.zip"
	}

	var merr error
	if filepath.Base(s.filename) != s.filename || filepath.Base(s.zipName) != s.zipName {
		merr = multierr.Append(merr, infra.NewErrorStack(InvalidFilenameErr))
	}
	if cfg.MaxSize != "" {
		size, err := parseFileSize(cfg.MaxSize)
		merr = multierr.Append(merr, err)
		s.maxSize = size
	}
	if cfg.MaxAge != "" {
		age, err := parseFileAge(cfg.MaxAge)
		merr = multierr.Append(merr, err)
		s.maxAge = age
	}
	if cfg.BufferSize != "" {
		size, err := parseFileSize(cfg.BufferSize)
		if err == nil && size > maxFileBufferSize {
			err = infra.NewErrorStack(FileBufferTooLargeErr + ": " + cfg.BufferSize)
		}
		merr = multierr.Append(merr, err)
		s.bufSize = int(size)
		s.flushInterval = defaultFileFlushPeriod
		if cfg.FlushInterval > 0 {
			s.flushInterval = min(max(cfg.FlushInterval, minFileFlushInterval), maxFileFlushInterval)
		}
	}
	return s, merr
}

// Validate reports every malformed setting at once.
func (cfg *FileCoreConfig) Validate() error {
	_, err := cfg.settings()
	return err
}

var _ xLogCore = (*fileCore)(nil)

type fileCore struct {
	*commonCore
}

// newFileCore opens nothing until the first entry. The file is
// flushed and closed once ctx is done.
func newFileCore(fc *FileCoreConfig) XLogCoreConstructor {
	return func(
		ctx context.Context,
		lvlEnabler zapcore.LevelEnabler,
		encoder logEncoderType,
		writer logOutWriterType,
		lvlEnc zapcore.LevelEncoder,
		tsEnc zapcore.TimeEncoder,
	) xLogCore {
		if writer != File {
			return nil
		}
		if fc == nil {
			fc = &FileCoreConfig{}
		}
		s, err := fc.settings()
		if err != nil {
			handleFileLogError(err)
			return nil
		}

		out := newRotateLog(s)
		var (
			ws   zapcore.WriteSyncer = out
			stop                     = out.Close
		)
		if s.bufSize > 0 {
			buffered := &zapcore.BufferedWriteSyncer{
				WS:            out,
				Size:          s.bufSize,
				FlushInterval: s.flushInterval,
			}
			ws = buffered
			stop = func() error {
				return multierr.Combine(buffered.Stop(), out.Close())
			}
		}
		if done := ctx.Done(); done != nil {
			go func() {
				<-done
				handleFileLogError(stop())
			}()
		}

		cc := &commonCore{
			ctx:        ctx,
			lvlEnabler: lvlEnabler,
			lvlEnc:     lvlEnc,
			tsEnc:      tsEnc,
			ws:         ws,
			enc:        getEncoderByType(encoder),
		}
		return &fileCore{commonCore: cc.build(encoderCfg(true))}
	}
}

// WithXLoggerFileCore switches the root writer to File.
func WithXLoggerFileCore(fc *FileCoreConfig) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if fc != nil {
			if err := fc.Validate(); err != nil {
				return err
			}
		}
		cfg.fileCfg = fc
		cfg.writerType = lo.ToPtr(File)
		return nil
	}
}
