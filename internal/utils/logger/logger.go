package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the verbosity of the file log and where it is written.
// Standard output belongs to the command's own messages, so only warnings and
// errors are echoed to stderr; everything at Level and above goes to FilePath.
type Config struct {
	Level    string
	FilePath string
}

type stderrSink struct {
	mu     sync.RWMutex
	writer io.Writer
}

func (s *stderrSink) Write(p []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.writer == nil {
		return len(p), nil
	}
	return s.writer.Write(p)
}

func (s *stderrSink) Sync() error { return nil }

var (
	mu          sync.RWMutex
	once        sync.Once
	sugar       *zap.SugaredLogger
	base        *zap.Logger
	atomicLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	logFile     *os.File
	current     Config
	stderr      = &stderrSink{writer: os.Stderr}
)

func build(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	atomicLevel.SetLevel(parseLevel(cfg.Level))

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeCaller = zapcore.ShortCallerEncoder

	consoleCfg := encoderCfg
	consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleCfg.TimeKey = ""
	consoleCfg.CallerKey = ""

	warnAndAbove := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= zapcore.WarnLevel && atomicLevel.Enabled(l)
	})
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.AddSync(stderr), warnAndAbove),
	}

	path := strings.TrimSpace(cfg.FilePath)
	var handle *os.File
	if path != "" {
		f, err := openLogFile(path)
		if err != nil {
			return err
		}
		handle = f
		fileCfg := encoderCfg
		fileCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(fileCfg), zapcore.AddSync(f), atomicLevel))
	}

	if logFile != nil && logFile != handle {
		_ = logFile.Close()
	}
	logFile = handle

	base = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	sugar = base.Sugar()
	zap.ReplaceGlobals(base)
	current = Config{Level: atomicLevel.Level().String(), FilePath: path}
	return nil
}

func openLogFile(path string) (*os.File, error) {
	cleaned := filepath.Clean(path)
	if dir := filepath.Dir(cleaned); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory %q: %w", dir, err)
		}
	}
	f, err := os.OpenFile(cleaned, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return nil, fmt.Errorf("opening log file %q: %w", cleaned, err)
	}
	return f, nil
}

// InitWithConfig (re)configures the process logger and returns it together
// with a cleanup function that flushes and closes the log file.
func InitWithConfig(cfg Config) (*zap.SugaredLogger, func(), error) {
	var initErr error
	initialized := false
	once.Do(func() {
		initErr = build(cfg)
		initialized = true
	})
	if initErr != nil {
		return nil, nil, fmt.Errorf("logger initialization failed: %w", initErr)
	}

	if !initialized {
		want := Config{Level: parseLevel(cfg.Level).String(), FilePath: strings.TrimSpace(cfg.FilePath)}
		mu.RLock()
		same := current == want
		mu.RUnlock()
		if !same {
			if err := build(cfg); err != nil {
				return nil, nil, fmt.Errorf("logger reconfiguration failed: %w", err)
			}
		}
	}

	mu.RLock()
	defer mu.RUnlock()
	return sugar, cleanupFunc(logFile), nil
}

// Logger returns the process logger, initializing a stderr-only logger at
// info level on first use.
func Logger() *zap.SugaredLogger {
	once.Do(func() {
		if err := build(Config{Level: "info"}); err != nil {
			panic(fmt.Sprintf("logger initialization failed: %v", err))
		}
	})

	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func cleanupFunc(f *os.File) func() {
	return func() {
		mu.Lock()
		defer mu.Unlock()
		if base != nil {
			_ = base.Sync()
		}
		if f != nil {
			if err := f.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "error closing log file: %v\n", err)
			}
			if logFile == f {
				logFile = nil
			}
		}
	}
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// SetLogLevel changes the level without rebuilding the cores.
func SetLogLevel(level string) {
	mu.Lock()
	defer mu.Unlock()
	atomicLevel.SetLevel(parseLevel(level))
	current.Level = atomicLevel.Level().String()
}

// ReplaceStderrWriter swaps the writer behind the stderr core and returns the
// previous one. A nil writer restores os.Stderr.
func ReplaceStderrWriter(w io.Writer) io.Writer {
	if w == nil {
		w = os.Stderr
	}
	stderr.mu.Lock()
	defer stderr.mu.Unlock()
	old := stderr.writer
	stderr.writer = w
	if old == nil {
		old = os.Stderr
	}
	return old
}
