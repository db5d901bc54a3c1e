package logger

import (
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// SetupLogger writes to stdout for local runs and appends to logPath otherwise.
// Debug records are kept everywhere except prod.
func SetupLogger(env, logPath string) *slog.Logger {
	level, ok := levelFor(env)
	if !ok {
		log.Fatal("invalid environment: ", env)
	}

	var out io.Writer = os.Stdout
	if env != envLocal {
		out = openLogFile(logPath)
		log.Printf("env: %s; log file: %s", env, logPath)
	}

	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level:     level,
		AddSource: env == envDev,
	}))
}

func levelFor(env string) (slog.Level, bool) {
	switch env {
	case envLocal, envDev:
		return slog.LevelDebug, true
	case envProd:
		return slog.LevelInfo, true
	default:
		return slog.LevelInfo, false
	}
}

func openLogFile(path string) *os.File {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Fatal("error creating log directory: ", err)
	}
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatal("error opening log file: ", err)
	}
	return file
}
