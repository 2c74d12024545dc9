// FILE: logging.go
// Package main – Logger construction.
//
// newLogger builds the one logrus instance the process uses. It writes to
// stdout and to a size-rotated app.log under the data dir (lumberjack).
// The instance is passed explicitly into every component that logs; nothing
// in this repository uses the logrus package-level logger.

package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

func newLogger(dataDir, level string) (*logrus.Logger, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create data dir %s", dataDir)
	}

	logger := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(dataDir, "app.log"),
		MaxSize:    100, // MB
		MaxBackups: 3,
		MaxAge:     7, // days
		Compress:   true,
	}
	logger.SetOutput(io.MultiWriter(os.Stdout, fileWriter))

	logger.Info("===== NEW SESSION STARTED =====")
	return logger, nil
}
