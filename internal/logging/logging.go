// internal/logging/logging.go
package logging

import (
	"io"
	"os"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	cfg "github.com/tamzrod/iec104-driver/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds the process logger. With a file configured, output goes to a
// size-rotated file; otherwise stderr. The closer releases the file.
func New(c cfg.LogConfig) (*logrus.Logger, io.Closer, error) {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, nil, errors.NewNotValid(err, "log level")
	}

	l := logrus.New()
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	if c.File == "" {
		l.SetOutput(os.Stderr)
		return l, nopCloser{}, nil
	}

	lj := &lumberjack.Logger{
		Filename:   c.File,
		MaxSize:    c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
	}
	l.SetOutput(lj)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	return l, lj, nil
}
