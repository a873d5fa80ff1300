// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"
)

// NewLogger creates the process log sink. An unknown level is a
// configuration error.
func NewLogger(level string, out io.Writer) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "%s", EnvLogLevel), ErrConfiguration)
	}

	logger := log.New()
	logger.SetOutput(out)
	logger.SetLevel(lvl)
	logger.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	return logger, nil
}

// DefaultLogger writes warnings and worse to stderr. Components built
// without a logger use it, so a fatal driver fault is never silent.
func DefaultLogger() *log.Logger {
	logger := log.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(log.WarnLevel)
	logger.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	return logger
}
