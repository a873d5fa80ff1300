// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	log "github.com/sirupsen/logrus"

	"github.com/devblok/vkctx/core"
	"github.com/devblok/vkctx/device/queue"
)

type settings struct {
	log          log.FieldLogger
	logSet       bool
	severities   MessageSeverity
	deviceMapper DeviceMapper
	queueMapper  QueueMapper
	required     []queue.Operation
}

func newSettings(opts []Option) settings {
	s := settings{
		log:          core.DefaultLogger(),
		severities:   AllSeverities,
		deviceMapper: DefaultDeviceMapper,
		queueMapper:  DefaultQueueMapper,
		required:     []queue.Operation{queue.Graphics, queue.Present},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// loggerOr returns the configured logger, or fallback when none was set
func (s settings) loggerOr(fallback log.FieldLogger) log.FieldLogger {
	if s.logSet {
		return s.log
	}
	return fallback
}

// Option configures Base, Surface and ContextConfigurator
type Option func(*settings)

// WithLogger sets the logger. Driver faults are logged at fatal level
// through it.
func WithLogger(logger log.FieldLogger) Option {
	return func(s *settings) {
		s.log = logger
		s.logSet = true
	}
}

// WithMessageSeverities selects the debug messages that get logged
func WithMessageSeverities(severities MessageSeverity) Option {
	return func(s *settings) {
		s.severities = severities
	}
}

// WithDeviceMapper replaces DefaultDeviceMapper
func WithDeviceMapper(mapper DeviceMapper) Option {
	return func(s *settings) {
		s.deviceMapper = mapper
	}
}

// WithQueueMapper replaces DefaultQueueMapper
func WithQueueMapper(mapper QueueMapper) Option {
	return func(s *settings) {
		s.queueMapper = mapper
	}
}

// WithRequiredOperations sets the operations a device must be able to
// serve. Graphics and present are required by default.
func WithRequiredOperations(ops ...queue.Operation) Option {
	return func(s *settings) {
		s.required = ops
	}
}
