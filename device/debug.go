// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	log "github.com/sirupsen/logrus"
)

// debugCallback logs a driver message at the level matching its
// severity. It never asks the driver to abort.
func debugCallback(logger log.FieldLogger, msg DebugMessage) bool {
	entry := logger.WithFields(log.Fields{
		"category":   msg.Type.String(),
		"message_id": msg.IDName,
	})

	switch msg.Severity {
	case SeverityError:
		entry.Error(msg.Text)
	case SeverityWarning:
		entry.Warn(msg.Text)
	case SeverityInfo:
		entry.Info(msg.Text)
	case SeverityVerbose:
		entry.Trace(msg.Text)
	default:
		entry.WithField("severity", uint32(msg.Severity)).Trace(msg.Text)
	}
	return false
}
