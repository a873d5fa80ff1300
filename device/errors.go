// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"fmt"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"
)

// package errors
var (
	// ErrDriverFault marks failures of native calls. They are logged at
	// fatal level, which terminates the process unless the logger's
	// exit function was replaced.
	ErrDriverFault = errors.New("driver fault")

	// ErrNoSuitableDevice is returned when no physical device passes
	// negotiation
	ErrNoSuitableDevice = errors.New("no suitable physical device")
)

// MissingLayerError reports the first requested validation layer the
// driver does not expose, as an index into the requested list.
type MissingLayerError struct {
	Index int
}

func (e *MissingLayerError) Error() string {
	return fmt.Sprintf("requested validation layer %d is not available", e.Index)
}

// UnsupportedPlatformError is returned for a window handle kind that
// cannot be turned into a surface, or a display handle that does not
// belong to the same platform as the window.
type UnsupportedPlatformError struct {
	Window  WindowHandle
	Display DisplayHandle
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported window/display combination: %s window with %s display",
		platformOf(e.Window), platformOf(e.Display))
}

// driverFault records a failed native call and logs it as fatal.
// Whatever is still on pending is released before the entry is logged.
func driverFault(logger log.FieldLogger, pending *releaser, err error, call string) error {
	if pending != nil {
		pending.Release()
	}
	err = errors.Mark(errors.Wrapf(err, "%s", call), ErrDriverFault)
	logger.WithError(err).Fatal("driver fault")
	return err
}
