// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"
)

// Surface owns a presentation surface created for a window. It must be
// released before the Base it was created from.
type Surface struct {
	drv      Driver
	log      log.FieldLogger
	instance InstanceHandle
	handle   SurfaceHandle
	window   WindowHandle

	rel releaser
	// pending is released ahead of a query fault, while a Context is
	// being built around the surface
	pending *releaser
}

// NewSurface creates a surface for window on display. The pair must
// belong to the same platform, otherwise *UnsupportedPlatformError is
// returned.
func NewSurface(base *Base, window WindowHandle, display DisplayHandle, opts ...Option) (*Surface, error) {
	s := newSettings(opts)
	s.log = s.loggerOr(base.log)
	drv, instance := base.drv, base.instance

	var (
		handle SurfaceHandle
		err    error
		call   string
	)
	switch w := window.(type) {
	case Win32Window:
		if _, ok := display.(WindowsDisplay); !ok {
			return nil, unsupported(s.log, window, display)
		}
		call = "create win32 surface"
		handle, err = drv.CreateWin32Surface(instance, Win32SurfaceInfo{HInstance: w.HInstance, HWnd: w.HWnd})
	case WaylandWindow:
		d, ok := display.(WaylandDisplay)
		if !ok {
			return nil, unsupported(s.log, window, display)
		}
		call = "create wayland surface"
		handle, err = drv.CreateWaylandSurface(instance, WaylandSurfaceInfo{Display: d.Display, Surface: w.Surface})
	case XcbWindow:
		d, ok := display.(XcbDisplay)
		if !ok {
			return nil, unsupported(s.log, window, display)
		}
		call = "create xcb surface"
		handle, err = drv.CreateXcbSurface(instance, XcbSurfaceInfo{Connection: d.Connection, Window: w.Window})
	case XlibWindow:
		d, ok := display.(XlibDisplay)
		if !ok {
			return nil, unsupported(s.log, window, display)
		}
		call = "create xlib surface"
		handle, err = drv.CreateXlibSurface(instance, XlibSurfaceInfo{Display: d.Display, Window: w.Window})
	default:
		return nil, unsupported(s.log, window, display)
	}
	if err != nil {
		return nil, driverFault(s.log, nil, err, call)
	}

	surface := &Surface{
		drv:      drv,
		log:      s.log,
		instance: instance,
		handle:   handle,
		window:   window,
	}
	surface.rel.push(func() { drv.DestroySurface(instance, handle) })

	s.log.WithField("platform", platformOf(window)).Debug("surface created")
	return surface, nil
}

func unsupported(logger log.FieldLogger, window WindowHandle, display DisplayHandle) error {
	err := &UnsupportedPlatformError{Window: window, Display: display}
	logger.WithError(err).Error("cannot create surface")
	return err
}

// Handle returns the surface handle
func (s *Surface) Handle() SurfaceHandle {
	return s.handle
}

// Window returns the window the surface was created for
func (s *Surface) Window() WindowHandle {
	return s.window
}

// Capabilities queries the surface capabilities for a physical device
func (s *Surface) Capabilities(physical PhysicalDeviceHandle) (SurfaceCapabilities, error) {
	caps, err := s.drv.SurfaceCapabilities(physical, s.handle)
	if err != nil {
		return SurfaceCapabilities{}, driverFault(s.log, s.pending, err, "get surface capabilities")
	}
	return caps, nil
}

// Formats queries the surface formats supported by a physical device
func (s *Surface) Formats(physical PhysicalDeviceHandle) ([]SurfaceFormat, error) {
	formats, err := s.drv.SurfaceFormats(physical, s.handle)
	if err != nil {
		return nil, driverFault(s.log, s.pending, err, "get surface formats")
	}
	return formats, nil
}

// PresentModes queries the present modes supported by a physical device
func (s *Surface) PresentModes(physical PhysicalDeviceHandle) ([]PresentMode, error) {
	modes, err := s.drv.SurfacePresentModes(physical, s.handle)
	if err != nil {
		return nil, driverFault(s.log, s.pending, err, "get surface present modes")
	}
	return modes, nil
}

// PresentSupport reports whether a queue family can present to the surface
func (s *Surface) PresentSupport(physical PhysicalDeviceHandle, family uint32) (bool, error) {
	supported, err := s.drv.SurfaceSupport(physical, family, s.handle)
	if err != nil {
		return false, driverFault(s.log, s.pending, errors.Wrapf(err, "family %d", family), "get surface support")
	}
	return supported, nil
}

// Properties queries everything device selection needs to know about
// the surface
func (s *Surface) Properties(physical PhysicalDeviceHandle) (SurfaceProperties, error) {
	var (
		props SurfaceProperties
		err   error
	)
	if props.Capabilities, err = s.Capabilities(physical); err != nil {
		return SurfaceProperties{}, err
	}
	if props.Formats, err = s.Formats(physical); err != nil {
		return SurfaceProperties{}, err
	}
	if props.PresentModes, err = s.PresentModes(physical); err != nil {
		return SurfaceProperties{}, err
	}
	return props, nil
}

// Release destroys the surface
func (s *Surface) Release() {
	s.rel.Release()
}
