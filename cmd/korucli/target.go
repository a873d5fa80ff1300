// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"os"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	"golang.org/x/exp/mmap"

	"github.com/devblok/vkctx/core"
	"github.com/devblok/vkctx/device"
	"github.com/devblok/vkctx/device/profile"
	"github.com/devblok/vkctx/device/vkd"
	wsi "github.com/devblok/vkctx/internal/window"
)

// target is a driver together with a window to negotiate for
type target struct {
	source     string
	platform   string
	driver     device.Driver
	window     device.WindowHandle
	display    device.DisplayHandle
	extensions []string
	release    func()
	closed     bool
}

// close releases the target once
func (t *target) close() {
	if t.closed {
		return
	}
	t.closed = true
	t.release()
}

// closeOnFatal makes fatal entries on logger close t before the
// process exits.
func (t *target) closeOnFatal(logger *log.Logger) {
	exit := logger.ExitFunc
	if exit == nil {
		exit = os.Exit
	}
	logger.ExitFunc = func(code int) {
		t.close()
		exit(code)
	}
}

// replay drivers accept any non null handles
var (
	replayWindow  = device.XlibWindow{Window: 0x3a00007}
	replayDisplay = device.XlibDisplay{Display: 0x1}
)

func profileTarget(source string, p *profile.Profile) *target {
	return &target{
		source:     source,
		platform:   profile.PlatformXlib,
		driver:     profile.NewDriver(p),
		window:     replayWindow,
		display:    replayDisplay,
		extensions: []string{core.SurfaceExtension, core.XlibSurfaceExtension, core.DebugUtilsExtension},
		release:    func() {},
	}
}

func builtinTarget(name string) (*target, error) {
	p, err := profile.Builtin(name)
	if err != nil {
		return nil, err
	}
	return profileTarget("builtin:"+name, p), nil
}

func replayTarget(path string) (*target, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	p, err := profile.Load(r)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return profileTarget(path, p), nil
}

// nativeTarget opens a hidden SDL window on the native driver
func nativeTarget() (*target, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "sdl.Init()")
	}
	if err := sdl.VulkanLoadLibrary(""); err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "sdl.VulkanLoadLibrary()")
	}
	window, err := sdl.CreateWindow("korucli", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		64, 64, sdl.WINDOW_VULKAN|sdl.WINDOW_HIDDEN)
	if err != nil {
		sdl.VulkanUnloadLibrary()
		sdl.Quit()
		return nil, errors.Wrap(err, "sdl.CreateWindow()")
	}
	release := func() {
		window.Destroy()
		sdl.VulkanUnloadLibrary()
		sdl.Quit()
	}

	if err := vkd.Load(sdl.VulkanGetVkGetInstanceProcAddr()); err != nil {
		release()
		return nil, err
	}
	windowHandle, displayHandle, err := wsi.NativeHandles(window)
	if err != nil {
		release()
		return nil, err
	}

	return &target{
		source:     "native",
		platform:   platformOf(windowHandle),
		driver:     vkd.New(),
		window:     windowHandle,
		display:    displayHandle,
		extensions: append(window.VulkanGetInstanceExtensions(), core.DebugUtilsExtension),
		release:    release,
	}, nil
}

func platformOf(window device.WindowHandle) string {
	switch window.(type) {
	case device.Win32Window:
		return profile.PlatformWin32
	case device.WaylandWindow:
		return profile.PlatformWayland
	case device.XcbWindow:
		return profile.PlatformXcb
	default:
		return profile.PlatformXlib
	}
}
