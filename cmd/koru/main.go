// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"flag"
	"os"
	"runtime"

	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/vkctx/core"
	"github.com/devblok/vkctx/device"
	"github.com/devblok/vkctx/device/queue"
	"github.com/devblok/vkctx/device/vkd"
	wsi "github.com/devblok/vkctx/internal/window"
)

func init() {
	runtime.LockOSThread()
}

var (
	envFile = flag.String("env", "", "Load configuration from a dotenv file")
	width   = flag.Int("width", 800, "Window width")
	height  = flag.Int("height", 600, "Window height")
	shared  = flag.Bool("shared", false, "Share queues where possible instead of preferring dedicated families")
)

func newWindow(title string) (*sdl.Window, error) {
	return sdl.CreateWindow(title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(*width),
		int32(*height),
		sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
}

func main() {
	flag.Parse()

	if *envFile != "" {
		if err := core.LoadEnvFile(*envFile); err != nil {
			log.WithError(err).Fatal("cannot load env file")
		}
	}
	configuration, err := core.LoadConfiguration()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	logger, err := core.NewLogger(configuration.LogLevel, os.Stderr)
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		logger.WithError(err).Fatal("sdl.Init()")
	}
	defer sdl.Quit()

	if err := sdl.VulkanLoadLibrary(""); err != nil {
		logger.WithError(err).Fatal("sdl.VulkanLoadLibrary()")
	}
	defer sdl.VulkanUnloadLibrary()

	window, err := newWindow(configuration.Instance.ApplicationName)
	if err != nil {
		logger.WithError(err).Fatal("sdl.CreateWindow()")
	}
	defer window.Destroy()

	if err := vkd.Load(sdl.VulkanGetVkGetInstanceProcAddr()); err != nil {
		logger.WithError(err).Fatal("cannot load vulkan")
	}

	// the window decides which surface extensions are needed
	if configuration.Instance.Extensions == nil {
		configuration.Instance.Extensions = append(window.VulkanGetInstanceExtensions(), core.DebugUtilsExtension)
	}

	ctx, err := newContext(logger, window, configuration)
	if err != nil {
		logger.WithError(err).Fatal("cannot create rendering context")
	}
	defer ctx.Release()

	for _, op := range ctx.Selections().Assigned() {
		h, _ := ctx.Selections().Handle(op)
		q, _ := ctx.Queue(op)
		logger.WithFields(log.Fields{
			"operation": op,
			"family":    h.Family,
			"offset":    h.Offset,
			"queue":     q,
		}).Debug("queue ready")
	}

	eventLoop(logger, core.NewTime(configuration.Time))
}

func newContext(logger log.FieldLogger, window *sdl.Window, configuration core.Configuration) (*device.Context, error) {
	windowHandle, displayHandle, err := wsi.NativeHandles(window)
	if err != nil {
		return nil, err
	}
	mapper, err := device.NewDeviceTypeMapper(configuration.Context.DeviceTypes...)
	if err != nil {
		return nil, err
	}

	base, err := device.NewBase(vkd.New(), configuration.Instance, device.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	opts := []device.Option{device.WithLogger(logger), device.WithDeviceMapper(mapper)}
	if !*shared {
		opts = append(opts, device.WithQueueMapper(device.QueueMapperFunc(queue.Dedicated)))
	}
	ctx, err := device.NewContextConfigurator(windowHandle, displayHandle, configuration.Context.DeviceExtensions, opts...).Build(base)
	if err != nil {
		base.Release()
		return nil, err
	}
	return ctx, nil
}

func eventLoop(logger log.FieldLogger, t *core.Time) {
	defer t.Release()

	for range t.EventTicker().C {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch et := event.(type) {
			case *sdl.KeyboardEvent:
				if et.Keysym.Sym == sdl.K_ESCAPE {
					logger.Info("event loop exited")
					return
				}
			case *sdl.QuitEvent:
				logger.Info("event loop exited")
				return
			}
		}
	}
}
