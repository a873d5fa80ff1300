// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command korucli negotiates a rendering context and prints a JSON
// report of the devices considered, the device chosen and its queue
// plan. It runs against the native driver, a builtin replay profile or
// a profile archive.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/vkctx/core"
	"github.com/devblok/vkctx/device"
	"github.com/devblok/vkctx/device/profile"
	"github.com/devblok/vkctx/device/queue"
)

func init() {
	runtime.LockOSThread()
}

var (
	envFile   = flag.String("env", "", "Load configuration from a dotenv file")
	builtin   = flag.String("builtin", "", "Replay a builtin driver profile instead of the native driver")
	replay    = flag.String("replay", "", "Replay a driver profile archive instead of the native driver")
	capture   = flag.String("capture", "", "Capture the native driver into a profile archive")
	list      = flag.Bool("list", false, "List builtin driver profiles")
	dedicated = flag.Bool("dedicated", false, "Prefer dedicated queue families")
	author    = flag.String("author", "", "Author recorded in captured archives")
)

// Stage is the time one step of a run took
type Stage struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
}

// Report is printed on success
type Report struct {
	Source     string                      `json:"source"`
	Layers     []string                    `json:"layers"`
	Extensions []string                    `json:"extensions"`
	Candidates []device.PhysicalDeviceInfo `json:"candidates"`
	Chosen     string                      `json:"chosen"`
	Queues     *queue.Selections           `json:"queues"`
	Stages     []Stage                     `json:"stages"`
}

type stopwatch struct {
	stages []Stage
	start  time.Duration
}

func (s *stopwatch) begin() {
	s.start = hrtime.Now()
}

func (s *stopwatch) end(name string) {
	s.stages = append(s.stages, Stage{Name: name, Duration: hrtime.Since(s.start)})
}

func main() {
	flag.Parse()

	if *list {
		for _, name := range profile.BuiltinNames() {
			fmt.Println(name)
		}
		return
	}

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

	if *capture != "" && (*builtin != "" || *replay != "") {
		logger.Fatal("-capture needs the native driver")
	}

	var tgt *target
	switch {
	case *builtin != "":
		tgt, err = builtinTarget(*builtin)
	case *replay != "":
		tgt, err = replayTarget(*replay)
	default:
		tgt, err = nativeTarget()
	}
	if err != nil {
		logger.WithError(err).Fatal("cannot open driver")
	}
	tgt.closeOnFatal(logger)
	defer tgt.close()

	report, err := run(logger, tgt, configuration)
	if err != nil {
		logger.WithError(err).Fatal("negotiation failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logger.WithError(err).Fatal("cannot encode report")
	}
}

func run(logger log.FieldLogger, t *target, configuration core.Configuration) (*Report, error) {
	if configuration.Instance.Extensions == nil {
		configuration.Instance.Extensions = t.extensions
	}
	mapper, err := device.NewDeviceTypeMapper(configuration.Context.DeviceTypes...)
	if err != nil {
		return nil, err
	}

	var sw stopwatch
	report := &Report{
		Source:     t.source,
		Layers:     configuration.Instance.ValidationLayers,
		Extensions: configuration.Instance.EnabledExtensions(),
	}

	sw.begin()
	base, err := device.NewBase(t.driver, configuration.Instance, device.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	sw.end("instance")

	if *capture != "" {
		sw.begin()
		if err := captureTo(*capture, t, base); err != nil {
			base.Release()
			return nil, err
		}
		sw.end("capture")
	}

	opts := []device.Option{device.WithLogger(logger), device.WithDeviceMapper(mapper)}
	if *dedicated {
		opts = append(opts, device.WithQueueMapper(device.QueueMapperFunc(queue.Dedicated)))
	}

	sw.begin()
	ctx, err := device.NewContextConfigurator(t.window, t.display, configuration.Context.DeviceExtensions, opts...).Build(base)
	if err != nil {
		base.Release()
		return nil, err
	}
	sw.end("context")

	report.Candidates = ctx.Candidates()
	report.Chosen = ctx.PhysicalDevice().Properties.Name
	report.Queues = ctx.Selections()

	sw.begin()
	ctx.Release()
	sw.end("release")

	report.Stages = sw.stages
	return report, nil
}

func captureTo(path string, t *target, base *device.Base) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Newf("%s exists, will not overwrite", path)
	}

	surface, err := device.NewSurface(base, t.window, t.display)
	if err != nil {
		return err
	}
	defer surface.Release()

	p, err := profile.Capture(t.source, t.platform, base, surface)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := profile.Save(f, p, *author); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
