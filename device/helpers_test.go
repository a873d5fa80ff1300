// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device_test

import (
	qt "github.com/frankban/quicktest"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/devblok/vkctx/core"
	"github.com/devblok/vkctx/device"
	"github.com/devblok/vkctx/device/profile"
)

var (
	testWindow  = device.XlibWindow{Window: 0x3a00007}
	testDisplay = device.XlibDisplay{Display: 0x5591c0de}
)

// recorder captures log entries and fatal exits instead of exiting
type recorder struct {
	logger *log.Logger
	hook   *test.Hook
	exits  []int
}

func newRecorder() *recorder {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.TraceLevel)
	r := &recorder{logger: logger, hook: hook}
	logger.ExitFunc = func(code int) {
		r.exits = append(r.exits, code)
	}
	return r
}

func (r *recorder) entries(level log.Level) []*log.Entry {
	var out []*log.Entry
	for _, e := range r.hook.AllEntries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

func loadDriver(c *qt.C, name string) *profile.Driver {
	p, err := profile.Builtin(name)
	c.Assert(err, qt.IsNil)
	return profile.NewDriver(p)
}

func instanceConfig(c *qt.C, layers ...string) core.InstanceConfiguration {
	cfg, err := core.NewBaseConfigBuilder().
		ValidationLayers(layers...).
		Build("Test", "Test", "1.0.0", "1.0.0", "1.0.0")
	c.Assert(err, qt.IsNil)
	return cfg
}

func newBase(c *qt.C, drv device.Driver, opts ...device.Option) *device.Base {
	base, err := device.NewBase(drv, instanceConfig(c), opts...)
	c.Assert(err, qt.IsNil)
	return base
}

func ops(calls []profile.Call) []string {
	var out []string
	for _, call := range calls {
		out = append(out, call.Op)
	}
	return out
}

func indexOf(calls []profile.Call, op string) int {
	for i, call := range calls {
		if call.Op == op {
			return i
		}
	}
	return -1
}
