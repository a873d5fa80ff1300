// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestTargetClosedOnFatal(t *testing.T) {
	c := qt.New(t)
	tgt, err := builtinTarget("discrete")
	c.Assert(err, qt.IsNil)

	var events []string
	tgt.release = func() { events = append(events, "release") }

	logger, hook := test.NewNullLogger()
	logger.ExitFunc = func(code int) { events = append(events, "exit") }
	tgt.closeOnFatal(logger)

	logger.Fatal("negotiation failed")
	c.Assert(hook.LastEntry().Message, qt.Equals, "negotiation failed")
	c.Assert(events, qt.DeepEquals, []string{"release", "exit"})

	tgt.close()
	c.Assert(events, qt.DeepEquals, []string{"release", "exit"})
}

func TestBuiltinTarget(t *testing.T) {
	c := qt.New(t)
	tgt, err := builtinTarget("discrete")
	c.Assert(err, qt.IsNil)
	defer tgt.close()

	c.Assert(tgt.source, qt.Equals, "builtin:discrete")
	c.Assert(platformOf(tgt.window), qt.Equals, tgt.platform)
}
