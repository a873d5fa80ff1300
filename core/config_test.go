// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"
	"github.com/gobuffalo/envy"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/vkctx/core"
)

func TestBaseConfigBuilder(t *testing.T) {
	c := qt.New(t)

	cfg, err := core.NewBaseConfigBuilder().Build("Test", "Test", "1.0.0", "1.0.0", "1.0.0")
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.ValidationLayers, qt.HasLen, 0)
	c.Assert(cfg.Extensions, qt.IsNil)
	c.Assert(cfg.EnabledExtensions(), qt.DeepEquals, core.DefaultInstanceExtensions())
}

func TestBaseConfigBuilderValues(t *testing.T) {
	c := qt.New(t)

	layers := []string{core.KhronosValidationLayer, "VK_LAYER_KHRONOS_synchronization2"}
	cfg, err := core.NewBaseConfigBuilder().
		ValidationLayers(layers...).
		Build("Test1", "Test2", "1.3.0", "1.0.2", "1.0.3")
	c.Assert(err, qt.IsNil)

	c.Assert(cfg.ValidationLayers, qt.DeepEquals, layers)
	c.Assert(cfg.ApplicationName, qt.Equals, "Test1")
	c.Assert(cfg.EngineName, qt.Equals, "Test2")
	c.Assert(cfg.APIVersion, qt.Equals, core.MakeVersion(0, 1, 3, 0))
	c.Assert(cfg.ApplicationVersion, qt.Equals, core.MakeVersion(0, 1, 0, 2))
	c.Assert(cfg.EngineVersion, qt.Equals, core.MakeVersion(0, 1, 0, 3))
	c.Assert(cfg.Extensions, qt.IsNil)
}

func TestBaseConfigBuilderShortcuts(t *testing.T) {
	c := qt.New(t)

	cfg, err := core.NewBaseConfigBuilder().
		UseKhronosValidation().
		UseCoreExtensions().
		Build("Test", "Test", "1.0.0", "1.0.0", "1.0.0")
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.ValidationLayers, qt.DeepEquals, []string{core.KhronosValidationLayer})
	c.Assert(cfg.Extensions, qt.DeepEquals, core.DefaultInstanceExtensions())
}

func TestBaseConfigBuilderErrors(t *testing.T) {
	c := qt.New(t)

	_, err := core.NewBaseConfigBuilder().Build("Test", "Test", "1.0", "1.0.0", "1.0.0")
	c.Assert(errors.Is(err, core.ErrConfiguration), qt.IsTrue)
	c.Assert(err, qt.ErrorMatches, `api version: .*`)

	_, err = core.NewBaseConfigBuilder().Build("Test", "Test", "1.0.0", "x.0.0", "1.0.0")
	c.Assert(err, qt.ErrorMatches, `application version: .*`)

	_, err = core.NewBaseConfigBuilder().
		ValidationLayers("VK_LAYER\x00").
		Build("Test", "Test", "1.0.0", "1.0.0", "1.0.0")
	var eerr *core.EncodingError
	c.Assert(errors.As(err, &eerr), qt.IsTrue)
}

func TestDefaultInstanceExtensions(t *testing.T) {
	c := qt.New(t)
	exts := core.DefaultInstanceExtensions()
	c.Assert(exts[0], qt.Equals, core.SurfaceExtension)
	c.Assert(exts[len(exts)-1], qt.Equals, core.DebugUtilsExtension)
}

func TestLoadConfigurationDefaults(t *testing.T) {
	envy.Temp(func() {
		c := qt.New(t)
		for _, key := range []string{core.EnvValidationLayers, core.EnvInstanceExtensions, core.EnvDeviceExtensions, core.EnvDeviceTypes, core.EnvAPIVersion, core.EnvEventPollDelay} {
			envy.Set(key, "")
		}
		envy.Set(core.EnvAPIVersion, "1.1.0")
		envy.Set(core.EnvEventPollDelay, "8")
		envy.Set(core.EnvDeviceExtensions, core.SwapchainExtension)

		cfg, err := core.LoadConfiguration()
		c.Assert(err, qt.IsNil)
		c.Assert(cfg.Instance.APIVersion, qt.Equals, core.MakeVersion(0, 1, 1, 0))
		c.Assert(cfg.Instance.ValidationLayers, qt.HasLen, 0)
		c.Assert(cfg.Instance.Extensions, qt.IsNil)
		c.Assert(cfg.Context.DeviceExtensions, qt.DeepEquals, []string{core.SwapchainExtension})
		c.Assert(cfg.Time.EventPollDelay, qt.Equals, 8)
	})
}

func TestLoadEnvFile(t *testing.T) {
	envy.Temp(func() {
		c := qt.New(t)

		path := filepath.Join(t.TempDir(), "koru.env")
		err := ioutil.WriteFile(path, []byte(
			"KORU_APP_NAME=envtest\n"+
				"KORU_API_VERSION=1.2.0\n"+
				"KORU_VALIDATION_LAYERS=VK_LAYER_KHRONOS_validation, VK_LAYER_LUNARG_monitor\n"+
				"KORU_INSTANCE_EXTENSIONS=VK_KHR_surface,VK_KHR_xcb_surface\n"+
				"KORU_DEVICE_TYPES=discrete,integrated\n"+
				"KORU_EVENT_POLL_DELAY=16\n"), 0o600)
		c.Assert(err, qt.IsNil)
		c.Assert(core.LoadEnvFile(path), qt.IsNil)

		cfg, err := core.LoadConfiguration()
		c.Assert(err, qt.IsNil)
		c.Assert(cfg.Instance.ApplicationName, qt.Equals, "envtest")
		c.Assert(cfg.Instance.APIVersion, qt.Equals, core.MakeVersion(0, 1, 2, 0))
		c.Assert(cfg.Instance.ValidationLayers, qt.DeepEquals, []string{core.KhronosValidationLayer, "VK_LAYER_LUNARG_monitor"})
		c.Assert(cfg.Instance.EnabledExtensions(), qt.DeepEquals, []string{core.SurfaceExtension, core.XcbSurfaceExtension})
		c.Assert(cfg.Context.DeviceTypes, qt.DeepEquals, []string{"discrete", "integrated"})
		c.Assert(cfg.Time.EventPollDelay, qt.Equals, 16)
	})
}

func TestLoadEnvFileMissing(t *testing.T) {
	c := qt.New(t)
	err := core.LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
	c.Assert(err, qt.ErrorMatches, `read env file .*`)
}

func TestLoadConfigurationBadVersion(t *testing.T) {
	envy.Temp(func() {
		c := qt.New(t)
		envy.Set(core.EnvAPIVersion, "one")
		_, err := core.LoadConfiguration()
		c.Assert(errors.Is(err, core.ErrConfiguration), qt.IsTrue)
	})
}

func TestNewLogger(t *testing.T) {
	c := qt.New(t)

	var out bytes.Buffer
	logger, err := core.NewLogger("debug", &out)
	c.Assert(err, qt.IsNil)
	c.Assert(logger.GetLevel(), qt.Equals, log.DebugLevel)
	logger.Debug("negotiating")
	c.Assert(out.String(), qt.Contains, "negotiating")

	_, err = core.NewLogger("loud", &out)
	c.Assert(errors.Is(err, core.ErrConfiguration), qt.IsTrue)
}

func TestDefaultLogger(t *testing.T) {
	c := qt.New(t)
	logger := core.DefaultLogger()
	c.Assert(logger.GetLevel(), qt.Equals, log.WarnLevel)
	c.Assert(logger.Out, qt.Equals, io.Writer(os.Stderr))
	c.Assert(logger.IsLevelEnabled(log.FatalLevel), qt.IsTrue)
	c.Assert(logger.IsLevelEnabled(log.InfoLevel), qt.IsFalse)
}
