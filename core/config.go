// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Instance InstanceConfiguration
	Context  ContextConfiguration
	Time     TimeConfiguration

	// LogLevel is a logrus level name
	LogLevel string
}

// InstanceConfiguration describes the instance to create.
// Versions are packed with MakeVersion.
type InstanceConfiguration struct {
	ApplicationName string
	EngineName      string

	// ValidationLayers are checked for availability before the
	// instance is created, in this order.
	ValidationLayers []string

	ApplicationVersion uint32
	EngineVersion      uint32
	APIVersion         uint32

	// Extensions when nil fall back to DefaultInstanceExtensions
	Extensions []string
}

// EnabledExtensions returns the instance extensions to request.
func (c InstanceConfiguration) EnabledExtensions() []string {
	if c.Extensions == nil {
		return DefaultInstanceExtensions()
	}
	return c.Extensions
}

// ContextConfiguration holds what device negotiation needs from the
// application.
type ContextConfiguration struct {
	DeviceExtensions []string

	// DeviceTypes lists acceptable device types by name, in
	// order of preference. Empty means discrete only.
	DeviceTypes []string
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// EventPollDelay is the delay between event polls in milliseconds
	EventPollDelay int
}

// DefaultInstanceExtensions computes the instance extensions for the
// running platform: the surface extension, the platform surface
// extension and debug utils.
func DefaultInstanceExtensions() []string {
	exts := []string{SurfaceExtension}
	if ext := platformSurfaceExtension(goos, envy.Get); ext != "" {
		exts = append(exts, ext)
	}
	return append(exts, DebugUtilsExtension)
}

func platformSurfaceExtension(os string, getenv func(string, string) string) string {
	switch os {
	case "windows":
		return Win32SurfaceExtension
	case "linux", "freebsd", "openbsd", "netbsd":
		if getenv("WAYLAND_DISPLAY", "") != "" {
			return WaylandSurfaceExtension
		}
		return XlibSurfaceExtension
	default:
		return ""
	}
}

// BaseConfigBuilder assembles an InstanceConfiguration
type BaseConfigBuilder struct {
	layers     []string
	extensions []string
}

// NewBaseConfigBuilder returns an empty builder.
func NewBaseConfigBuilder() *BaseConfigBuilder {
	return &BaseConfigBuilder{}
}

// ValidationLayers appends layers to request.
func (b *BaseConfigBuilder) ValidationLayers(layers ...string) *BaseConfigBuilder {
	b.layers = append(b.layers, layers...)
	return b
}

// UseKhronosValidation requests the Khronos validation layer.
func (b *BaseConfigBuilder) UseKhronosValidation() *BaseConfigBuilder {
	return b.ValidationLayers(KhronosValidationLayer)
}

// Extensions appends instance extensions to request.
func (b *BaseConfigBuilder) Extensions(exts ...string) *BaseConfigBuilder {
	if b.extensions == nil {
		b.extensions = []string{}
	}
	b.extensions = append(b.extensions, exts...)
	return b
}

// UseCoreExtensions requests DefaultInstanceExtensions.
func (b *BaseConfigBuilder) UseCoreExtensions() *BaseConfigBuilder {
	return b.Extensions(DefaultInstanceExtensions()...)
}

// Build parses the versions and checks that every name can be passed to
// the native API. Errors are marked ErrConfiguration.
func (b *BaseConfigBuilder) Build(app, engine, api, appVersion, engineVersion string) (InstanceConfiguration, error) {
	var (
		cfg = InstanceConfiguration{
			ApplicationName: app,
			EngineName:      engine,
		}
		err error
	)

	if cfg.APIVersion, err = ParseVersion(api); err != nil {
		return InstanceConfiguration{}, errors.Wrap(err, "api version")
	}
	if cfg.ApplicationVersion, err = ParseVersion(appVersion); err != nil {
		return InstanceConfiguration{}, errors.Wrap(err, "application version")
	}
	if cfg.EngineVersion, err = ParseVersion(engineVersion); err != nil {
		return InstanceConfiguration{}, errors.Wrap(err, "engine version")
	}

	names := append([]string{app, engine}, b.layers...)
	names = append(names, b.extensions...)
	if _, err := NativeStrings(names); err != nil {
		return InstanceConfiguration{}, err
	}

	if b.layers != nil {
		cfg.ValidationLayers = append([]string{}, b.layers...)
	}
	if b.extensions != nil {
		cfg.Extensions = append([]string{}, b.extensions...)
	}
	return cfg, nil
}

// LoadEnvFile reads a dotenv file and applies its entries on top of the
// current environment.
func LoadEnvFile(path string) error {
	vars, err := godotenv.Read(path)
	if err != nil {
		return errors.Wrapf(err, "read env file %s", path)
	}
	for k, v := range vars {
		envy.Set(k, v)
	}
	return nil
}

// LoadConfiguration builds the engine configuration from the environment.
func LoadConfiguration() (Configuration, error) {
	b := NewBaseConfigBuilder().ValidationLayers(splitList(envy.Get(EnvValidationLayers, ""))...)
	if exts := envy.Get(EnvInstanceExtensions, ""); exts != "" {
		b.Extensions(splitList(exts)...)
	}

	inst, err := b.Build(
		envy.Get(EnvApplicationName, "koru"),
		envy.Get(EnvEngineName, "koru"),
		envy.Get(EnvAPIVersion, "1.0.0"),
		envy.Get(EnvApplicationVersion, "0.1.0"),
		envy.Get(EnvEngineVersion, "0.1.0"),
	)
	if err != nil {
		return Configuration{}, err
	}

	delay, err := strconv.Atoi(envy.Get(EnvEventPollDelay, "8"))
	if err != nil || delay <= 0 {
		return Configuration{}, errors.Mark(
			errors.Newf("%s: %q is not a positive integer", EnvEventPollDelay, envy.Get(EnvEventPollDelay, "")),
			ErrConfiguration)
	}

	return Configuration{
		Instance: inst,
		Context: ContextConfiguration{
			DeviceExtensions: splitList(envy.Get(EnvDeviceExtensions, SwapchainExtension)),
			DeviceTypes:      splitList(envy.Get(EnvDeviceTypes, "")),
		},
		Time:     TimeConfiguration{EventPollDelay: delay},
		LogLevel: envy.Get(EnvLogLevel, "info"),
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
