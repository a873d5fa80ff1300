// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package profile records what a driver reports and replays it. A
// replayed profile is a device.Driver that keeps a log of every handle
// it creates and destroys.
package profile

import (
	"github.com/devblok/vkctx/device"
)

// Platforms a profile can create surfaces for
const (
	PlatformWin32   = "win32"
	PlatformWayland = "wayland"
	PlatformXcb     = "xcb"
	PlatformXlib    = "xlib"
)

// Profile is everything a driver reported
type Profile struct {
	Name       string                       `json:"name"`
	Layers     []device.LayerProperties     `json:"layers"`
	Extensions []device.ExtensionProperties `json:"extensions"`

	// Platforms limits surface creation, empty allows every platform
	Platforms []string        `json:"platforms,omitempty"`
	Devices   []DeviceProfile `json:"devices"`
}

// DeviceProfile is everything reported for one physical device
type DeviceProfile struct {
	Properties    device.PhysicalDeviceProperties `json:"properties"`
	Features      device.Features                 `json:"features"`
	Extensions    []device.ExtensionProperties    `json:"extensions"`
	QueueFamilies []QueueFamily                   `json:"queueFamilies"`
	Surface       device.SurfaceProperties        `json:"surface"`
}

// QueueFamily is a queue family and whether it can present to the
// profiled surface
type QueueFamily struct {
	device.QueueFamilyProperties
	Present bool `json:"present"`
}

func (p *Profile) supportsPlatform(platform string) bool {
	if len(p.Platforms) == 0 {
		return true
	}
	for _, pl := range p.Platforms {
		if pl == platform {
			return true
		}
	}
	return false
}

func (d *DeviceProfile) families() []device.QueueFamilyProperties {
	out := make([]device.QueueFamilyProperties, 0, len(d.QueueFamilies))
	for _, f := range d.QueueFamilies {
		out = append(out, f.QueueFamilyProperties)
	}
	return out
}
