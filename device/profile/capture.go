// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package profile

import (
	"github.com/cockroachdb/errors"

	"github.com/devblok/vkctx/device"
)

// Capture records everything base's driver reports, including surface
// support for every physical device. platform names the kind of window
// surface was created for.
func Capture(name, platform string, base *device.Base, surface *device.Surface) (*Profile, error) {
	drv := base.Driver()

	layers, err := drv.InstanceLayers()
	if err != nil {
		return nil, errors.Wrap(err, "instance layers")
	}
	exts, err := drv.InstanceExtensions()
	if err != nil {
		return nil, errors.Wrap(err, "instance extensions")
	}
	handles, err := drv.PhysicalDevices(base.Instance())
	if err != nil {
		return nil, errors.Wrap(err, "physical devices")
	}

	p := &Profile{
		Name:       name,
		Layers:     layers,
		Extensions: exts,
		Platforms:  []string{platform},
	}
	for _, handle := range handles {
		dev := DeviceProfile{
			Properties: drv.PhysicalDeviceProperties(handle),
			Features:   drv.PhysicalDeviceFeatures(handle),
		}
		if dev.Extensions, err = drv.DeviceExtensions(handle); err != nil {
			return nil, errors.Wrapf(err, "%s: device extensions", dev.Properties.Name)
		}
		if dev.Surface, err = surface.Properties(handle); err != nil {
			return nil, errors.Wrapf(err, "%s: surface", dev.Properties.Name)
		}
		for idx, family := range drv.QueueFamilies(handle) {
			present, err := surface.PresentSupport(handle, uint32(idx))
			if err != nil {
				return nil, errors.Wrapf(err, "%s: family %d", dev.Properties.Name, idx)
			}
			dev.QueueFamilies = append(dev.QueueFamilies, QueueFamily{
				QueueFamilyProperties: family,
				Present:               present,
			})
		}
		p.Devices = append(p.Devices, dev)
	}
	return p, nil
}
