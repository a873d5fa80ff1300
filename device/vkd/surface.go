// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkd

import (
	"github.com/cockroachdb/errors"
	vk "github.com/devblok/vulkan"

	"github.com/devblok/vkctx/device"
)

func (d *Driver) addSurface(instance device.InstanceHandle, create func(vk.Instance) (vk.Surface, error)) (device.SurfaceHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, err := d.instance(instance)
	if err != nil {
		return 0, err
	}

	surface, err := create(s.instance)
	if err != nil {
		return 0, err
	}
	h := device.SurfaceHandle(d.issue())
	d.surfaces[h] = &surfaceState{instance: instance, surface: surface}
	return h, nil
}

// CreateWin32Surface implements device.Driver
func (d *Driver) CreateWin32Surface(instance device.InstanceHandle, info device.Win32SurfaceInfo) (device.SurfaceHandle, error) {
	return d.addSurface(instance, func(i vk.Instance) (vk.Surface, error) {
		return createWin32Surface(i, info)
	})
}

// CreateWaylandSurface implements device.Driver
func (d *Driver) CreateWaylandSurface(instance device.InstanceHandle, info device.WaylandSurfaceInfo) (device.SurfaceHandle, error) {
	return d.addSurface(instance, func(i vk.Instance) (vk.Surface, error) {
		return createWaylandSurface(i, info)
	})
}

// CreateXcbSurface implements device.Driver
func (d *Driver) CreateXcbSurface(instance device.InstanceHandle, info device.XcbSurfaceInfo) (device.SurfaceHandle, error) {
	return d.addSurface(instance, func(i vk.Instance) (vk.Surface, error) {
		return createXcbSurface(i, info)
	})
}

// CreateXlibSurface implements device.Driver
func (d *Driver) CreateXlibSurface(instance device.InstanceHandle, info device.XlibSurfaceInfo) (device.SurfaceHandle, error) {
	return d.addSurface(instance, func(i vk.Instance) (vk.Surface, error) {
		return createXlibSurface(i, info)
	})
}

// DestroySurface implements device.Driver
func (d *Driver) DestroySurface(instance device.InstanceHandle, surface device.SurfaceHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.surfaces[surface]
	if !ok || s.instance != instance {
		return
	}
	inst, ok := d.instances[instance]
	if !ok {
		return
	}
	delete(d.surfaces, surface)
	vk.DestroySurface(inst.instance, s.surface, nil)
}

func (d *Driver) surfaceQuery(physical device.PhysicalDeviceHandle, surface device.SurfaceHandle) (vk.PhysicalDevice, vk.Surface, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	pd, err := d.physicalDevice(physical)
	if err != nil {
		return nil, vk.NullSurface, err
	}
	s, ok := d.surfaces[surface]
	if !ok {
		return nil, vk.NullSurface, errors.Wrapf(ErrUnknownHandle, "surface %d", surface)
	}
	return pd, s.surface, nil
}

// SurfaceCapabilities implements device.Driver
func (d *Driver) SurfaceCapabilities(physical device.PhysicalDeviceHandle, surface device.SurfaceHandle) (device.SurfaceCapabilities, error) {
	pd, sf, err := d.surfaceQuery(physical, surface)
	if err != nil {
		return device.SurfaceCapabilities{}, err
	}

	var caps vk.SurfaceCapabilities
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(pd, sf, &caps)); err != nil {
		return device.SurfaceCapabilities{}, errors.Wrap(err, "vk.GetPhysicalDeviceSurfaceCapabilities()")
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	return surfaceCapabilities(caps), nil
}

// SurfaceFormats implements device.Driver
func (d *Driver) SurfaceFormats(physical device.PhysicalDeviceHandle, surface device.SurfaceHandle) ([]device.SurfaceFormat, error) {
	pd, sf, err := d.surfaceQuery(physical, surface)
	if err != nil {
		return nil, err
	}

	var count uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(pd, sf, &count, nil)); err != nil {
		return nil, errors.Wrap(err, "vk.GetPhysicalDeviceSurfaceFormats()")
	}
	formats := make([]vk.SurfaceFormat, count)
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(pd, sf, &count, formats)); err != nil {
		return nil, errors.Wrap(err, "vk.GetPhysicalDeviceSurfaceFormats()")
	}

	out := make([]device.SurfaceFormat, 0, count)
	for _, f := range formats[:count] {
		f.Deref()
		out = append(out, device.SurfaceFormat{
			Format:     device.Format(f.Format),
			ColorSpace: device.ColorSpace(f.ColorSpace),
		})
	}
	return out, nil
}

// SurfacePresentModes implements device.Driver
func (d *Driver) SurfacePresentModes(physical device.PhysicalDeviceHandle, surface device.SurfaceHandle) ([]device.PresentMode, error) {
	pd, sf, err := d.surfaceQuery(physical, surface)
	if err != nil {
		return nil, err
	}

	var count uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(pd, sf, &count, nil)); err != nil {
		return nil, errors.Wrap(err, "vk.GetPhysicalDeviceSurfacePresentModes()")
	}
	modes := make([]vk.PresentMode, count)
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(pd, sf, &count, modes)); err != nil {
		return nil, errors.Wrap(err, "vk.GetPhysicalDeviceSurfacePresentModes()")
	}

	out := make([]device.PresentMode, 0, count)
	for _, m := range modes[:count] {
		out = append(out, device.PresentMode(m))
	}
	return out, nil
}

// SurfaceSupport implements device.Driver
func (d *Driver) SurfaceSupport(physical device.PhysicalDeviceHandle, family uint32, surface device.SurfaceHandle) (bool, error) {
	pd, sf, err := d.surfaceQuery(physical, surface)
	if err != nil {
		return false, err
	}

	var supported vk.Bool32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceSupport(pd, family, sf, &supported)); err != nil {
		return false, errors.Wrap(err, "vk.GetPhysicalDeviceSurfaceSupport()")
	}
	return supported == vk.True, nil
}
