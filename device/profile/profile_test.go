// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package profile_test

import (
	"bytes"
	"testing"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"

	"github.com/devblok/vkctx/core"
	"github.com/devblok/vkctx/device"
	"github.com/devblok/vkctx/device/profile"
	"github.com/devblok/vkctx/device/queue"
)

func builtin(c *qt.C, name string) *profile.Profile {
	p, err := profile.Builtin(name)
	c.Assert(err, qt.IsNil)
	return p
}

func instanceInfo() device.InstanceCreateInfo {
	return device.InstanceCreateInfo{
		ApplicationName: "profile test",
		APIVersion:      core.MakeVersion(0, 1, 2, 0),
		Extensions:      []string{core.SurfaceExtension, core.XlibSurfaceExtension, core.DebugUtilsExtension},
	}
}

func TestBuiltinNames(t *testing.T) {
	c := qt.New(t)
	c.Assert(profile.BuiltinNames(), qt.DeepEquals, []string{"discrete", "headless", "hybrid", "software"})
}

func TestBuiltinProfilesDecode(t *testing.T) {
	for _, name := range profile.BuiltinNames() {
		c := qt.New(t)
		p := builtin(c, name)
		c.Assert(p.Name, qt.Equals, name)
		c.Assert(p.Devices, qt.Not(qt.HasLen), 0)
		for _, dev := range p.Devices {
			c.Assert(dev.Properties.Name, qt.Not(qt.Equals), "")
			c.Assert(dev.Properties.CacheUUID.String(), qt.Not(qt.Equals), "00000000-0000-0000-0000-000000000000")
			c.Assert(dev.QueueFamilies, qt.Not(qt.HasLen), 0)
		}
	}
}

func TestBuiltinDiscrete(t *testing.T) {
	c := qt.New(t)
	p := builtin(c, "discrete")
	dev := p.Devices[0]
	c.Assert(dev.Properties.Type, qt.Equals, device.DiscreteGPU)
	c.Assert(dev.Features.SamplerAnisotropy, qt.IsTrue)
	c.Assert(dev.QueueFamilies[0].Flags, qt.Equals, device.QueueGraphics|device.QueueCompute|device.QueueTransfer|device.QueueSparseBinding)
	c.Assert(dev.QueueFamilies[0].QueueCount, qt.Equals, uint32(16))
	c.Assert(dev.QueueFamilies[0].Present, qt.IsTrue)
	c.Assert(dev.Surface.Formats[0], qt.Equals, device.SurfaceFormat{Format: device.FormatB8G8R8A8Srgb, ColorSpace: device.ColorSpaceSrgbNonlinear})
}

func TestBuiltinMissing(t *testing.T) {
	c := qt.New(t)
	_, err := profile.Builtin("quantum")
	c.Assert(err, qt.ErrorMatches, "builtin profile quantum: .*")
}

func TestArchiveRoundTrip(t *testing.T) {
	for _, name := range profile.BuiltinNames() {
		c := qt.New(t)
		p := builtin(c, name)

		var buf bytes.Buffer
		c.Assert(profile.Save(&buf, p, "koru"), qt.IsNil)

		loaded, err := profile.Load(bytes.NewReader(buf.Bytes()))
		c.Assert(err, qt.IsNil)
		c.Assert(loaded, qt.DeepEquals, p, qt.Commentf("profile %s", name))
	}
}

func TestLoadGarbage(t *testing.T) {
	c := qt.New(t)
	_, err := profile.Load(bytes.NewReader([]byte("definitely not an archive")))
	c.Assert(err, qt.ErrorMatches, "open profile archive: .*")
}

func TestDriverInstance(t *testing.T) {
	c := qt.New(t)
	drv := profile.NewDriver(builtin(c, "discrete"))

	var messages []device.DebugMessage
	info := instanceInfo()
	info.Messenger = &device.MessengerCreateInfo{
		Severities: device.AllSeverities,
		Types:      device.AllMessageTypes,
		Callback: func(msg device.DebugMessage) bool {
			messages = append(messages, msg)
			return false
		},
	}

	inst, err := drv.CreateInstance(info)
	c.Assert(err, qt.IsNil)
	c.Assert(inst, qt.Not(qt.Equals), device.InstanceHandle(0))
	c.Assert(messages, qt.HasLen, 1)
	c.Assert(messages[0].Severity, qt.Equals, device.SeverityInfo)
	c.Assert(drv.LastInstanceCreateInfo().ApplicationName, qt.Equals, "profile test")

	first, err := drv.PhysicalDevices(inst)
	c.Assert(err, qt.IsNil)
	second, err := drv.PhysicalDevices(inst)
	c.Assert(err, qt.IsNil)
	c.Assert(first, qt.DeepEquals, second)
	c.Assert(first, qt.HasLen, 1)

	drv.DestroyInstance(inst)
	c.Assert(drv.Live(), qt.Equals, 0)
	c.Assert(drv.Violations(), qt.HasLen, 0)
}

func TestDriverInstanceRejectsUnknownNames(t *testing.T) {
	c := qt.New(t)
	drv := profile.NewDriver(builtin(c, "discrete"))

	info := instanceInfo()
	info.Layers = []string{"VK_LAYER_LUNARG_api_dump"}
	_, err := drv.CreateInstance(info)
	c.Assert(err, qt.ErrorMatches, "layer not present: VK_LAYER_LUNARG_api_dump")

	info = instanceInfo()
	info.Extensions = append(info.Extensions, "VK_KHR_display")
	_, err = drv.CreateInstance(info)
	c.Assert(err, qt.ErrorMatches, "extension not present: VK_KHR_display")
	c.Assert(drv.Calls(), qt.HasLen, 0)
}

func TestDriverViolations(t *testing.T) {
	c := qt.New(t)
	drv := profile.NewDriver(builtin(c, "discrete"))

	inst, err := drv.CreateInstance(instanceInfo())
	c.Assert(err, qt.IsNil)
	surface, err := drv.CreateXlibSurface(inst, device.XlibSurfaceInfo{Display: 1, Window: 2})
	c.Assert(err, qt.IsNil)

	drv.DestroyInstance(inst)
	drv.DestroySurface(inst, surface)
	drv.DestroySurface(inst, surface)

	c.Assert(drv.Destroyed(uint64(surface)), qt.Equals, 2)
	c.Assert(drv.Violations(), qt.DeepEquals, []string{
		"DestroyInstance: surface 3 still alive",
		"DestroySurface: handle 3 destroyed 2 times",
	})
}

func TestDriverFaults(t *testing.T) {
	c := qt.New(t)
	drv := profile.NewDriver(builtin(c, "discrete"))
	lost := errors.New("VK_ERROR_DEVICE_LOST")
	drv.FailOn("SurfaceFormats", lost)

	inst, err := drv.CreateInstance(instanceInfo())
	c.Assert(err, qt.IsNil)
	surface, err := drv.CreateXlibSurface(inst, device.XlibSurfaceInfo{Display: 1, Window: 2})
	c.Assert(err, qt.IsNil)
	pds, err := drv.PhysicalDevices(inst)
	c.Assert(err, qt.IsNil)

	_, err = drv.SurfaceFormats(pds[0], surface)
	c.Assert(errors.Is(err, lost), qt.IsTrue)
	_, err = drv.SurfacePresentModes(pds[0], surface)
	c.Assert(err, qt.IsNil)
}

func TestDriverCreateDeviceChecks(t *testing.T) {
	c := qt.New(t)
	drv := profile.NewDriver(builtin(c, "discrete"))
	inst, err := drv.CreateInstance(instanceInfo())
	c.Assert(err, qt.IsNil)
	pds, err := drv.PhysicalDevices(inst)
	c.Assert(err, qt.IsNil)

	tests := []struct {
		info device.DeviceCreateInfo
		err  string
	}{{
		info: device.DeviceCreateInfo{},
		err:  "no queues requested",
	}, {
		info: device.DeviceCreateInfo{Queues: []queue.CreateInfo{{FamilyIndex: 7, QueueCount: 1, Priorities: []float32{1}}}},
		err:  "queue family 7 out of range",
	}, {
		info: device.DeviceCreateInfo{Queues: []queue.CreateInfo{{FamilyIndex: 1, QueueCount: 3, Priorities: []float32{1, 1, 1}}}},
		err:  "queue family 1: 3 queues requested, 2 available",
	}, {
		info: device.DeviceCreateInfo{Queues: []queue.CreateInfo{{FamilyIndex: 0, QueueCount: 2, Priorities: []float32{1}}}},
		err:  "queue family 0: 2 queues with 1 priorities",
	}, {
		info: device.DeviceCreateInfo{
			Queues:     []queue.CreateInfo{{FamilyIndex: 0, QueueCount: 1, Priorities: []float32{1}}},
			Extensions: []string{"VK_KHR_ray_tracing_pipeline"},
		},
		err: "extension not present: VK_KHR_ray_tracing_pipeline",
	}, {
		info: device.DeviceCreateInfo{
			Queues:   []queue.CreateInfo{{FamilyIndex: 0, QueueCount: 1, Priorities: []float32{1}}},
			Features: device.Features{DualSrcBlend: true},
		},
		err: "feature not present: DualSrcBlend",
	}}
	for _, test := range tests {
		_, err := drv.CreateDevice(pds[0], test.info)
		c.Check(err, qt.ErrorMatches, test.err)
	}

	dev, err := drv.CreateDevice(pds[0], device.DeviceCreateInfo{
		Queues: []queue.CreateInfo{
			{FamilyIndex: 0, QueueCount: 2, Priorities: []float32{1, 1}},
			{FamilyIndex: 2, QueueCount: 1, Priorities: []float32{1}},
		},
		Extensions: []string{core.SwapchainExtension},
		Features:   device.Features{SamplerAnisotropy: true},
	})
	c.Assert(err, qt.IsNil)

	q00 := drv.DeviceQueue(dev, 0, 0)
	q01 := drv.DeviceQueue(dev, 0, 1)
	q20 := drv.DeviceQueue(dev, 2, 0)
	c.Assert(q00, qt.Not(qt.Equals), device.QueueHandle(0))
	c.Assert(q01, qt.Not(qt.Equals), q00)
	c.Assert(q20, qt.Not(qt.Equals), device.QueueHandle(0))
	c.Assert(drv.DeviceQueue(dev, 1, 0), qt.Equals, device.QueueHandle(0))

	drv.DestroyDevice(dev)
	drv.DestroyInstance(inst)
	c.Assert(drv.Violations(), qt.HasLen, 0)
}

func TestDriverSurfacePlatforms(t *testing.T) {
	c := qt.New(t)
	drv := profile.NewDriver(builtin(c, "software"))
	inst, err := drv.CreateInstance(instanceInfo())
	c.Assert(err, qt.IsNil)

	_, err = drv.CreateWin32Surface(inst, device.Win32SurfaceInfo{HInstance: 1, HWnd: 2})
	c.Assert(err, qt.ErrorMatches, `profile "software" cannot present to win32 windows`)
	_, err = drv.CreateXcbSurface(inst, device.XcbSurfaceInfo{Connection: 1, Window: 2})
	c.Assert(err, qt.IsNil)
	_, err = drv.CreateXlibSurface(inst, device.XlibSurfaceInfo{})
	c.Assert(err, qt.ErrorMatches, "null display or window")
}

func BenchmarkArchiveLoad(b *testing.B) {
	p, err := profile.Builtin("hybrid")
	if err != nil {
		b.Fatal(err)
	}
	var buf bytes.Buffer
	if err := profile.Save(&buf, p, "bench"); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for idx := 0; idx < b.N; idx++ {
		profile.Load(bytes.NewReader(buf.Bytes()))
	}
}
