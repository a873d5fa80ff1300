// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkd

import (
	"testing"

	vk "github.com/devblok/vulkan"
	qt "github.com/frankban/quicktest"

	"github.com/devblok/vkctx/device"
)

func TestFeaturesConversion(t *testing.T) {
	c := qt.New(t)
	features := device.Features{
		RobustBufferAccess: true,
		GeometryShader:     true,
		SamplerAnisotropy:  true,
		ShaderInt16:        true,
	}

	native := toNativeFeatures(features)
	c.Assert(native.RobustBufferAccess, qt.Equals, vk.Bool32(vk.True))
	c.Assert(native.GeometryShader, qt.Equals, vk.Bool32(vk.True))
	c.Assert(native.TessellationShader, qt.Equals, vk.Bool32(vk.False))
	c.Assert(fromNativeFeatures(native), qt.DeepEquals, features)
}

func TestQueueFlags(t *testing.T) {
	c := qt.New(t)
	// graphics, transfer and protected
	flags := vk.QueueFlags(0x1 | 0x4 | 0x10)
	c.Assert(queueFlags(flags), qt.Equals, device.QueueGraphics|device.QueueTransfer)
}

func TestPhysicalDeviceProperties(t *testing.T) {
	c := qt.New(t)
	var props vk.PhysicalDeviceProperties
	copy(props.DeviceName[:], "Test GPU\x00")
	props.DeviceType = vk.PhysicalDeviceTypeDiscreteGpu
	props.VendorID = 0x10de
	props.PipelineCacheUUID = [16]byte{1, 2, 3, 4}
	props.Limits.MaxViewports = 16

	got := physicalDeviceProperties(props)
	c.Assert(got.Name, qt.Equals, "Test GPU")
	c.Assert(got.Type, qt.Equals, device.DiscreteGPU)
	c.Assert(got.VendorID, qt.Equals, uint32(0x10de))
	c.Assert(got.CacheUUID.String(), qt.Equals, "01020304-0000-0000-0000-000000000000")
	c.Assert(got.Limits.MaxViewports, qt.Equals, uint32(16))
}
