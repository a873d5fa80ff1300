// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkd

import (
	"reflect"

	vk "github.com/devblok/vulkan"
	"github.com/google/uuid"

	"github.com/devblok/vkctx/device"
)

func extensionProperties(props []vk.ExtensionProperties) []device.ExtensionProperties {
	out := make([]device.ExtensionProperties, 0, len(props))
	for _, p := range props {
		p.Deref()
		out = append(out, device.ExtensionProperties{
			Name:        vk.ToString(p.ExtensionName[:]),
			SpecVersion: p.SpecVersion,
		})
	}
	return out
}

func physicalDeviceProperties(props vk.PhysicalDeviceProperties) device.PhysicalDeviceProperties {
	cacheUUID, _ := uuid.FromBytes(props.PipelineCacheUUID[:])
	return device.PhysicalDeviceProperties{
		Name:          vk.ToString(props.DeviceName[:]),
		Type:          device.DeviceType(props.DeviceType),
		APIVersion:    props.ApiVersion,
		DriverVersion: props.DriverVersion,
		VendorID:      props.VendorID,
		DeviceID:      props.DeviceID,
		CacheUUID:     cacheUUID,
		Limits: device.Limits{
			MaxImageDimension2D:    props.Limits.MaxImageDimension2D,
			MaxBoundDescriptorSets: props.Limits.MaxBoundDescriptorSets,
			MaxViewports:           props.Limits.MaxViewports,
		},
	}
}

// queueFlags keeps the bits device.QueueFlags knows about, their values
// are the native ones.
func queueFlags(flags vk.QueueFlags) device.QueueFlags {
	const known = device.QueueGraphics | device.QueueCompute | device.QueueTransfer | device.QueueSparseBinding
	return device.QueueFlags(flags) & known
}

func surfaceCapabilities(caps vk.SurfaceCapabilities) device.SurfaceCapabilities {
	extent := func(e vk.Extent2D) device.Extent2D {
		return device.Extent2D{Width: e.Width, Height: e.Height}
	}
	return device.SurfaceCapabilities{
		MinImageCount:           caps.MinImageCount,
		MaxImageCount:           caps.MaxImageCount,
		CurrentExtent:           extent(caps.CurrentExtent),
		MinImageExtent:          extent(caps.MinImageExtent),
		MaxImageExtent:          extent(caps.MaxImageExtent),
		MaxImageArrayLayers:     caps.MaxImageArrayLayers,
		SupportedTransforms:     uint32(caps.SupportedTransforms),
		CurrentTransform:        uint32(caps.CurrentTransform),
		SupportedCompositeAlpha: uint32(caps.SupportedCompositeAlpha),
		SupportedUsageFlags:     uint32(caps.SupportedUsageFlags),
	}
}

// Features and vk.PhysicalDeviceFeatures share field names, features
// are copied by name.

func fromNativeFeatures(native vk.PhysicalDeviceFeatures) device.Features {
	var out device.Features
	src := reflect.ValueOf(native)
	dst := reflect.ValueOf(&out).Elem()
	for i := 0; i < dst.NumField(); i++ {
		if f := src.FieldByName(dst.Type().Field(i).Name); f.IsValid() {
			dst.Field(i).SetBool(vk.Bool32(f.Uint()) == vk.True)
		}
	}
	return out
}

func toNativeFeatures(features device.Features) vk.PhysicalDeviceFeatures {
	var out vk.PhysicalDeviceFeatures
	src := reflect.ValueOf(features)
	dst := reflect.ValueOf(&out).Elem()
	for i := 0; i < src.NumField(); i++ {
		f := dst.FieldByName(src.Type().Field(i).Name)
		if !f.IsValid() || !f.CanSet() {
			continue
		}
		if src.Field(i).Bool() {
			f.SetUint(uint64(vk.True))
		} else {
			f.SetUint(uint64(vk.False))
		}
	}
	return out
}
