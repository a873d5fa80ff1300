// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package device negotiates a rendering device with the graphics
// driver: it creates the instance and debug messenger, the window
// surface, picks a physical device and queue families, and creates the
// logical device with its queues. Everything created is released in
// reverse order of creation.
package device

import "github.com/devblok/vkctx/device/queue"

// Handles issued by a Driver. Zero is the null handle.
type (
	InstanceHandle       uint64
	MessengerHandle      uint64
	SurfaceHandle        uint64
	PhysicalDeviceHandle uint64
	DeviceHandle         uint64
	QueueHandle          uint64
)

// Driver is the native graphics API as seen by this package.
// Methods that can fail in the native API return an error, the others
// cannot fail once their handle arguments are valid.
type Driver interface {
	// InstanceLayers returns the layers the driver exposes
	InstanceLayers() ([]LayerProperties, error)

	// InstanceExtensions returns the instance extensions the driver exposes
	InstanceExtensions() ([]ExtensionProperties, error)

	// CreateInstance creates an instance. When info.Messenger is set the
	// messenger receives messages emitted while the instance is created.
	CreateInstance(info InstanceCreateInfo) (InstanceHandle, error)
	DestroyInstance(instance InstanceHandle)

	CreateDebugMessenger(instance InstanceHandle, info MessengerCreateInfo) (MessengerHandle, error)
	DestroyDebugMessenger(instance InstanceHandle, messenger MessengerHandle)

	CreateWin32Surface(instance InstanceHandle, info Win32SurfaceInfo) (SurfaceHandle, error)
	CreateWaylandSurface(instance InstanceHandle, info WaylandSurfaceInfo) (SurfaceHandle, error)
	CreateXcbSurface(instance InstanceHandle, info XcbSurfaceInfo) (SurfaceHandle, error)
	CreateXlibSurface(instance InstanceHandle, info XlibSurfaceInfo) (SurfaceHandle, error)
	DestroySurface(instance InstanceHandle, surface SurfaceHandle)

	SurfaceCapabilities(physical PhysicalDeviceHandle, surface SurfaceHandle) (SurfaceCapabilities, error)
	SurfaceFormats(physical PhysicalDeviceHandle, surface SurfaceHandle) ([]SurfaceFormat, error)
	SurfacePresentModes(physical PhysicalDeviceHandle, surface SurfaceHandle) ([]PresentMode, error)
	SurfaceSupport(physical PhysicalDeviceHandle, family uint32, surface SurfaceHandle) (bool, error)

	// PhysicalDevices returns the physical devices in driver order
	PhysicalDevices(instance InstanceHandle) ([]PhysicalDeviceHandle, error)
	PhysicalDeviceProperties(physical PhysicalDeviceHandle) PhysicalDeviceProperties
	PhysicalDeviceFeatures(physical PhysicalDeviceHandle) Features
	DeviceExtensions(physical PhysicalDeviceHandle) ([]ExtensionProperties, error)
	QueueFamilies(physical PhysicalDeviceHandle) []QueueFamilyProperties

	CreateDevice(physical PhysicalDeviceHandle, info DeviceCreateInfo) (DeviceHandle, error)
	DestroyDevice(device DeviceHandle)

	// DeviceQueue returns the queue at index within family, the
	// queue must have been requested at device creation
	DeviceQueue(device DeviceHandle, family, index uint32) QueueHandle
}

// InstanceCreateInfo is what the driver needs to create an instance
type InstanceCreateInfo struct {
	ApplicationName    string
	EngineName         string
	ApplicationVersion uint32
	EngineVersion      uint32
	APIVersion         uint32
	Layers             []string
	Extensions         []string

	// Messenger is chained into instance creation
	Messenger *MessengerCreateInfo
}

// MessengerCreateInfo selects the messages delivered to Callback
type MessengerCreateInfo struct {
	Severities MessageSeverity
	Types      MessageType

	// Callback returns whether the call that triggered the message
	// should be aborted
	Callback func(DebugMessage) bool
}

// DeviceCreateInfo is what the driver needs to create a logical device
type DeviceCreateInfo struct {
	Queues     []queue.CreateInfo
	Extensions []string
	Features   Features
}

// Win32SurfaceInfo creates a surface for a Win32 window
type Win32SurfaceInfo struct {
	HInstance uintptr
	HWnd      uintptr
}

// WaylandSurfaceInfo creates a surface for a Wayland surface
type WaylandSurfaceInfo struct {
	Display uintptr
	Surface uintptr
}

// XcbSurfaceInfo creates a surface for an XCB window
type XcbSurfaceInfo struct {
	Connection uintptr
	Window     uint32
}

// XlibSurfaceInfo creates a surface for an Xlib window
type XlibSurfaceInfo struct {
	Display uintptr
	Window  uint64
}
