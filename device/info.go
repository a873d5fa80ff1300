// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

// SurfaceProperties is what a physical device supports for a surface
type SurfaceProperties struct {
	Capabilities SurfaceCapabilities `json:"capabilities"`
	Formats      []SurfaceFormat     `json:"formats"`
	PresentModes []PresentMode       `json:"presentModes"`
}

// PhysicalDeviceInfo describes a physical device that passed
// enumeration
type PhysicalDeviceInfo struct {
	Handle PhysicalDeviceHandle `json:"-"`

	// Index is the position in the driver's enumeration order
	Index int `json:"index"`

	Properties    PhysicalDeviceProperties `json:"properties"`
	Features      Features                 `json:"features"`
	QueueFamilies []QueueFamilyProperties  `json:"queueFamilies"`
	Surface       SurfaceProperties        `json:"surface"`

	// EnabledFeatures are the features picked by the device mapper,
	// they are enabled when the logical device is created
	EnabledFeatures Features `json:"enabledFeatures"`
}
