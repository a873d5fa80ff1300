// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// LayerProperties describes an instance layer
type LayerProperties struct {
	Name                  string `json:"name"`
	SpecVersion           uint32 `json:"specVersion"`
	ImplementationVersion uint32 `json:"implementationVersion"`
	Description           string `json:"description,omitempty"`
}

// ExtensionProperties describes an instance or device extension
type ExtensionProperties struct {
	Name        string `json:"name"`
	SpecVersion uint32 `json:"specVersion"`
}

// DeviceType is the kind of a physical device, values match the native API
type DeviceType uint32

// Device types
const (
	OtherDevice DeviceType = iota
	IntegratedGPU
	DiscreteGPU
	VirtualGPU
	CPUDevice
)

var deviceTypeNames = []string{"other", "integrated", "discrete", "virtual", "cpu"}

func (t DeviceType) String() string {
	if int(t) < len(deviceTypeNames) {
		return deviceTypeNames[t]
	}
	return fmt.Sprintf("type(%d)", uint32(t))
}

// MarshalText implements encoding.TextMarshaler
func (t DeviceType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *DeviceType) UnmarshalText(text []byte) error {
	parsed, err := ParseDeviceType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseDeviceType parses a device type name
func ParseDeviceType(name string) (DeviceType, error) {
	for i, n := range deviceTypeNames {
		if n == name {
			return DeviceType(i), nil
		}
	}
	return 0, errors.Newf("unknown device type %q", name)
}

// Limits holds the physical device limits this package reports
type Limits struct {
	MaxImageDimension2D    uint32 `json:"maxImageDimension2D"`
	MaxBoundDescriptorSets uint32 `json:"maxBoundDescriptorSets"`
	MaxViewports           uint32 `json:"maxViewports"`
}

// PhysicalDeviceProperties describes a physical device
type PhysicalDeviceProperties struct {
	Name          string     `json:"name"`
	Type          DeviceType `json:"type"`
	APIVersion    uint32     `json:"apiVersion"`
	DriverVersion uint32     `json:"driverVersion"`
	VendorID      uint32     `json:"vendorID"`
	DeviceID      uint32     `json:"deviceID"`

	// CacheUUID is the pipeline cache UUID, stable for a given
	// device and driver
	CacheUUID uuid.UUID `json:"cacheUUID"`
	Limits    Limits    `json:"limits"`
}

// Features is the set of optional device features this package can
// query and enable
type Features struct {
	RobustBufferAccess  bool `json:"robustBufferAccess,omitempty"`
	FullDrawIndexUint32 bool `json:"fullDrawIndexUint32,omitempty"`
	ImageCubeArray      bool `json:"imageCubeArray,omitempty"`
	IndependentBlend    bool `json:"independentBlend,omitempty"`
	GeometryShader      bool `json:"geometryShader,omitempty"`
	TessellationShader  bool `json:"tessellationShader,omitempty"`
	SampleRateShading   bool `json:"sampleRateShading,omitempty"`
	DualSrcBlend        bool `json:"dualSrcBlend,omitempty"`
	LogicOp             bool `json:"logicOp,omitempty"`
	MultiDrawIndirect   bool `json:"multiDrawIndirect,omitempty"`
	DepthClamp          bool `json:"depthClamp,omitempty"`
	DepthBiasClamp      bool `json:"depthBiasClamp,omitempty"`
	FillModeNonSolid    bool `json:"fillModeNonSolid,omitempty"`
	WideLines           bool `json:"wideLines,omitempty"`
	LargePoints         bool `json:"largePoints,omitempty"`
	MultiViewport       bool `json:"multiViewport,omitempty"`
	SamplerAnisotropy   bool `json:"samplerAnisotropy,omitempty"`
	ShaderFloat64       bool `json:"shaderFloat64,omitempty"`
	ShaderInt64         bool `json:"shaderInt64,omitempty"`
	ShaderInt16         bool `json:"shaderInt16,omitempty"`
}

// Names lists the enabled features in field order
func (f Features) Names() []string {
	var names []string
	v := reflect.ValueOf(f)
	for i := 0; i < v.NumField(); i++ {
		if v.Field(i).Bool() {
			names = append(names, v.Type().Field(i).Name)
		}
	}
	return names
}

// Contains reports whether every feature enabled in other is enabled in f
func (f Features) Contains(other Features) bool {
	return len(f.Missing(other)) == 0
}

// Missing lists the features enabled in other but not in f
func (f Features) Missing(other Features) []string {
	var missing []string
	have, want := reflect.ValueOf(f), reflect.ValueOf(other)
	for i := 0; i < want.NumField(); i++ {
		if want.Field(i).Bool() && !have.Field(i).Bool() {
			missing = append(missing, want.Type().Field(i).Name)
		}
	}
	return missing
}

// QueueFlags are the capabilities of a queue family, bits match the
// native API
type QueueFlags uint32

// Queue capability bits
const (
	QueueGraphics QueueFlags = 1 << iota
	QueueCompute
	QueueTransfer
	QueueSparseBinding
)

var queueFlagNames = []string{"graphics", "compute", "transfer", "sparse"}

// Has reports whether all bits of other are set
func (f QueueFlags) Has(other QueueFlags) bool {
	return f&other == other
}

func (f QueueFlags) String() string {
	var parts []string
	for i, name := range queueFlagNames {
		if f&(1<<uint(i)) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}

// MarshalText implements encoding.TextMarshaler
func (f QueueFlags) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (f *QueueFlags) UnmarshalText(text []byte) error {
	var flags QueueFlags
	for _, part := range strings.Split(string(text), "|") {
		if part == "" {
			continue
		}
		found := false
		for i, name := range queueFlagNames {
			if name == part {
				flags |= 1 << uint(i)
				found = true
			}
		}
		if !found {
			return errors.Newf("unknown queue flag %q", part)
		}
	}
	*f = flags
	return nil
}

// QueueFamilyProperties describes a queue family
type QueueFamilyProperties struct {
	Flags              QueueFlags `json:"flags"`
	QueueCount         uint32     `json:"queueCount"`
	TimestampValidBits uint32     `json:"timestampValidBits,omitempty"`
}

// Extent2D is a width and height in pixels
type Extent2D struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// SurfaceCapabilities are the basic capabilities of a surface. Flag
// fields carry the native bit values.
type SurfaceCapabilities struct {
	MinImageCount           uint32   `json:"minImageCount"`
	MaxImageCount           uint32   `json:"maxImageCount"`
	CurrentExtent           Extent2D `json:"currentExtent"`
	MinImageExtent          Extent2D `json:"minImageExtent"`
	MaxImageExtent          Extent2D `json:"maxImageExtent"`
	MaxImageArrayLayers     uint32   `json:"maxImageArrayLayers"`
	SupportedTransforms     uint32   `json:"supportedTransforms"`
	CurrentTransform        uint32   `json:"currentTransform"`
	SupportedCompositeAlpha uint32   `json:"supportedCompositeAlpha"`
	SupportedUsageFlags     uint32   `json:"supportedUsageFlags"`
}

// Format is a native image format value
type Format uint32

// Common surface formats
const (
	FormatUndefined     Format = 0
	FormatR8G8B8A8Unorm Format = 37
	FormatR8G8B8A8Srgb  Format = 43
	FormatB8G8R8A8Unorm Format = 44
	FormatB8G8R8A8Srgb  Format = 50
)

// ColorSpace is a native color space value
type ColorSpace uint32

// ColorSpaceSrgbNonlinear is the only color space every driver supports
const ColorSpaceSrgbNonlinear ColorSpace = 0

// SurfaceFormat pairs a format with a color space
type SurfaceFormat struct {
	Format     Format     `json:"format"`
	ColorSpace ColorSpace `json:"colorSpace"`
}

// PresentMode is a native presentation mode value
type PresentMode uint32

// Present modes
const (
	PresentModeImmediate PresentMode = iota
	PresentModeMailbox
	PresentModeFifo
	PresentModeFifoRelaxed
)

var presentModeNames = []string{"immediate", "mailbox", "fifo", "fifo_relaxed"}

func (m PresentMode) String() string {
	if int(m) < len(presentModeNames) {
		return presentModeNames[m]
	}
	return fmt.Sprintf("mode(%d)", uint32(m))
}

// MessageSeverity classifies debug messages, bits match the native API
type MessageSeverity uint32

// Message severities
const (
	SeverityVerbose MessageSeverity = 0x0001
	SeverityInfo    MessageSeverity = 0x0010
	SeverityWarning MessageSeverity = 0x0100
	SeverityError   MessageSeverity = 0x1000

	AllSeverities = SeverityVerbose | SeverityInfo | SeverityWarning | SeverityError
)

func (s MessageSeverity) String() string {
	switch s {
	case SeverityVerbose:
		return "verbose"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// MessageType is the category of a debug message, bits match the
// native API
type MessageType uint32

// Message categories
const (
	MessageGeneral              MessageType = 0x1
	MessageValidation           MessageType = 0x2
	MessagePerformance          MessageType = 0x4
	MessageDeviceAddressBinding MessageType = 0x8

	AllMessageTypes = MessageGeneral | MessageValidation | MessagePerformance | MessageDeviceAddressBinding
)

func (t MessageType) String() string {
	switch t {
	case MessageGeneral:
		return "general"
	case MessageValidation:
		return "validation"
	case MessagePerformance:
		return "performance"
	case MessageDeviceAddressBinding:
		return "device_address_binding"
	default:
		return "unknown"
	}
}

// DebugMessage is a diagnostic delivered by the driver
type DebugMessage struct {
	Severity MessageSeverity
	Type     MessageType
	ID       int32
	IDName   string
	Text     string
}
