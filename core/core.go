// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package core holds the engine-wide plumbing shared by every other
// package: version encoding, native string conversion, configuration
// and the process logger.
package core

// Names of the environment variables read by LoadConfiguration.
const (
	EnvApplicationName    = "KORU_APP_NAME"
	EnvEngineName         = "KORU_ENGINE_NAME"
	EnvAPIVersion         = "KORU_API_VERSION"
	EnvApplicationVersion = "KORU_APP_VERSION"
	EnvEngineVersion      = "KORU_ENGINE_VERSION"
	EnvValidationLayers   = "KORU_VALIDATION_LAYERS"
	EnvInstanceExtensions = "KORU_INSTANCE_EXTENSIONS"
	EnvDeviceExtensions   = "KORU_DEVICE_EXTENSIONS"
	EnvDeviceTypes        = "KORU_DEVICE_TYPES"
	EnvLogLevel           = "KORU_LOG_LEVEL"
	EnvEventPollDelay     = "KORU_EVENT_POLL_DELAY"
)

// Well known layer and extension names.
const (
	KhronosValidationLayer  = "VK_LAYER_KHRONOS_validation"
	SurfaceExtension        = "VK_KHR_surface"
	Win32SurfaceExtension   = "VK_KHR_win32_surface"
	WaylandSurfaceExtension = "VK_KHR_wayland_surface"
	XcbSurfaceExtension     = "VK_KHR_xcb_surface"
	XlibSurfaceExtension    = "VK_KHR_xlib_surface"
	DebugUtilsExtension     = "VK_EXT_debug_utils"
	SwapchainExtension      = "VK_KHR_swapchain"
)
