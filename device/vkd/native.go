// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkd

/*
#cgo linux LDFLAGS: -ldl

#include <stdint.h>
#include <stdlib.h>
#include <vulkan/vulkan_core.h>

#ifdef __linux__
#include <dlfcn.h>
#endif

// Platform surface create infos, laid out as in the platform headers
// so that X11, XCB and Wayland headers are not needed to build.
typedef struct {
	VkStructureType sType;
	const void*     pNext;
	VkFlags         flags;
	void*           hinstance;
	void*           hwnd;
} vkdWin32SurfaceCreateInfo;

typedef struct {
	VkStructureType sType;
	const void*     pNext;
	VkFlags         flags;
	void*           display;
	void*           surface;
} vkdWaylandSurfaceCreateInfo;

typedef struct {
	VkStructureType sType;
	const void*     pNext;
	VkFlags         flags;
	void*           connection;
	uint32_t        window;
} vkdXcbSurfaceCreateInfo;

typedef struct {
	VkStructureType sType;
	const void*     pNext;
	VkFlags         flags;
	void*           dpy;
	unsigned long   window;
} vkdXlibSurfaceCreateInfo;

typedef VkResult (*vkdCreateSurfaceFn)(VkInstance, const void*, const VkAllocationCallbacks*, VkSurfaceKHR*);

static PFN_vkGetInstanceProcAddr vkdGetInstanceProcAddr;

static void vkdSetProcAddr(void* proc) {
	vkdGetInstanceProcAddr = (PFN_vkGetInstanceProcAddr)proc;
}

static void* vkdOpenLoader(void) {
#ifdef __linux__
	void* lib = dlopen("libvulkan.so.1", RTLD_NOW | RTLD_LOCAL);
	if (lib == NULL) {
		lib = dlopen("libvulkan.so", RTLD_NOW | RTLD_LOCAL);
	}
	if (lib == NULL) {
		return NULL;
	}
	return dlsym(lib, "vkGetInstanceProcAddr");
#else
	return NULL;
#endif
}

static VkResult vkdCreateSurface(VkInstance instance, const char* name, const void* info, uint64_t* out) {
	vkdCreateSurfaceFn fn = (vkdCreateSurfaceFn)vkdGetInstanceProcAddr(instance, name);
	if (fn == NULL) {
		return VK_ERROR_EXTENSION_NOT_PRESENT;
	}
	VkSurfaceKHR surface = VK_NULL_HANDLE;
	VkResult res = fn(instance, info, NULL, &surface);
	*out = (uint64_t)surface;
	return res;
}

extern VkBool32 vkdDebugMessage(uint32_t, uint32_t, int32_t, char*, char*, uintptr_t);

static VkBool32 vkdDebugTrampoline(
	VkDebugUtilsMessageSeverityFlagBitsEXT severity,
	VkDebugUtilsMessageTypeFlagsEXT types,
	const VkDebugUtilsMessengerCallbackDataEXT* data,
	void* user) {
	return vkdDebugMessage(severity, types, data->messageIdNumber,
		(char*)data->pMessageIdName, (char*)data->pMessage, (uintptr_t)user);
}

static VkDebugUtilsMessengerCreateInfoEXT* vkdMessengerInfo(uint32_t severities, uint32_t types, uintptr_t user) {
	VkDebugUtilsMessengerCreateInfoEXT* info = calloc(1, sizeof(VkDebugUtilsMessengerCreateInfoEXT));
	info->sType = VK_STRUCTURE_TYPE_DEBUG_UTILS_MESSENGER_CREATE_INFO_EXT;
	info->messageSeverity = severities;
	info->messageType = types;
	info->pfnUserCallback = vkdDebugTrampoline;
	info->pUserData = (void*)user;
	return info;
}

static VkResult vkdCreateMessenger(VkInstance instance, const VkDebugUtilsMessengerCreateInfoEXT* info, uint64_t* out) {
	PFN_vkCreateDebugUtilsMessengerEXT fn =
		(PFN_vkCreateDebugUtilsMessengerEXT)vkdGetInstanceProcAddr(instance, "vkCreateDebugUtilsMessengerEXT");
	if (fn == NULL) {
		return VK_ERROR_EXTENSION_NOT_PRESENT;
	}
	VkDebugUtilsMessengerEXT messenger = VK_NULL_HANDLE;
	VkResult res = fn(instance, info, NULL, &messenger);
	*out = (uint64_t)messenger;
	return res;
}

static void vkdDestroyMessenger(VkInstance instance, uint64_t messenger) {
	PFN_vkDestroyDebugUtilsMessengerEXT fn =
		(PFN_vkDestroyDebugUtilsMessengerEXT)vkdGetInstanceProcAddr(instance, "vkDestroyDebugUtilsMessengerEXT");
	if (fn != NULL) {
		fn(instance, (VkDebugUtilsMessengerEXT)messenger, NULL);
	}
}
*/
import "C"

import (
	"runtime/cgo"
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/devblok/vulkan"

	"github.com/devblok/vkctx/device"
)

func setProcAddr(proc unsafe.Pointer) {
	C.vkdSetProcAddr(proc)
}

func openLoader() unsafe.Pointer {
	return C.vkdOpenLoader()
}

func nativeInstance(instance vk.Instance) C.VkInstance {
	return C.VkInstance(unsafe.Pointer(instance))
}

func createSurface(instance vk.Instance, name string, info unsafe.Pointer) (vk.Surface, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	var out C.uint64_t
	if err := vk.Error(vk.Result(C.vkdCreateSurface(nativeInstance(instance), cname, info, &out))); err != nil {
		return vk.NullSurface, errors.Wrapf(err, "%s", name)
	}
	return vk.SurfaceFromPointer(uintptr(out)), nil
}

func createWin32Surface(instance vk.Instance, info device.Win32SurfaceInfo) (vk.Surface, error) {
	ci := (*C.vkdWin32SurfaceCreateInfo)(C.calloc(1, C.sizeof_vkdWin32SurfaceCreateInfo))
	defer C.free(unsafe.Pointer(ci))
	ci.sType = C.VK_STRUCTURE_TYPE_WIN32_SURFACE_CREATE_INFO_KHR
	ci.hinstance = unsafe.Pointer(info.HInstance)
	ci.hwnd = unsafe.Pointer(info.HWnd)
	return createSurface(instance, "vkCreateWin32SurfaceKHR", unsafe.Pointer(ci))
}

func createWaylandSurface(instance vk.Instance, info device.WaylandSurfaceInfo) (vk.Surface, error) {
	ci := (*C.vkdWaylandSurfaceCreateInfo)(C.calloc(1, C.sizeof_vkdWaylandSurfaceCreateInfo))
	defer C.free(unsafe.Pointer(ci))
	ci.sType = C.VK_STRUCTURE_TYPE_WAYLAND_SURFACE_CREATE_INFO_KHR
	ci.display = unsafe.Pointer(info.Display)
	ci.surface = unsafe.Pointer(info.Surface)
	return createSurface(instance, "vkCreateWaylandSurfaceKHR", unsafe.Pointer(ci))
}

func createXcbSurface(instance vk.Instance, info device.XcbSurfaceInfo) (vk.Surface, error) {
	ci := (*C.vkdXcbSurfaceCreateInfo)(C.calloc(1, C.sizeof_vkdXcbSurfaceCreateInfo))
	defer C.free(unsafe.Pointer(ci))
	ci.sType = C.VK_STRUCTURE_TYPE_XCB_SURFACE_CREATE_INFO_KHR
	ci.connection = unsafe.Pointer(info.Connection)
	ci.window = C.uint32_t(info.Window)
	return createSurface(instance, "vkCreateXcbSurfaceKHR", unsafe.Pointer(ci))
}

func createXlibSurface(instance vk.Instance, info device.XlibSurfaceInfo) (vk.Surface, error) {
	ci := (*C.vkdXlibSurfaceCreateInfo)(C.calloc(1, C.sizeof_vkdXlibSurfaceCreateInfo))
	defer C.free(unsafe.Pointer(ci))
	ci.sType = C.VK_STRUCTURE_TYPE_XLIB_SURFACE_CREATE_INFO_KHR
	ci.dpy = unsafe.Pointer(info.Display)
	ci.window = C.ulong(info.Window)
	return createSurface(instance, "vkCreateXlibSurfaceKHR", unsafe.Pointer(ci))
}

// messengerInfo is a C allocated debug messenger create info that keeps
// its callback reachable until freed.
type messengerInfo struct {
	info   *C.VkDebugUtilsMessengerCreateInfoEXT
	handle cgo.Handle
}

func newMessengerInfo(info device.MessengerCreateInfo) *messengerInfo {
	h := cgo.NewHandle(info.Callback)
	return &messengerInfo{
		info:   C.vkdMessengerInfo(C.uint32_t(info.Severities), C.uint32_t(info.Types), C.uintptr_t(h)),
		handle: h,
	}
}

func (m *messengerInfo) pointer() unsafe.Pointer {
	return unsafe.Pointer(m.info)
}

func (m *messengerInfo) free() {
	if m == nil || m.info == nil {
		return
	}
	C.free(unsafe.Pointer(m.info))
	m.info = nil
	m.handle.Delete()
}

func createMessenger(instance vk.Instance, m *messengerInfo) (uint64, error) {
	var out C.uint64_t
	if err := vk.Error(vk.Result(C.vkdCreateMessenger(nativeInstance(instance), m.info, &out))); err != nil {
		return 0, errors.Wrap(err, "vkCreateDebugUtilsMessengerEXT")
	}
	return uint64(out), nil
}

func destroyMessenger(instance vk.Instance, messenger uint64) {
	C.vkdDestroyMessenger(nativeInstance(instance), C.uint64_t(messenger))
}
