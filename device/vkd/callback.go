// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkd

/*
#include <stdint.h>
#include <vulkan/vulkan_core.h>
*/
import "C"

import (
	"runtime/cgo"

	"github.com/devblok/vkctx/device"
)

//export vkdDebugMessage
func vkdDebugMessage(severity, types C.uint32_t, id C.int32_t, idName, text *C.char, user C.uintptr_t) C.VkBool32 {
	callback, ok := cgo.Handle(user).Value().(func(device.DebugMessage) bool)
	if !ok || callback == nil {
		return C.VK_FALSE
	}

	msg := device.DebugMessage{
		Severity: device.MessageSeverity(severity),
		Type:     device.MessageType(types),
		ID:       int32(id),
	}
	if idName != nil {
		msg.IDName = C.GoString(idName)
	}
	if text != nil {
		msg.Text = C.GoString(text)
	}
	if callback(msg) {
		return C.VK_TRUE
	}
	return C.VK_FALSE
}
