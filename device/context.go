// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"github.com/devblok/vkctx/device/queue"
)

// Context owns everything negotiated for a window: the Base, the
// surface, the logical device and its queues. Release tears them down
// in reverse order of creation: logical device, surface, then the Base
// with its debug messenger and instance.
type Context struct {
	base       *Base
	surface    *Surface
	physical   PhysicalDeviceInfo
	candidates []PhysicalDeviceInfo
	selections *queue.Selections
	device     DeviceHandle
	queues     [queue.OperationCount]QueueHandle

	rel releaser
}

// Base returns the owned Base
func (c *Context) Base() *Base {
	return c.base
}

// Surface returns the owned surface
func (c *Context) Surface() *Surface {
	return c.surface
}

// PhysicalDevice returns the selected physical device
func (c *Context) PhysicalDevice() PhysicalDeviceInfo {
	return c.physical
}

// Candidates returns every device that passed enumeration, in the order
// they were considered
func (c *Context) Candidates() []PhysicalDeviceInfo {
	return c.candidates
}

// Selections returns the queue plan the device was created with
func (c *Context) Selections() *queue.Selections {
	return c.selections
}

// Device returns the logical device
func (c *Context) Device() DeviceHandle {
	return c.device
}

// Queue returns the queue assigned to op. Operations sharing a queue
// return the same handle.
func (c *Context) Queue(op queue.Operation) (QueueHandle, bool) {
	if !op.Valid() || c.queues[op] == 0 {
		return 0, false
	}
	return c.queues[op], true
}

// Release destroys the logical device, the surface and the Base
func (c *Context) Release() {
	c.rel.Release()
}
