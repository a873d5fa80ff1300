// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package vkd implements device.Driver on the native Vulkan loader.
package vkd

import (
	"sync"
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/devblok/vulkan"

	"github.com/devblok/vkctx/core"
	"github.com/devblok/vkctx/device"
)

// ErrLoaderNotFound is returned by Load when no Vulkan loader could be
// opened
var ErrLoaderNotFound = errors.New("vulkan loader not found")

// ErrUnknownHandle is returned for handles this driver did not issue
var ErrUnknownHandle = errors.New("unknown handle")

// Load initializes the Vulkan bindings. procAddr is the
// vkGetInstanceProcAddr of an already loaded loader, as given by SDL;
// when nil the system loader is opened.
func Load(procAddr unsafe.Pointer) error {
	if procAddr == nil {
		var err error
		if procAddr, err = defaultProcAddr(); err != nil {
			return err
		}
	}
	vk.SetGetInstanceProcAddr(procAddr)
	setProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return errors.Wrap(err, "vk.Init()")
	}
	return nil
}

type instanceState struct {
	instance vk.Instance
	chained  *messengerInfo
	physical []device.PhysicalDeviceHandle
}

type messengerState struct {
	instance device.InstanceHandle
	native   uint64
	info     *messengerInfo
}

type surfaceState struct {
	instance device.InstanceHandle
	surface  vk.Surface
}

type deviceState struct {
	device vk.Device
	queues map[[2]uint32]device.QueueHandle
}

// Driver maps native Vulkan objects to device handles. It is safe for
// concurrent use.
type Driver struct {
	mu         sync.Mutex
	next       uint64
	instances  map[device.InstanceHandle]*instanceState
	messengers map[device.MessengerHandle]*messengerState
	surfaces   map[device.SurfaceHandle]*surfaceState
	physical   map[device.PhysicalDeviceHandle]vk.PhysicalDevice
	known      map[vk.PhysicalDevice]device.PhysicalDeviceHandle
	devices    map[device.DeviceHandle]*deviceState
	queues     map[device.QueueHandle]vk.Queue
}

var _ device.Driver = (*Driver)(nil)

// New returns a driver. Load must have been called.
func New() *Driver {
	return &Driver{
		instances:  make(map[device.InstanceHandle]*instanceState),
		messengers: make(map[device.MessengerHandle]*messengerState),
		surfaces:   make(map[device.SurfaceHandle]*surfaceState),
		physical:   make(map[device.PhysicalDeviceHandle]vk.PhysicalDevice),
		known:      make(map[vk.PhysicalDevice]device.PhysicalDeviceHandle),
		devices:    make(map[device.DeviceHandle]*deviceState),
		queues:     make(map[device.QueueHandle]vk.Queue),
	}
}

func (d *Driver) issue() uint64 {
	d.next++
	return d.next
}

func (d *Driver) instance(h device.InstanceHandle) (*instanceState, error) {
	s, ok := d.instances[h]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownHandle, "instance %d", h)
	}
	return s, nil
}

func (d *Driver) physicalDevice(h device.PhysicalDeviceHandle) (vk.PhysicalDevice, error) {
	pd, ok := d.physical[h]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownHandle, "physical device %d", h)
	}
	return pd, nil
}

// InstanceLayers implements device.Driver
func (d *Driver) InstanceLayers() ([]device.LayerProperties, error) {
	var count uint32
	if err := vk.Error(vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumerateInstanceLayerProperties()")
	}
	props := make([]vk.LayerProperties, count)
	if err := vk.Error(vk.EnumerateInstanceLayerProperties(&count, props)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumerateInstanceLayerProperties()")
	}

	layers := make([]device.LayerProperties, 0, count)
	for _, p := range props[:count] {
		p.Deref()
		layers = append(layers, device.LayerProperties{
			Name:                  vk.ToString(p.LayerName[:]),
			SpecVersion:           p.SpecVersion,
			ImplementationVersion: p.ImplementationVersion,
			Description:           vk.ToString(p.Description[:]),
		})
	}
	return layers, nil
}

// InstanceExtensions implements device.Driver
func (d *Driver) InstanceExtensions() ([]device.ExtensionProperties, error) {
	var count uint32
	if err := vk.Error(vk.EnumerateInstanceExtensionProperties("", &count, nil)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumerateInstanceExtensionProperties()")
	}
	props := make([]vk.ExtensionProperties, count)
	if err := vk.Error(vk.EnumerateInstanceExtensionProperties("", &count, props)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumerateInstanceExtensionProperties()")
	}
	return extensionProperties(props[:count]), nil
}

// CreateInstance implements device.Driver
func (d *Driver) CreateInstance(info device.InstanceCreateInfo) (device.InstanceHandle, error) {
	layers, err := core.NativeStrings(info.Layers)
	if err != nil {
		return 0, err
	}
	extensions, err := core.NativeStrings(info.Extensions)
	if err != nil {
		return 0, err
	}
	names, err := core.NativeStrings([]string{info.ApplicationName, info.EngineName})
	if err != nil {
		return 0, err
	}

	ci := vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			PApplicationName:   names[0],
			ApplicationVersion: info.ApplicationVersion,
			PEngineName:        names[1],
			EngineVersion:      info.EngineVersion,
			ApiVersion:         info.APIVersion,
		},
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
	}

	var chained *messengerInfo
	if info.Messenger != nil {
		chained = newMessengerInfo(*info.Messenger)
		ci.PNext = chained.pointer()
	}

	var instance vk.Instance
	if err := vk.Error(vk.CreateInstance(&ci, nil, &instance)); err != nil {
		chained.free()
		return 0, errors.Wrap(err, "vk.CreateInstance()")
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, nil)
		chained.free()
		return 0, errors.Wrap(err, "vk.InitInstance()")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	h := device.InstanceHandle(d.issue())
	d.instances[h] = &instanceState{instance: instance, chained: chained}
	return h, nil
}

// DestroyInstance implements device.Driver. Physical devices of the
// instance are forgotten.
func (d *Driver) DestroyInstance(instance device.InstanceHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.instances[instance]
	if !ok {
		return
	}
	delete(d.instances, instance)

	vk.DestroyInstance(s.instance, nil)
	s.chained.free()

	for _, h := range s.physical {
		delete(d.known, d.physical[h])
		delete(d.physical, h)
	}
}

// CreateDebugMessenger implements device.Driver
func (d *Driver) CreateDebugMessenger(instance device.InstanceHandle, info device.MessengerCreateInfo) (device.MessengerHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, err := d.instance(instance)
	if err != nil {
		return 0, err
	}

	mi := newMessengerInfo(info)
	native, err := createMessenger(s.instance, mi)
	if err != nil {
		mi.free()
		return 0, err
	}
	h := device.MessengerHandle(d.issue())
	d.messengers[h] = &messengerState{instance: instance, native: native, info: mi}
	return h, nil
}

// DestroyDebugMessenger implements device.Driver
func (d *Driver) DestroyDebugMessenger(instance device.InstanceHandle, messenger device.MessengerHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := d.messengers[messenger]
	if !ok || m.instance != instance {
		return
	}
	s, ok := d.instances[instance]
	if !ok {
		return
	}
	delete(d.messengers, messenger)
	destroyMessenger(s.instance, m.native)
	m.info.free()
}

// PhysicalDevices implements device.Driver
func (d *Driver) PhysicalDevices(instance device.InstanceHandle) ([]device.PhysicalDeviceHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, err := d.instance(instance)
	if err != nil {
		return nil, err
	}

	var count uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(s.instance, &count, nil)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumeratePhysicalDevices()")
	}
	devices := make([]vk.PhysicalDevice, count)
	if err := vk.Error(vk.EnumeratePhysicalDevices(s.instance, &count, devices)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumeratePhysicalDevices()")
	}

	handles := make([]device.PhysicalDeviceHandle, 0, count)
	for _, pd := range devices[:count] {
		h, ok := d.known[pd]
		if !ok {
			h = device.PhysicalDeviceHandle(d.issue())
			d.known[pd] = h
			d.physical[h] = pd
			s.physical = append(s.physical, h)
		}
		handles = append(handles, h)
	}
	return handles, nil
}

// PhysicalDeviceProperties implements device.Driver
func (d *Driver) PhysicalDeviceProperties(physical device.PhysicalDeviceHandle) device.PhysicalDeviceProperties {
	d.mu.Lock()
	pd, err := d.physicalDevice(physical)
	d.mu.Unlock()
	if err != nil {
		return device.PhysicalDeviceProperties{}
	}

	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(pd, &props)
	props.Deref()
	props.Limits.Deref()
	return physicalDeviceProperties(props)
}

// PhysicalDeviceFeatures implements device.Driver
func (d *Driver) PhysicalDeviceFeatures(physical device.PhysicalDeviceHandle) device.Features {
	d.mu.Lock()
	pd, err := d.physicalDevice(physical)
	d.mu.Unlock()
	if err != nil {
		return device.Features{}
	}

	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(pd, &features)
	features.Deref()
	return fromNativeFeatures(features)
}

// DeviceExtensions implements device.Driver
func (d *Driver) DeviceExtensions(physical device.PhysicalDeviceHandle) ([]device.ExtensionProperties, error) {
	d.mu.Lock()
	pd, err := d.physicalDevice(physical)
	d.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var count uint32
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(pd, "", &count, nil)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumerateDeviceExtensionProperties()")
	}
	props := make([]vk.ExtensionProperties, count)
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(pd, "", &count, props)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumerateDeviceExtensionProperties()")
	}
	return extensionProperties(props[:count]), nil
}

// QueueFamilies implements device.Driver
func (d *Driver) QueueFamilies(physical device.PhysicalDeviceHandle) []device.QueueFamilyProperties {
	d.mu.Lock()
	pd, err := d.physicalDevice(physical)
	d.mu.Unlock()
	if err != nil {
		return nil
	}

	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, props)

	families := make([]device.QueueFamilyProperties, 0, count)
	for _, p := range props[:count] {
		p.Deref()
		families = append(families, device.QueueFamilyProperties{
			Flags:              queueFlags(p.QueueFlags),
			QueueCount:         p.QueueCount,
			TimestampValidBits: p.TimestampValidBits,
		})
	}
	return families
}

// CreateDevice implements device.Driver
func (d *Driver) CreateDevice(physical device.PhysicalDeviceHandle, info device.DeviceCreateInfo) (device.DeviceHandle, error) {
	d.mu.Lock()
	pd, err := d.physicalDevice(physical)
	d.mu.Unlock()
	if err != nil {
		return 0, err
	}

	extensions, err := core.NativeStrings(info.Extensions)
	if err != nil {
		return 0, err
	}
	queues := make([]vk.DeviceQueueCreateInfo, 0, len(info.Queues))
	for _, q := range info.Queues {
		queues = append(queues, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: q.FamilyIndex,
			QueueCount:       q.QueueCount,
			PQueuePriorities: q.Priorities,
		})
	}

	ci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queues)),
		PQueueCreateInfos:       queues,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{toNativeFeatures(info.Features)},
	}

	var dev vk.Device
	if err := vk.Error(vk.CreateDevice(pd, &ci, nil, &dev)); err != nil {
		return 0, errors.Wrap(err, "vk.CreateDevice()")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	h := device.DeviceHandle(d.issue())
	state := &deviceState{device: dev, queues: make(map[[2]uint32]device.QueueHandle)}
	for _, q := range info.Queues {
		for i := uint32(0); i < q.QueueCount; i++ {
			var native vk.Queue
			vk.GetDeviceQueue(dev, q.FamilyIndex, i, &native)
			qh := device.QueueHandle(d.issue())
			d.queues[qh] = native
			state.queues[[2]uint32{q.FamilyIndex, i}] = qh
		}
	}
	d.devices[h] = state
	return h, nil
}

// DestroyDevice implements device.Driver
func (d *Driver) DestroyDevice(dev device.DeviceHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.devices[dev]
	if !ok {
		return
	}
	delete(d.devices, dev)
	for _, qh := range s.queues {
		delete(d.queues, qh)
	}
	vk.DeviceWaitIdle(s.device)
	vk.DestroyDevice(s.device, nil)
}

// DeviceQueue implements device.Driver
func (d *Driver) DeviceQueue(dev device.DeviceHandle, family, index uint32) device.QueueHandle {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.devices[dev]
	if !ok {
		return 0
	}
	return s.queues[[2]uint32{family, index}]
}

// Queue returns the native queue behind a handle
func (d *Driver) Queue(q device.QueueHandle) (vk.Queue, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	native, ok := d.queues[q]
	return native, ok
}
