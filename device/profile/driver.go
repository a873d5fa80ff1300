// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package profile

import (
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/devblok/vkctx/core"
	"github.com/devblok/vkctx/device"
)

// Operations recorded in the call log
const (
	OpCreateInstance        = "CreateInstance"
	OpDestroyInstance       = "DestroyInstance"
	OpCreateDebugMessenger  = "CreateDebugMessenger"
	OpDestroyDebugMessenger = "DestroyDebugMessenger"
	OpCreateSurface         = "CreateSurface"
	OpDestroySurface        = "DestroySurface"
	OpCreateDevice          = "CreateDevice"
	OpDestroyDevice         = "DestroyDevice"
)

// Call is one create or destroy call made on a Driver
type Call struct {
	Op     string
	Handle uint64
}

// ErrInvalidHandle is returned for handles the driver never issued or
// already destroyed
var ErrInvalidHandle = errors.New("invalid handle")

type instanceState struct {
	extensions map[string]bool
	physical   []device.PhysicalDeviceHandle
}

type messengerState struct {
	instance device.InstanceHandle
	info     device.MessengerCreateInfo
}

type deviceState struct {
	instance device.InstanceHandle
	physical int
	queues   map[[2]uint32]device.QueueHandle
}

// Driver replays a Profile. It is safe for concurrent use.
type Driver struct {
	profile *Profile

	mu         sync.Mutex
	next       uint64
	instances  map[device.InstanceHandle]*instanceState
	messengers map[device.MessengerHandle]messengerState
	physical   map[device.PhysicalDeviceHandle]int
	owners     map[device.PhysicalDeviceHandle]device.InstanceHandle
	surfaces   map[device.SurfaceHandle]device.InstanceHandle
	devices    map[device.DeviceHandle]*deviceState
	destroyed  map[uint64]int
	calls      []Call
	violations []string
	faults     map[string]error

	lastInstance device.InstanceCreateInfo
	lastDevice   device.DeviceCreateInfo
}

var _ device.Driver = (*Driver)(nil)

// NewDriver creates a driver answering from p
func NewDriver(p *Profile) *Driver {
	return &Driver{
		profile:    p,
		instances:  make(map[device.InstanceHandle]*instanceState),
		messengers: make(map[device.MessengerHandle]messengerState),
		physical:   make(map[device.PhysicalDeviceHandle]int),
		owners:     make(map[device.PhysicalDeviceHandle]device.InstanceHandle),
		surfaces:   make(map[device.SurfaceHandle]device.InstanceHandle),
		devices:    make(map[device.DeviceHandle]*deviceState),
		destroyed:  make(map[uint64]int),
		faults:     make(map[string]error),
	}
}

// Profile returns the replayed profile
func (d *Driver) Profile() *Profile {
	return d.profile
}

// FailOn makes every later call of the named Driver method return err
func (d *Driver) FailOn(method string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.faults[method] = err
}

// Calls returns the create and destroy calls in order
func (d *Driver) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call{}, d.calls...)
}

// Destroyed returns how many times handle was destroyed
func (d *Driver) Destroyed(handle uint64) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.destroyed[handle]
}

// Live returns the number of handles created and not yet destroyed,
// queues and physical devices excluded
func (d *Driver) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.instances) + len(d.messengers) + len(d.surfaces) + len(d.devices)
}

// Violations lists misuse seen so far: double destroys, destroying
// unknown handles and destroying parents before their children
func (d *Driver) Violations() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string{}, d.violations...)
}

// LastInstanceCreateInfo returns the arguments of the last CreateInstance
func (d *Driver) LastInstanceCreateInfo() device.InstanceCreateInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastInstance
}

// LastDeviceCreateInfo returns the arguments of the last CreateDevice
func (d *Driver) LastDeviceCreateInfo() device.DeviceCreateInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastDevice
}

func (d *Driver) issue() uint64 {
	d.next++
	return d.next
}

func (d *Driver) fault(method string) error {
	if err, ok := d.faults[method]; ok {
		return errors.Wrapf(err, "%s", method)
	}
	return nil
}

func (d *Driver) record(op string, handle uint64) {
	d.calls = append(d.calls, Call{Op: op, Handle: handle})
}

func (d *Driver) violate(format string, args ...interface{}) {
	d.violations = append(d.violations, fmt.Sprintf(format, args...))
}

func (d *Driver) markDestroyed(op string, handle uint64, live bool) {
	d.record(op, handle)
	d.destroyed[handle]++
	if !live {
		if d.destroyed[handle] > 1 {
			d.violate("%s: handle %d destroyed %d times", op, handle, d.destroyed[handle])
		} else {
			d.violate("%s: handle %d was never created", op, handle)
		}
	}
}

// InstanceLayers implements device.Driver
func (d *Driver) InstanceLayers() ([]device.LayerProperties, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fault("InstanceLayers"); err != nil {
		return nil, err
	}
	return append([]device.LayerProperties{}, d.profile.Layers...), nil
}

// InstanceExtensions implements device.Driver
func (d *Driver) InstanceExtensions() ([]device.ExtensionProperties, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fault("InstanceExtensions"); err != nil {
		return nil, err
	}
	return append([]device.ExtensionProperties{}, d.profile.Extensions...), nil
}

// CreateInstance implements device.Driver. Creation emits one info
// message to a chained messenger.
func (d *Driver) CreateInstance(info device.InstanceCreateInfo) (device.InstanceHandle, error) {
	handle, err := d.createInstance(info)
	if err != nil {
		return 0, err
	}
	if m := info.Messenger; m != nil {
		deliver(*m, device.DebugMessage{
			Severity: device.SeverityInfo,
			Type:     device.MessageGeneral,
			IDName:   "Loader Message",
			Text:     fmt.Sprintf("replaying driver profile %q", d.profile.Name),
		})
	}
	return handle, nil
}

func (d *Driver) createInstance(info device.InstanceCreateInfo) (device.InstanceHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fault("CreateInstance"); err != nil {
		return 0, err
	}
	d.lastInstance = info

	if len(d.profile.Layers) > 0 {
		layers := make(map[string]bool)
		for _, l := range d.profile.Layers {
			layers[l.Name] = true
		}
		for _, l := range info.Layers {
			if !layers[l] {
				return 0, errors.Newf("layer not present: %s", l)
			}
		}
	}

	state := &instanceState{extensions: make(map[string]bool)}
	if missing := missingNames(d.profile.Extensions, info.Extensions); len(missing) > 0 {
		return 0, errors.Newf("extension not present: %s", missing[0])
	}
	for _, ext := range info.Extensions {
		state.extensions[ext] = true
	}

	handle := device.InstanceHandle(d.issue())
	for idx := range d.profile.Devices {
		pd := device.PhysicalDeviceHandle(d.issue())
		d.physical[pd] = idx
		d.owners[pd] = handle
		state.physical = append(state.physical, pd)
	}
	d.instances[handle] = state
	d.record(OpCreateInstance, uint64(handle))
	return handle, nil
}

// DestroyInstance implements device.Driver
func (d *Driver) DestroyInstance(instance device.InstanceHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	state, live := d.instances[instance]
	d.markDestroyed(OpDestroyInstance, uint64(instance), live)
	if !live {
		return
	}
	for h, m := range d.messengers {
		if m.instance == instance {
			d.violate("%s: messenger %d still alive", OpDestroyInstance, h)
		}
	}
	for h, owner := range d.surfaces {
		if owner == instance {
			d.violate("%s: surface %d still alive", OpDestroyInstance, h)
		}
	}
	for h, dev := range d.devices {
		if dev.instance == instance {
			d.violate("%s: device %d still alive", OpDestroyInstance, h)
		}
	}
	for _, pd := range state.physical {
		delete(d.physical, pd)
		delete(d.owners, pd)
	}
	delete(d.instances, instance)
}

// CreateDebugMessenger implements device.Driver
func (d *Driver) CreateDebugMessenger(instance device.InstanceHandle, info device.MessengerCreateInfo) (device.MessengerHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fault("CreateDebugMessenger"); err != nil {
		return 0, err
	}
	state, ok := d.instances[instance]
	if !ok {
		return 0, errors.Wrapf(ErrInvalidHandle, "instance %d", instance)
	}
	if !state.extensions[core.DebugUtilsExtension] {
		return 0, errors.Newf("%s is not enabled", core.DebugUtilsExtension)
	}

	handle := device.MessengerHandle(d.issue())
	d.messengers[handle] = messengerState{instance: instance, info: info}
	d.record(OpCreateDebugMessenger, uint64(handle))
	return handle, nil
}

// DestroyDebugMessenger implements device.Driver
func (d *Driver) DestroyDebugMessenger(instance device.InstanceHandle, messenger device.MessengerHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	m, live := d.messengers[messenger]
	d.markDestroyed(OpDestroyDebugMessenger, uint64(messenger), live)
	if live && m.instance != instance {
		d.violate("%s: messenger %d belongs to instance %d, not %d", OpDestroyDebugMessenger, messenger, m.instance, instance)
	}
	delete(d.messengers, messenger)
}

func (d *Driver) createSurface(method, platform string, instance device.InstanceHandle) (device.SurfaceHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fault(method); err != nil {
		return 0, err
	}
	state, ok := d.instances[instance]
	if !ok {
		return 0, errors.Wrapf(ErrInvalidHandle, "instance %d", instance)
	}
	if !state.extensions[core.SurfaceExtension] {
		return 0, errors.Newf("%s is not enabled", core.SurfaceExtension)
	}
	if !d.profile.supportsPlatform(platform) {
		return 0, errors.Newf("profile %q cannot present to %s windows", d.profile.Name, platform)
	}

	handle := device.SurfaceHandle(d.issue())
	d.surfaces[handle] = instance
	d.record(OpCreateSurface, uint64(handle))
	return handle, nil
}

// CreateWin32Surface implements device.Driver
func (d *Driver) CreateWin32Surface(instance device.InstanceHandle, info device.Win32SurfaceInfo) (device.SurfaceHandle, error) {
	if info.HWnd == 0 {
		return 0, errors.New("null window")
	}
	return d.createSurface("CreateWin32Surface", PlatformWin32, instance)
}

// CreateWaylandSurface implements device.Driver
func (d *Driver) CreateWaylandSurface(instance device.InstanceHandle, info device.WaylandSurfaceInfo) (device.SurfaceHandle, error) {
	if info.Display == 0 || info.Surface == 0 {
		return 0, errors.New("null display or surface")
	}
	return d.createSurface("CreateWaylandSurface", PlatformWayland, instance)
}

// CreateXcbSurface implements device.Driver
func (d *Driver) CreateXcbSurface(instance device.InstanceHandle, info device.XcbSurfaceInfo) (device.SurfaceHandle, error) {
	if info.Connection == 0 || info.Window == 0 {
		return 0, errors.New("null connection or window")
	}
	return d.createSurface("CreateXcbSurface", PlatformXcb, instance)
}

// CreateXlibSurface implements device.Driver
func (d *Driver) CreateXlibSurface(instance device.InstanceHandle, info device.XlibSurfaceInfo) (device.SurfaceHandle, error) {
	if info.Display == 0 || info.Window == 0 {
		return 0, errors.New("null display or window")
	}
	return d.createSurface("CreateXlibSurface", PlatformXlib, instance)
}

// DestroySurface implements device.Driver
func (d *Driver) DestroySurface(instance device.InstanceHandle, surface device.SurfaceHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	owner, live := d.surfaces[surface]
	d.markDestroyed(OpDestroySurface, uint64(surface), live)
	if live && owner != instance {
		d.violate("%s: surface %d belongs to instance %d, not %d", OpDestroySurface, surface, owner, instance)
	}
	delete(d.surfaces, surface)
}

// surfaceDevice resolves the profile of a physical device queried
// against a live surface
func (d *Driver) surfaceDevice(method string, physical device.PhysicalDeviceHandle, surface device.SurfaceHandle) (*DeviceProfile, error) {
	if err := d.fault(method); err != nil {
		return nil, err
	}
	if _, ok := d.surfaces[surface]; !ok {
		return nil, errors.Wrapf(ErrInvalidHandle, "surface %d", surface)
	}
	idx, ok := d.physical[physical]
	if !ok {
		return nil, errors.Wrapf(ErrInvalidHandle, "physical device %d", physical)
	}
	return &d.profile.Devices[idx], nil
}

// SurfaceCapabilities implements device.Driver
func (d *Driver) SurfaceCapabilities(physical device.PhysicalDeviceHandle, surface device.SurfaceHandle) (device.SurfaceCapabilities, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, err := d.surfaceDevice("SurfaceCapabilities", physical, surface)
	if err != nil {
		return device.SurfaceCapabilities{}, err
	}
	return p.Surface.Capabilities, nil
}

// SurfaceFormats implements device.Driver
func (d *Driver) SurfaceFormats(physical device.PhysicalDeviceHandle, surface device.SurfaceHandle) ([]device.SurfaceFormat, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, err := d.surfaceDevice("SurfaceFormats", physical, surface)
	if err != nil {
		return nil, err
	}
	return append([]device.SurfaceFormat{}, p.Surface.Formats...), nil
}

// SurfacePresentModes implements device.Driver
func (d *Driver) SurfacePresentModes(physical device.PhysicalDeviceHandle, surface device.SurfaceHandle) ([]device.PresentMode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, err := d.surfaceDevice("SurfacePresentModes", physical, surface)
	if err != nil {
		return nil, err
	}
	return append([]device.PresentMode{}, p.Surface.PresentModes...), nil
}

// SurfaceSupport implements device.Driver
func (d *Driver) SurfaceSupport(physical device.PhysicalDeviceHandle, family uint32, surface device.SurfaceHandle) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, err := d.surfaceDevice("SurfaceSupport", physical, surface)
	if err != nil {
		return false, err
	}
	if int(family) >= len(p.QueueFamilies) {
		return false, errors.Newf("queue family %d out of range", family)
	}
	return p.QueueFamilies[family].Present, nil
}

// PhysicalDevices implements device.Driver
func (d *Driver) PhysicalDevices(instance device.InstanceHandle) ([]device.PhysicalDeviceHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fault("PhysicalDevices"); err != nil {
		return nil, err
	}
	state, ok := d.instances[instance]
	if !ok {
		return nil, errors.Wrapf(ErrInvalidHandle, "instance %d", instance)
	}
	return append([]device.PhysicalDeviceHandle{}, state.physical...), nil
}

func (d *Driver) deviceProfile(physical device.PhysicalDeviceHandle) *DeviceProfile {
	d.mu.Lock()
	defer d.mu.Unlock()
	idx, ok := d.physical[physical]
	if !ok {
		return &DeviceProfile{}
	}
	return &d.profile.Devices[idx]
}

// PhysicalDeviceProperties implements device.Driver
func (d *Driver) PhysicalDeviceProperties(physical device.PhysicalDeviceHandle) device.PhysicalDeviceProperties {
	return d.deviceProfile(physical).Properties
}

// PhysicalDeviceFeatures implements device.Driver
func (d *Driver) PhysicalDeviceFeatures(physical device.PhysicalDeviceHandle) device.Features {
	return d.deviceProfile(physical).Features
}

// DeviceExtensions implements device.Driver
func (d *Driver) DeviceExtensions(physical device.PhysicalDeviceHandle) ([]device.ExtensionProperties, error) {
	d.mu.Lock()
	err := d.fault("DeviceExtensions")
	d.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return append([]device.ExtensionProperties{}, d.deviceProfile(physical).Extensions...), nil
}

// QueueFamilies implements device.Driver
func (d *Driver) QueueFamilies(physical device.PhysicalDeviceHandle) []device.QueueFamilyProperties {
	return d.deviceProfile(physical).families()
}

// CreateDevice implements device.Driver. It checks the request against
// the profile the way a driver would.
func (d *Driver) CreateDevice(physical device.PhysicalDeviceHandle, info device.DeviceCreateInfo) (device.DeviceHandle, error) {
	handle, messengers, err := d.createDevice(physical, info)
	if err != nil {
		return 0, err
	}
	for _, m := range messengers {
		deliver(m, device.DebugMessage{
			Severity: device.SeverityVerbose,
			Type:     device.MessageGeneral,
			IDName:   "Device Message",
			Text:     fmt.Sprintf("created logical device %d", handle),
		})
	}
	return handle, nil
}

func (d *Driver) createDevice(physical device.PhysicalDeviceHandle, info device.DeviceCreateInfo) (device.DeviceHandle, []device.MessengerCreateInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fault("CreateDevice"); err != nil {
		return 0, nil, err
	}
	d.lastDevice = info

	idx, ok := d.physical[physical]
	if !ok {
		return 0, nil, errors.Wrapf(ErrInvalidHandle, "physical device %d", physical)
	}
	p := &d.profile.Devices[idx]

	if missing := missingNames(p.Extensions, info.Extensions); len(missing) > 0 {
		return 0, nil, errors.Newf("extension not present: %s", missing[0])
	}
	if missing := p.Features.Missing(info.Features); len(missing) > 0 {
		return 0, nil, errors.Newf("feature not present: %s", missing[0])
	}
	if len(info.Queues) == 0 {
		return 0, nil, errors.New("no queues requested")
	}

	state := &deviceState{instance: d.owners[physical], physical: idx, queues: make(map[[2]uint32]device.QueueHandle)}
	seen := make(map[uint32]bool)
	for _, q := range info.Queues {
		if int(q.FamilyIndex) >= len(p.QueueFamilies) {
			return 0, nil, errors.Newf("queue family %d out of range", q.FamilyIndex)
		}
		if seen[q.FamilyIndex] {
			return 0, nil, errors.Newf("queue family %d requested twice", q.FamilyIndex)
		}
		seen[q.FamilyIndex] = true
		if q.QueueCount == 0 || q.QueueCount > p.QueueFamilies[q.FamilyIndex].QueueCount {
			return 0, nil, errors.Newf("queue family %d: %d queues requested, %d available",
				q.FamilyIndex, q.QueueCount, p.QueueFamilies[q.FamilyIndex].QueueCount)
		}
		if int(q.QueueCount) != len(q.Priorities) {
			return 0, nil, errors.Newf("queue family %d: %d queues with %d priorities", q.FamilyIndex, q.QueueCount, len(q.Priorities))
		}
		for i := uint32(0); i < q.QueueCount; i++ {
			state.queues[[2]uint32{q.FamilyIndex, i}] = device.QueueHandle(d.issue())
		}
	}

	handle := device.DeviceHandle(d.issue())
	d.devices[handle] = state
	d.record(OpCreateDevice, uint64(handle))

	var messengers []device.MessengerCreateInfo
	for _, m := range d.messengers {
		messengers = append(messengers, m.info)
	}
	return handle, messengers, nil
}

// DestroyDevice implements device.Driver
func (d *Driver) DestroyDevice(dev device.DeviceHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, live := d.devices[dev]
	d.markDestroyed(OpDestroyDevice, uint64(dev), live)
	delete(d.devices, dev)
}

// DeviceQueue implements device.Driver
func (d *Driver) DeviceQueue(dev device.DeviceHandle, family, index uint32) device.QueueHandle {
	d.mu.Lock()
	defer d.mu.Unlock()
	state, ok := d.devices[dev]
	if !ok {
		return 0
	}
	return state.queues[[2]uint32{family, index}]
}

func deliver(m device.MessengerCreateInfo, msg device.DebugMessage) {
	if m.Callback != nil && m.Severities&msg.Severity != 0 && m.Types&msg.Type != 0 {
		m.Callback(msg)
	}
}

func missingNames(available []device.ExtensionProperties, requested []string) []string {
	names := make(map[string]bool, len(available))
	for _, ext := range available {
		names[ext.Name] = true
	}
	var missing []string
	for _, name := range requested {
		if !names[name] {
			missing = append(missing, name)
		}
	}
	return missing
}
