// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/vkctx/core"
	"github.com/devblok/vkctx/device/queue"
)

// ContextConfigurator negotiates a Context for a window: it creates the
// surface, picks a physical device, maps its queue families and creates
// the logical device.
type ContextConfigurator struct {
	window     WindowHandle
	display    DisplayHandle
	extensions []string
	opts       []Option
	settings   settings
}

// NewContextConfigurator prepares negotiation for a window. Every
// candidate device must support all of deviceExtensions.
func NewContextConfigurator(window WindowHandle, display DisplayHandle, deviceExtensions []string, opts ...Option) *ContextConfigurator {
	return &ContextConfigurator{
		window:     window,
		display:    display,
		extensions: append([]string{}, deviceExtensions...),
		opts:       opts,
		settings:   newSettings(opts),
	}
}

// EnumerateDevices returns the physical devices usable with surface in
// driver order, stably reordered when the device mapper ranks them.
// Rejected devices are logged at trace level.
func (c *ContextConfigurator) EnumerateDevices(base *Base, surface *Surface) ([]PhysicalDeviceInfo, error) {
	return c.enumerate(base, surface, nil)
}

func (c *ContextConfigurator) enumerate(base *Base, surface *Surface, pending *releaser) ([]PhysicalDeviceInfo, error) {
	drv, logger := base.drv, c.logger(base)

	handles, err := drv.PhysicalDevices(base.instance)
	if err != nil {
		return nil, driverFault(logger, pending, err, "enumerate physical devices")
	}

	var candidates []PhysicalDeviceInfo
	for idx, handle := range handles {
		info := PhysicalDeviceInfo{
			Handle:     handle,
			Index:      idx,
			Properties: drv.PhysicalDeviceProperties(handle),
			Features:   drv.PhysicalDeviceFeatures(handle),
		}
		reject := func(reason string) {
			logger.WithFields(log.Fields{
				"device": info.Properties.Name,
				"index":  idx,
				"reason": reason,
			}).Trace("physical device rejected")
		}

		exts, err := drv.DeviceExtensions(handle)
		if err != nil {
			reject("cannot enumerate extensions: " + err.Error())
			continue
		}
		if missing := missingExtensions(exts, c.extensions); len(missing) > 0 {
			reject("missing extensions " + strings.Join(missing, ", "))
			continue
		}

		if info.Surface, err = surface.Properties(handle); err != nil {
			return nil, err
		}
		if len(info.Surface.Formats) == 0 {
			reject("no surface formats")
			continue
		}
		if len(info.Surface.PresentModes) == 0 {
			reject("no present modes")
			continue
		}

		enabled, ok := c.settings.deviceMapper.MapDevice(info.Properties, info.Features)
		if !ok {
			reject("refused by device mapper")
			continue
		}
		info.EnabledFeatures = enabled
		info.QueueFamilies = drv.QueueFamilies(handle)
		candidates = append(candidates, info)
	}

	if ranker, ok := c.settings.deviceMapper.(Ranker); ok {
		sort.SliceStable(candidates, func(i, j int) bool {
			return ranker.Rank(candidates[i].Properties) < ranker.Rank(candidates[j].Properties)
		})
	}
	return candidates, nil
}

// DiscoverQueues walks the queue families of a candidate and records
// which operations each family can serve.
func (c *ContextConfigurator) DiscoverQueues(base *Base, surface *Surface, info PhysicalDeviceInfo) (queue.Feasibility, error) {
	families := info.QueueFamilies
	if families == nil {
		families = base.drv.QueueFamilies(info.Handle)
	}

	feasible := queue.Feasibility{Capacity: make(map[uint32]uint32, len(families))}
	for idx, family := range families {
		index := uint32(idx)
		if family.QueueCount == 0 {
			continue
		}
		feasible.Capacity[index] = family.QueueCount

		for _, check := range []struct {
			flag QueueFlags
			op   queue.Operation
		}{
			{QueueGraphics, queue.Graphics},
			{QueueCompute, queue.Compute},
			{QueueTransfer, queue.Transfer},
		} {
			if family.Flags.Has(check.flag) {
				feasible.Pairs = append(feasible.Pairs, queue.Pair{Operation: check.op, Family: index})
			}
		}

		present, err := surface.PresentSupport(info.Handle, index)
		if err != nil {
			return queue.Feasibility{}, err
		}
		if present {
			feasible.Pairs = append(feasible.Pairs, queue.Pair{Operation: queue.Present, Family: index})
		}
	}
	return feasible, nil
}

// SelectQueues discovers the queue families of a candidate and hands
// them to the queue mapper.
func (c *ContextConfigurator) SelectQueues(base *Base, surface *Surface, info PhysicalDeviceInfo) (*queue.Selections, error) {
	feasible, err := c.DiscoverQueues(base, surface, info)
	if err != nil {
		return nil, err
	}
	return c.settings.queueMapper.MapQueues(feasible)
}

// Build negotiates the Context. On success the Context takes ownership
// of base, on failure everything created here is released and base is
// left to the caller.
func (c *ContextConfigurator) Build(base *Base) (*Context, error) {
	drv, logger := base.drv, c.logger(base)

	if _, err := core.NativeStrings(c.extensions); err != nil {
		return nil, err
	}

	var (
		rel releaser
		ok  bool
	)
	defer func() {
		if !ok {
			rel.Release()
		}
	}()
	fault := func(err error, call string) error {
		return driverFault(logger, &rel, err, call)
	}

	/* Surface */
	surface, err := NewSurface(base, c.window, c.display, c.opts...)
	if err != nil {
		return nil, err
	}
	rel.push(surface.Release)
	surface.pending = &rel
	defer func() { surface.pending = nil }()

	/* Physical device */
	candidates, err := c.enumerate(base, surface, &rel)
	if err != nil {
		return nil, err
	}

	var (
		chosen     *PhysicalDeviceInfo
		selections *queue.Selections
	)
	for i := range candidates {
		candidate := candidates[i]
		sel, err := c.SelectQueues(base, surface, candidate)
		if errors.Is(err, ErrDriverFault) {
			return nil, err
		}
		if err != nil || !sel.Covers(c.settings.required...) {
			reason := "queues do not cover required operations"
			if err != nil {
				reason = "queue mapper: " + err.Error()
			}
			logger.WithFields(log.Fields{
				"device": candidate.Properties.Name,
				"index":  candidate.Index,
				"reason": reason,
			}).Trace("physical device rejected")
			continue
		}
		chosen, selections = &candidates[i], sel
		break
	}
	if chosen == nil {
		logger.WithField("candidates", len(candidates)).Error("no suitable physical device")
		return nil, errors.Wrapf(ErrNoSuitableDevice, "%d candidates", len(candidates))
	}

	/* Logical device */
	device, err := drv.CreateDevice(chosen.Handle, DeviceCreateInfo{
		Queues:     selections.CreateInfos(),
		Extensions: c.extensions,
		Features:   chosen.EnabledFeatures,
	})
	if err != nil {
		return nil, fault(err, "create device")
	}
	rel.push(func() { drv.DestroyDevice(device) })

	/* Queues */
	ctx := &Context{
		base:       base,
		surface:    surface,
		physical:   *chosen,
		candidates: candidates,
		selections: selections,
		device:     device,
	}
	for _, op := range selections.Assigned() {
		h, _ := selections.Handle(op)
		q := drv.DeviceQueue(device, h.Family, h.Offset)
		if q == 0 {
			return nil, fault(
				errors.Newf("null queue for %s at family %d offset %d", op, h.Family, h.Offset),
				"get device queue")
		}
		ctx.queues[op] = q
	}

	ctx.rel.push(base.Release)
	ctx.rel.adopt(&rel)
	ok = true

	logger.WithFields(log.Fields{
		"device":     chosen.Properties.Name,
		"type":       chosen.Properties.Type,
		"operations": selections.Assigned(),
		"families":   len(selections.CreateInfos()),
	}).Info("logical device created")
	return ctx, nil
}

func (c *ContextConfigurator) logger(base *Base) log.FieldLogger {
	return c.settings.loggerOr(base.log)
}

func missingExtensions(available []ExtensionProperties, required []string) []string {
	names := make(map[string]struct{}, len(available))
	for _, ext := range available {
		names[ext.Name] = struct{}{}
	}
	var missing []string
	for _, ext := range required {
		if _, ok := names[ext]; !ok {
			missing = append(missing, ext)
		}
	}
	return missing
}
