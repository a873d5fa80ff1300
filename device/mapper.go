// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"github.com/cockroachdb/errors"

	"github.com/devblok/vkctx/core"
	"github.com/devblok/vkctx/device/queue"
)

// DeviceMapper decides whether a physical device is acceptable and
// which features to enable on it.
type DeviceMapper interface {
	MapDevice(props PhysicalDeviceProperties, features Features) (Features, bool)
}

// Ranker is optionally implemented by a DeviceMapper to order accepted
// devices. Lower ranks come first, equal ranks keep driver order.
type Ranker interface {
	Rank(props PhysicalDeviceProperties) int
}

// DeviceMapperFunc adapts a function to DeviceMapper
type DeviceMapperFunc func(props PhysicalDeviceProperties, features Features) (Features, bool)

// MapDevice calls f
func (f DeviceMapperFunc) MapDevice(props PhysicalDeviceProperties, features Features) (Features, bool) {
	return f(props, features)
}

// QueueMapper turns the feasible operation/family pairs of a device
// into a queue selection.
type QueueMapper interface {
	MapQueues(feasible queue.Feasibility) (*queue.Selections, error)
}

// QueueMapperFunc adapts a function to QueueMapper
type QueueMapperFunc func(feasible queue.Feasibility) (*queue.Selections, error)

// MapQueues calls f
func (f QueueMapperFunc) MapQueues(feasible queue.Feasibility) (*queue.Selections, error) {
	return f(feasible)
}

// DeviceTypeMapper accepts devices of the listed types that support
// every feature in Required, and enables exactly those features.
// Types are ranked in the order listed.
type DeviceTypeMapper struct {
	Types    []DeviceType
	Required Features
}

// MapDevice implements DeviceMapper
func (m DeviceTypeMapper) MapDevice(props PhysicalDeviceProperties, features Features) (Features, bool) {
	if m.Rank(props) < 0 || !features.Contains(m.Required) {
		return Features{}, false
	}
	return m.Required, true
}

// Rank implements Ranker
func (m DeviceTypeMapper) Rank(props PhysicalDeviceProperties) int {
	for i, t := range m.Types {
		if t == props.Type {
			return i
		}
	}
	return -1
}

// Defaults used by ContextConfigurator
var (
	DefaultDeviceMapper DeviceMapper = DeviceTypeMapper{Types: []DeviceType{DiscreteGPU}}
	DefaultQueueMapper  QueueMapper  = QueueMapperFunc(queue.FirstEligible)
)

// NewDeviceTypeMapper accepts the device types named, in order of
// preference. No names yields DefaultDeviceMapper's types.
func NewDeviceTypeMapper(names ...string) (DeviceTypeMapper, error) {
	if len(names) == 0 {
		return DeviceTypeMapper{Types: []DeviceType{DiscreteGPU}}, nil
	}
	m := DeviceTypeMapper{Types: make([]DeviceType, 0, len(names))}
	for _, name := range names {
		t, err := ParseDeviceType(name)
		if err != nil {
			return DeviceTypeMapper{}, errors.Mark(err, core.ErrConfiguration)
		}
		m.Types = append(m.Types, t)
	}
	return m, nil
}
