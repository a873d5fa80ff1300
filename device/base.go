// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/vkctx/core"
)

// ValidateLayerAvailability checks that the driver exposes every
// requested layer. A driver reporting no layers at all satisfies any
// request. Otherwise the first requested layer that is missing is
// reported through *MissingLayerError.
func ValidateLayerAvailability(drv Driver, requested []string, opts ...Option) error {
	s := newSettings(opts)

	available, err := drv.InstanceLayers()
	if err != nil {
		return driverFault(s.log, nil, err, "enumerate instance layers")
	}
	if len(available) == 0 {
		s.log.WithField("requested", len(requested)).Debug("driver reports no layers, skipping validation")
		return nil
	}

	names := make(map[string]struct{}, len(available))
	for _, layer := range available {
		names[layer.Name] = struct{}{}
	}
	for idx, layer := range requested {
		if _, ok := names[layer]; !ok {
			return &MissingLayerError{Index: idx}
		}
	}
	return nil
}

// Base owns the instance and its debug messenger
type Base struct {
	drv       Driver
	log       log.FieldLogger
	config    core.InstanceConfiguration
	instance  InstanceHandle
	messenger MessengerHandle

	rel releaser
}

// NewBase validates the requested layers and creates the instance
// together with a debug messenger routing driver messages to the
// logger. Configuration and layer errors are returned to the caller,
// native call failures are driver faults.
func NewBase(drv Driver, config core.InstanceConfiguration, opts ...Option) (*Base, error) {
	s := newSettings(opts)
	extensions := config.EnabledExtensions()

	names := append([]string{config.ApplicationName, config.EngineName}, config.ValidationLayers...)
	if _, err := core.NativeStrings(append(names, extensions...)); err != nil {
		return nil, err
	}

	if err := ValidateLayerAvailability(drv, config.ValidationLayers, opts...); err != nil {
		var missing *MissingLayerError
		if errors.As(err, &missing) {
			s.log.WithFields(log.Fields{
				"index": missing.Index,
				"layer": config.ValidationLayers[missing.Index],
			}).Error("validation layer not available")
		}
		return nil, err
	}

	var messengerInfo *MessengerCreateInfo
	if hasString(extensions, core.DebugUtilsExtension) {
		logger := s.log
		messengerInfo = &MessengerCreateInfo{
			Severities: s.severities,
			Types:      AllMessageTypes,
			Callback: func(msg DebugMessage) bool {
				return debugCallback(logger, msg)
			},
		}
	}

	b := &Base{
		drv:    drv,
		log:    s.log,
		config: config,
	}

	instance, err := drv.CreateInstance(InstanceCreateInfo{
		ApplicationName:    config.ApplicationName,
		EngineName:         config.EngineName,
		ApplicationVersion: config.ApplicationVersion,
		EngineVersion:      config.EngineVersion,
		APIVersion:         config.APIVersion,
		Layers:             config.ValidationLayers,
		Extensions:         extensions,
		Messenger:          messengerInfo,
	})
	if err != nil {
		return nil, driverFault(s.log, nil, err, "create instance")
	}
	b.instance = instance
	b.rel.push(func() { drv.DestroyInstance(instance) })

	if messengerInfo != nil {
		messenger, err := drv.CreateDebugMessenger(instance, *messengerInfo)
		if err != nil {
			return nil, driverFault(s.log, &b.rel, err, "create debug messenger")
		}
		b.messenger = messenger
		b.rel.push(func() { drv.DestroyDebugMessenger(instance, messenger) })
	} else {
		s.log.WithField("extension", core.DebugUtilsExtension).Debug("extension not enabled, no debug messenger")
	}

	s.log.WithFields(log.Fields{
		"application": config.ApplicationName,
		"api":         core.VersionString(config.APIVersion),
		"layers":      config.ValidationLayers,
		"extensions":  extensions,
	}).Info("instance created")
	return b, nil
}

// Instance returns the instance handle
func (b *Base) Instance() InstanceHandle {
	return b.instance
}

// Messenger returns the debug messenger, zero when debug utils are not
// enabled
func (b *Base) Messenger() MessengerHandle {
	return b.messenger
}

// Driver returns the driver the instance was created with
func (b *Base) Driver() Driver {
	return b.drv
}

// Config returns the configuration the instance was created from
func (b *Base) Config() core.InstanceConfiguration {
	return b.config
}

// Release destroys the debug messenger and then the instance
func (b *Base) Release() {
	b.rel.Release()
}

func hasString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
