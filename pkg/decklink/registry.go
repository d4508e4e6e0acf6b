// ABOUTME: Process-wide device registry
// ABOUTME: Lets SDK bindings or simulators expose devices by index
package decklink

import (
	"errors"
	"fmt"
	"sync"
)

// ErrDeviceNotFound is returned by Open for an unregistered device index.
var ErrDeviceNotFound = errors.New("decklink device not found")

var (
	registryMu sync.RWMutex
	registry   = map[int]Device{}
)

// Register exposes dev under the given 1-based device index. Registering an
// index twice replaces the previous device.
func Register(index int, dev Device) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[index] = dev
}

// Unregister removes the device at index, if any.
func Unregister(index int) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, index)
}

// Open returns the device registered at index.
func Open(index int) (Device, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	dev, ok := registry[index]
	if !ok {
		return nil, fmt.Errorf("device %d: %w", index, ErrDeviceNotFound)
	}
	return dev, nil
}
