// ABOUTME: Tests for mDNS advertisement
// ABOUTME: Covers manager construction and stop handling
package discovery

import (
	"testing"
)

func TestNewManager(t *testing.T) {
	config := Config{
		ServiceName: "Test Playout",
		Port:        9250,
	}

	mgr := NewManager(config)
	if mgr == nil {
		t.Fatal("expected manager to be created")
	}

	// Stop before Advertise is a no-op.
	mgr.Stop()
}
