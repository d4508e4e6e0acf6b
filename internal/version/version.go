// ABOUTME: Version constants for the playout engine
// ABOUTME: Single source of truth for product identification
package version

const (
	// Product is the product name
	Product = "OpenPlayout"

	// Version is the current release version
	Version = "0.1.0"

	// Manufacturer identifies the project
	Manufacturer = "OpenPlayout Project"
)
