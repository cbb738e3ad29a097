//go:build !linux || (!arm && !arm64)

package motor

import "fmt"

// Stub backend for non-Linux and/or non-ARM platforms.
func openDriver(left, right Pins) (driver, error) {
	return nil, fmt.Errorf("motor: gpio unsupported on this platform")
}
