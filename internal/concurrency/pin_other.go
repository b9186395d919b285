//go:build !linux

// File: internal/concurrency/pin_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

func platformPinCurrentThread(cpu int) error {
	return nil
}
