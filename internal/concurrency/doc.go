// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Synchronization primitives for the HCI buffer pool: the per-class
// FreeList (multi-producer, multi-consumer, optional blocking take) and
// PinCurrentThread, which binds a driver or host context to a CPU core.
package concurrency
