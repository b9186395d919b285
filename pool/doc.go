// Package pool
// Author: momentics <momentics@gmail.com>
//
// Fixed-capacity, class-partitioned packet buffers for an HCI driver and
// its upper layers. A Pool owns every Buffer it will ever hand out; the
// window editor (AddTail, PushHead, PullHead, Headroom, Tailroom) moves the
// data window inside a buffer's storage without copying bytes.
// See bufferpool.go, window.go and buffer_ring.go for implementation details.
package pool
