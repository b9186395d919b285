// Package api
// Author: momentics
//
// Traffic classes and acquisition policy for the fixed HCI buffer pool.
//
// Buffers are partitioned by class at initialization so that bulk ACL data
// can never starve command/event traffic. A slot never changes class.

package api

import "time"

// TrafficClass tags a buffer with the kind of packet it carries.
type TrafficClass uint8

const (
	// ClassCommand carries host-to-controller HCI commands.
	ClassCommand TrafficClass = iota
	// ClassEvent carries controller-to-host HCI events.
	ClassEvent
	// ClassInboundData carries ACL data received from the controller.
	ClassInboundData
	// ClassOutboundData carries ACL data sent to the controller.
	ClassOutboundData
)

// Classes lists every valid traffic class.
var Classes = [...]TrafficClass{ClassCommand, ClassEvent, ClassInboundData, ClassOutboundData}

// Valid reports whether c is one of the known classes.
func (c TrafficClass) Valid() bool {
	return c <= ClassOutboundData
}

func (c TrafficClass) String() string {
	switch c {
	case ClassCommand:
		return "command"
	case ClassEvent:
		return "event"
	case ClassInboundData:
		return "acl_in"
	case ClassOutboundData:
		return "acl_out"
	default:
		return "unknown"
	}
}

// AcquirePolicy selects what Acquire does when a class has no free buffer.
type AcquirePolicy uint8

const (
	// PolicyImmediate fails with ErrAllocationExhausted right away.
	PolicyImmediate AcquirePolicy = iota
	// PolicyBlocking waits for a release, bounded by the pool's acquire timeout.
	PolicyBlocking
)

func (p AcquirePolicy) String() string {
	if p == PolicyBlocking {
		return "blocking"
	}
	return "immediate"
}

// ParseAcquirePolicy maps a config string onto a policy.
func ParseAcquirePolicy(s string) (AcquirePolicy, error) {
	switch s {
	case "", "immediate":
		return PolicyImmediate, nil
	case "blocking":
		return PolicyBlocking, nil
	}
	return PolicyImmediate, ErrInvalidArgument.WithContext("policy", s)
}

// DefaultAcquireTimeout bounds blocking acquisition when no timeout is configured.
const DefaultAcquireTimeout = 100 * time.Millisecond
