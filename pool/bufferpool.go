// File: pool/bufferpool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pool owns a fixed array of Buffers partitioned into three free-lists:
// control (commands and events), inbound ACL data and outbound ACL data.
// The slot array is allocated once in New; slots are recycled, never
// reallocated, and never change free-list once Initialize has succeeded.

package pool

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/cpu"

	"github.com/momentics/hcibuf/api"
	"github.com/momentics/hcibuf/internal/concurrency"
	"github.com/momentics/hcibuf/internal/logger"
)

// NumBuffers is the default number of slots in a pool.
const NumBuffers = 20

// MinControlBuffers is the number of slots always left to command/event traffic.
const MinControlBuffers = 2

type listID int

const (
	listControl listID = iota
	listInbound
	listOutbound
	numLists
)

// Free-list names used in stats, logs and metrics.
const (
	ListControl  = "control"
	ListInbound  = "acl_in"
	ListOutbound = "acl_out"
)

var listNames = [numLists]string{ListControl, ListInbound, ListOutbound}

func (id listID) String() string { return listNames[id] }

// classList routes a traffic class to its free-list. ok is false for
// unknown classes.
func classList(class api.TrafficClass) (listID, bool) {
	switch class {
	case api.ClassCommand, api.ClassEvent:
		return listControl, true
	case api.ClassInboundData:
		return listInbound, true
	case api.ClassOutboundData:
		return listOutbound, true
	default:
		return 0, false
	}
}

type counters struct {
	_         cpu.CacheLinePad
	acquired  atomic.Uint64
	released  atomic.Uint64
	timeouts  atomic.Uint64
	exhausted [numLists]atomic.Uint64
	_         cpu.CacheLinePad
}

// Pool is a fixed-capacity, class-partitioned buffer pool.
type Pool struct {
	slots []Buffer
	lists [numLists]api.FreeList[*Buffer]

	mu          sync.Mutex // serializes Initialize
	provisioned [numLists]int
	initialized atomic.Bool

	policy  api.AcquirePolicy
	timeout time.Duration
	log     *slog.Logger

	stats counters
}

// Ensure compile-time interface compliance.
var _ api.BufferPool[*Buffer] = (*Pool)(nil)

// New allocates the slot array and empty free-lists. The pool hands out
// nothing until Initialize partitions it.
func New(opts ...Option) *Pool {
	cfg := options{
		numBuffers: NumBuffers,
		policy:     api.PolicyImmediate,
		timeout:    api.DefaultAcquireTimeout,
		newList: func() api.FreeList[*Buffer] {
			return concurrency.NewFreeList[*Buffer]()
		},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.numBuffers < MinControlBuffers {
		cfg.numBuffers = MinControlBuffers
	}
	if cfg.logger == nil {
		cfg.logger = logger.Discard()
	}

	p := &Pool{
		slots:   make([]Buffer, cfg.numBuffers),
		policy:  cfg.policy,
		timeout: cfg.timeout,
		log:     cfg.logger.With("component", "bufpool"),
	}
	for i := range p.slots {
		p.slots[i].index = i
		p.slots[i].pool = p
	}
	for id := range p.lists {
		p.lists[id] = cfg.newList()
	}
	return p
}

// Initialize assigns the first inbound slots to inbound ACL data, the next
// outbound slots to outbound ACL data and the rest to command/event traffic.
// At least MinControlBuffers slots must remain for control traffic.
// Nothing is changed when an error is returned. A slot keeps its class for
// the life of the pool: a repeat call with the same layout is a no-op and
// any other layout fails with api.ErrAlreadyInitialized.
func (p *Pool) Initialize(inbound, outbound int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.slots)
	if inbound < 0 || outbound < 0 {
		return api.ErrInvalidArgument.
			WithContext("inbound", inbound).
			WithContext("outbound", outbound)
	}
	if inbound+outbound > n-MinControlBuffers {
		p.log.Error("too many ACL buffers requested",
			"inbound", inbound, "outbound", outbound, "total", n)
		return api.ErrTooManyDataBuffers.
			WithContext("inbound", inbound).
			WithContext("outbound", outbound).
			WithContext("max_data", n-MinControlBuffers)
	}
	if p.initialized.Load() {
		if p.provisioned[listInbound] == inbound && p.provisioned[listOutbound] == outbound {
			return nil
		}
		p.log.Error("pool already partitioned",
			"inbound", inbound, "outbound", outbound,
			"current_inbound", p.provisioned[listInbound], "current_outbound", p.provisioned[listOutbound])
		return api.ErrAlreadyInitialized.
			WithContext("inbound", p.provisioned[listInbound]).
			WithContext("outbound", p.provisioned[listOutbound])
	}

	p.provisioned = [numLists]int{
		listInbound:  inbound,
		listOutbound: outbound,
		listControl:  n - inbound - outbound,
	}

	i := 0
	for _, part := range []struct {
		id    listID
		class api.TrafficClass
		count int
	}{
		{listInbound, api.ClassInboundData, inbound},
		{listOutbound, api.ClassOutboundData, outbound},
		{listControl, api.ClassCommand, n - inbound - outbound},
	} {
		for end := i + part.count; i < end; i++ {
			b := &p.slots[i]
			b.class = part.class
			b.state.Store(slotFree)
			p.lists[part.id].Give(b)
		}
	}
	p.initialized.Store(true)

	p.log.Info("buffer pool initialized",
		ListInbound, inbound, ListOutbound, outbound, ListControl, n-inbound-outbound)
	return nil
}

// Acquire checks out a buffer of class with headReservation bytes of
// headroom and an empty window. With PolicyImmediate (the default) an empty
// class fails at once with api.ErrAllocationExhausted; with PolicyBlocking
// it waits up to the configured acquire timeout.
func (p *Pool) Acquire(class api.TrafficClass, headReservation int) (*Buffer, error) {
	if p.policy == api.PolicyBlocking {
		return p.AcquireWait(context.Background(), class, headReservation, p.timeout)
	}
	return p.TryAcquire(class, headReservation)
}

// TryAcquire is Acquire with PolicyImmediate regardless of the pool default.
func (p *Pool) TryAcquire(class api.TrafficClass, headReservation int) (*Buffer, error) {
	id, err := p.route(class, headReservation)
	if err != nil {
		return nil, err
	}
	b, ok := p.lists[id].Take()
	if !ok {
		p.stats.exhausted[id].Add(1)
		p.log.Debug("failed to get free buffer", "class", class, "list", id)
		return nil, api.ErrAllocationExhausted.WithContext("class", class.String())
	}
	return p.checkout(b, class, headReservation)
}

// AcquireWait blocks until a buffer of class is released, ctx is done or
// timeout elapses (zero waits on ctx only). Timeouts return
// api.ErrAcquireTimeout.
func (p *Pool) AcquireWait(ctx context.Context, class api.TrafficClass, headReservation int, timeout time.Duration) (*Buffer, error) {
	id, err := p.route(class, headReservation)
	if err != nil {
		return nil, err
	}
	b, err := p.lists[id].TakeOrWait(ctx, timeout)
	if err != nil {
		if errors.Is(err, api.ErrAcquireTimeout) {
			p.stats.timeouts.Add(1)
			p.log.Debug("timed out waiting for buffer", "class", class, "timeout", timeout)
			return nil, api.ErrAcquireTimeout.WithContext("class", class.String()).WithContext("timeout", timeout.String())
		}
		return nil, err
	}
	return p.checkout(b, class, headReservation)
}

// Release returns b to the free-list for its class. The window is left as
// is; the next Acquire of the slot resets it. Releasing a buffer that is not
// checked out returns api.ErrDoubleRelease.
func (p *Pool) Release(b *Buffer) error {
	if b == nil || b.pool != p {
		return api.ErrInvalidArgument.WithContext("reason", "buffer does not belong to this pool")
	}
	if !b.state.CompareAndSwap(slotOwned, slotFree) {
		p.log.Warn("double release", "slot", b.index)
		return api.ErrDoubleRelease.WithContext("slot", b.index)
	}
	// The slot is ours until Give: class cannot change under us.
	id, ok := classList(b.class)
	if !ok {
		b.state.Store(slotOwned)
		return api.NewError(api.ErrCodeInternal, "checked-out buffer has no free-list").
			WithContext("slot", b.index).
			WithContext("class", int(b.class))
	}
	p.stats.released.Add(1)
	p.lists[id].Give(b)
	return nil
}

// Capacity returns the per-buffer storage size.
func (p *Pool) Capacity() int { return Capacity }

// NumBuffers returns the number of slots in the pool.
func (p *Pool) NumBuffers() int { return len(p.slots) }

// Policy returns the default acquire policy.
func (p *Pool) Policy() api.AcquirePolicy { return p.policy }

// Provisioned returns how many slots serve class; 0 for unknown classes.
func (p *Pool) Provisioned(class api.TrafficClass) int {
	id, ok := classList(class)
	if !ok {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.provisioned[id]
}

// Partition is the contiguous slot range serving one free-list.
type Partition struct {
	List    string
	Classes []api.TrafficClass
	First   int
	Count   int
}

// Layout returns the partitions in slot order: inbound, outbound, control.
func (p *Pool) Layout() []Partition {
	p.mu.Lock()
	prov := p.provisioned
	p.mu.Unlock()

	in, out := prov[listInbound], prov[listOutbound]
	return []Partition{
		{List: ListInbound, Classes: []api.TrafficClass{api.ClassInboundData}, First: 0, Count: in},
		{List: ListOutbound, Classes: []api.TrafficClass{api.ClassOutboundData}, First: in, Count: out},
		{List: ListControl, Classes: []api.TrafficClass{api.ClassCommand, api.ClassEvent}, First: in + out, Count: prov[listControl]},
	}
}

// Stats returns a point-in-time snapshot of pool accounting.
func (p *Pool) Stats() api.BufferPoolStats {
	p.mu.Lock()
	provisioned := p.provisioned
	p.mu.Unlock()

	lists := make(map[string]api.ListStats, numLists)
	var exhausted uint64
	for id := listControl; id < numLists; id++ {
		free := p.lists[id].Len()
		ex := p.stats.exhausted[id].Load()
		exhausted += ex
		lists[id.String()] = api.ListStats{
			Provisioned: provisioned[id],
			Free:        free,
			InUse:       provisioned[id] - free,
			Exhausted:   ex,
		}
	}
	return api.BufferPoolStats{
		NumBuffers:  len(p.slots),
		Capacity:    Capacity,
		TotalAlloc:  p.stats.acquired.Load(),
		TotalFree:   p.stats.released.Load(),
		InUse:       p.outstanding(),
		Exhausted:   exhausted,
		Timeouts:    p.stats.timeouts.Load(),
		Lists:       lists,
		Initialized: p.initialized.Load(),
	}
}

func (p *Pool) route(class api.TrafficClass, headReservation int) (listID, error) {
	id, ok := classList(class)
	if !ok {
		return 0, api.ErrInvalidClass.WithContext("class", int(class))
	}
	if headReservation < 0 || headReservation > Capacity {
		return 0, windowError("reserve", headReservation, Capacity)
	}
	return id, nil
}

func (p *Pool) checkout(b *Buffer, class api.TrafficClass, headReservation int) (*Buffer, error) {
	if !b.state.CompareAndSwap(slotFree, slotOwned) {
		// A slot on a free-list must be free; anything else is corruption.
		return nil, api.NewError(api.ErrCodeInternal, "free-list returned a checked-out buffer").
			WithContext("slot", b.index)
	}
	b.reset(class, headReservation)
	p.stats.acquired.Add(1)
	p.log.Debug("buffer acquired", "slot", b.index, "class", class, "reserve", headReservation)
	return b, nil
}

func (p *Pool) outstanding() int64 {
	return int64(p.stats.acquired.Load()) - int64(p.stats.released.Load())
}
