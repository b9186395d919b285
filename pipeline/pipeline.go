// File: pipeline/pipeline.go
// Package pipeline drives a pool the way an HCI UART driver and host stack do.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A producer (the driver RX context) acquires inbound ACL buffers, writes a
// payload, prepends ACL and H4 headers and hands the buffer over a lock-free
// ring. A consumer (the host context) strips the headers, checks the payload
// and releases buffers in batches. Either side can be pinned to a core.
// Pool exhaustion is backpressure: the producer yields and retries, it
// never allocates.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/momentics/hcibuf/api"
	"github.com/momentics/hcibuf/hci"
	"github.com/momentics/hcibuf/internal/concurrency"
	"github.com/momentics/hcibuf/internal/logger"
	"github.com/momentics/hcibuf/pool"
)

// Config describes one run.
type Config struct {
	Packets     int           // number of ACL packets to move
	PayloadSize int           // bytes of payload per packet
	RingSize    uint64        // hand-off ring capacity, power of two
	Handle      uint16        // ACL connection handle stamped on every packet
	WaitTimeout time.Duration // >0 acquires with AcquireWait instead of TryAcquire
	ProducerCPU int           // core for the driver goroutine, -1 leaves it unpinned
	ConsumerCPU int           // core for the host goroutine, -1 leaves it unpinned
}

// DefaultConfig moves 1000 packets of 27 bytes (the LE default data length).
func DefaultConfig() Config {
	return Config{
		Packets:     1000,
		PayloadSize: 27,
		RingSize:    8,
		Handle:      0x0040,
		ProducerCPU: -1,
		ConsumerCPU: -1,
	}
}

// Report summarizes a run.
type Report struct {
	Produced  uint64        `json:"produced" yaml:"produced"`
	Consumed  uint64        `json:"consumed" yaml:"consumed"`
	Exhausted uint64        `json:"exhausted" yaml:"exhausted"` // acquisitions that found no free buffer
	RingFull  uint64        `json:"ring_full" yaml:"ring_full"` // hand-offs that found the ring full
	Bytes     uint64        `json:"bytes" yaml:"bytes"`         // payload bytes verified by the consumer
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`
}

func (c Config) validate() error {
	if c.Packets <= 0 {
		return api.ErrInvalidArgument.WithContext("packets", c.Packets)
	}
	if c.PayloadSize < 0 || c.PayloadSize+hci.ReserveACL > pool.Capacity {
		return api.ErrWindowCapacity.
			WithContext("payload", c.PayloadSize).
			WithContext("available", pool.Capacity-hci.ReserveACL)
	}
	if c.ProducerCPU < -1 || c.ConsumerCPU < -1 {
		return api.ErrInvalidArgument.
			WithContext("producer_cpu", c.ProducerCPU).
			WithContext("consumer_cpu", c.ConsumerCPU)
	}
	return nil
}

// Run moves cfg.Packets packets through p and returns what happened. On
// cancellation every buffer in flight is released before Run returns.
func Run(ctx context.Context, p *pool.Pool, cfg Config, log *slog.Logger) (Report, error) {
	if err := cfg.validate(); err != nil {
		return Report{}, err
	}
	if log == nil {
		log = logger.Discard()
	}
	ring, err := pool.NewBufferRing(cfg.RingSize)
	if err != nil {
		return Report{}, err
	}
	log = log.With("component", "pipeline")

	var (
		rep   Report
		done  atomic.Bool
		start = time.Now()
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer done.Store(true)
		if err := pin(cfg.ProducerCPU); err != nil {
			return err
		}
		return produce(gctx, p, ring, cfg, &rep)
	})
	g.Go(func() error {
		if err := pin(cfg.ConsumerCPU); err != nil {
			return err
		}
		return consume(gctx, p, ring, cfg, &done, &rep)
	})

	err = g.Wait()
	if n, derr := ring.Drain(p); derr != nil {
		err = errors.Join(err, derr)
	} else if n > 0 {
		log.Debug("released buffers left in ring", "count", n)
	}
	rep.Elapsed = time.Since(start)

	log.Info("pipeline finished",
		"produced", rep.Produced, "consumed", rep.Consumed,
		"exhausted", rep.Exhausted, "ring_full", rep.RingFull, "elapsed", rep.Elapsed)
	return rep, err
}

func pin(cpu int) error {
	if cpu < 0 {
		return nil
	}
	return concurrency.PinCurrentThread(cpu)
}

func produce(ctx context.Context, p *pool.Pool, ring *pool.BufferRing, cfg Config, rep *Report) error {
	for i := 0; i < cfg.Packets; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		b, err := acquire(ctx, p, cfg, rep)
		if err != nil {
			return err
		}
		if err := fill(b, cfg, i); err != nil {
			_ = p.Release(b)
			return fmt.Errorf("packet %d: %w", i, err)
		}
		for !ring.Enqueue(b) {
			rep.RingFull++
			if err := ctx.Err(); err != nil {
				_ = p.Release(b)
				return err
			}
			runtime.Gosched()
		}
		rep.Produced++
	}
	return nil
}

func acquire(ctx context.Context, p *pool.Pool, cfg Config, rep *Report) (*pool.Buffer, error) {
	for {
		var (
			b   *pool.Buffer
			err error
		)
		if cfg.WaitTimeout > 0 {
			b, err = p.AcquireWait(ctx, api.ClassInboundData, hci.ReserveACL, cfg.WaitTimeout)
		} else {
			b, err = p.TryAcquire(api.ClassInboundData, hci.ReserveACL)
		}
		switch {
		case err == nil:
			return b, nil
		case errors.Is(err, api.ErrAllocationExhausted), errors.Is(err, api.ErrAcquireTimeout):
			rep.Exhausted++
		default:
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		runtime.Gosched()
	}
}

func fill(b *pool.Buffer, cfg Config, seq int) error {
	payload, err := b.AddTail(cfg.PayloadSize)
	if err != nil {
		return err
	}
	for j := range payload {
		payload[j] = byte(seq + j)
	}
	if err := hci.PushACLHeader(b, cfg.Handle, 0x2); err != nil {
		return err
	}
	return hci.PushH4(b, hci.H4ACL)
}

// consume dequeues up to a ring's worth of packets at a time, checks them
// and hands the whole batch back to the pool.
func consume(ctx context.Context, p *pool.Pool, ring *pool.BufferRing, cfg Config, done *atomic.Bool, rep *Report) error {
	batch := pool.NewBatch(ring.Cap())
	for seq := 0; ; {
		if ring.DequeueInto(batch) == 0 {
			if done.Load() && ring.Len() == 0 {
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			runtime.Gosched()
			continue
		}
		for _, b := range batch.Buffers() {
			n, err := parse(b, cfg, seq)
			if err != nil {
				return errors.Join(fmt.Errorf("packet %d: %w", seq, err), batch.Release(p))
			}
			rep.Consumed++
			rep.Bytes += uint64(n)
			seq++
		}
		if err := batch.Release(p); err != nil {
			return err
		}
	}
}

func parse(b *pool.Buffer, cfg Config, seq int) (int, error) {
	ind, err := hci.PullH4(b)
	if err != nil {
		return 0, err
	}
	if class, err := hci.ClassForIndicator(ind); err != nil {
		return 0, err
	} else if class != api.ClassInboundData {
		return 0, api.ErrMalformedPacket.WithContext("indicator", ind)
	}
	hdr, err := hci.PullACLHeader(b)
	if err != nil {
		return 0, err
	}
	if hdr.Handle != cfg.Handle {
		return 0, api.ErrMalformedPacket.WithContext("handle", hdr.Handle)
	}
	for j, v := range b.Bytes() {
		if v != byte(seq+j) {
			return 0, api.ErrMalformedPacket.WithContext("offset", j)
		}
	}
	return b.Len(), nil
}
