package hci

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hcibuf/api"
	"github.com/momentics/hcibuf/pool"
)

func newPool(t *testing.T) *pool.Pool {
	t.Helper()
	p := pool.New()
	require.NoError(t, p.Initialize(5, 5))
	return p
}

func TestCommandFraming(t *testing.T) {
	p := newPool(t)
	b, err := p.Acquire(api.ClassCommand, ReserveCommand)
	require.NoError(t, err)
	defer func() { require.NoError(t, p.Release(b)) }()

	params, err := b.AddTail(2)
	require.NoError(t, err)
	params[0], params[1] = 0x01, 0x00

	op := Opcode(0x03, 0x0003)
	require.NoError(t, PushCommandHeader(b, op))
	require.NoError(t, PushH4(b, H4Command))

	assert.Equal(t, 0, b.Headroom())
	assert.Equal(t, []byte{0x01, 0x03, 0x0c, 0x02, 0x01, 0x00}, b.Bytes())

	ind, err := PullH4(b)
	require.NoError(t, err)
	class, err := ClassForIndicator(ind)
	require.NoError(t, err)
	assert.Equal(t, api.ClassCommand, class)

	hdr, err := PullCommandHeader(b)
	require.NoError(t, err)
	assert.Equal(t, CommandHeader{Opcode: 0x0c03, ParamsLen: 2}, hdr)
	assert.Equal(t, []byte{0x01, 0x00}, b.Bytes())
}

func TestEventFraming(t *testing.T) {
	p := newPool(t)
	b, err := p.Acquire(api.ClassEvent, ReserveEvent)
	require.NoError(t, err)
	defer func() { require.NoError(t, p.Release(b)) }()

	params, err := b.AddTail(4)
	require.NoError(t, err)
	copy(params, []byte{0x01, 0x03, 0x0c, 0x00}) // Command Complete for HCI_Reset

	require.NoError(t, PushEventHeader(b, 0x0e))
	require.NoError(t, PushH4(b, H4Event))
	assert.Equal(t, []byte{0x04, 0x0e, 0x04, 0x01, 0x03, 0x0c, 0x00}, b.Bytes())

	ind, err := PullH4(b)
	require.NoError(t, err)
	assert.Equal(t, H4Event, ind)
	hdr, err := PullEventHeader(b)
	require.NoError(t, err)
	assert.Equal(t, EventHeader{Code: 0x0e, ParamsLen: 4}, hdr)
	assert.Equal(t, 4, b.Len())
}

func TestACLFraming(t *testing.T) {
	p := newPool(t)
	b, err := p.Acquire(api.ClassOutboundData, ReserveACL)
	require.NoError(t, err)
	defer func() { require.NoError(t, p.Release(b)) }()

	payload, err := b.AddTail(pool.Capacity - ReserveACL)
	require.NoError(t, err)
	for i := range payload {
		payload[i] = byte(i)
	}

	require.NoError(t, PushACLHeader(b, 0xf040, 0x2))
	require.NoError(t, PushH4(b, H4ACL))
	assert.Equal(t, pool.Capacity, b.Len())
	assert.Equal(t, []byte{0x02, 0x40, 0x20, 59, 0x00}, b.Bytes()[:5])

	_, err = PullH4(b)
	require.NoError(t, err)
	hdr, err := PullACLHeader(b)
	require.NoError(t, err)
	assert.Equal(t, ACLHeader{Handle: 0x040, Flags: 0x2, Length: 59}, hdr)
	assert.Equal(t, byte(0), b.Bytes()[0])
}

func TestFramingWithoutReserve(t *testing.T) {
	p := newPool(t)
	b, err := p.Acquire(api.ClassCommand, CommandHeaderSize)
	require.NoError(t, err)
	defer func() { require.NoError(t, p.Release(b)) }()

	require.NoError(t, PushCommandHeader(b, Opcode(0x03, 0x03)))
	err = PushH4(b, H4Command)
	assert.ErrorIs(t, err, api.ErrWindowCapacity)
	assert.Equal(t, CommandHeaderSize, b.Len())
}

func TestLengthMismatch(t *testing.T) {
	p := newPool(t)
	b, err := p.Acquire(api.ClassInboundData, 0)
	require.NoError(t, err)
	defer func() { require.NoError(t, p.Release(b)) }()

	raw, err := b.AddTail(6)
	require.NoError(t, err)
	copy(raw, []byte{0x40, 0x20, 0x05, 0x00, 0xaa, 0xbb}) // declares 5 bytes, carries 2

	_, err = PullACLHeader(b)
	assert.ErrorIs(t, err, api.ErrMalformedPacket)

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 5, apiErr.Context["declared"])
	assert.Equal(t, 2, apiErr.Context["actual"])
}

func TestTruncatedHeader(t *testing.T) {
	p := newPool(t)
	b, err := p.Acquire(api.ClassEvent, 0)
	require.NoError(t, err)
	defer func() { require.NoError(t, p.Release(b)) }()

	_, err = b.AddTail(1)
	require.NoError(t, err)
	_, err = PullEventHeader(b)
	assert.ErrorIs(t, err, api.ErrWindowCapacity)
}

func TestClassForIndicator(t *testing.T) {
	tests := []struct {
		ind  byte
		want api.TrafficClass
		ok   bool
	}{
		{H4Command, api.ClassCommand, true},
		{H4ACL, api.ClassInboundData, true},
		{H4Event, api.ClassEvent, true},
		{H4SCO, 0, false},
		{0xff, 0, false},
	}
	for _, tt := range tests {
		got, err := ClassForIndicator(tt.ind)
		if !tt.ok {
			assert.ErrorIs(t, err, api.ErrMalformedPacket, "indicator %#x", tt.ind)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestOpcode(t *testing.T) {
	assert.Equal(t, uint16(0x0c03), Opcode(0x03, 0x0003))
	assert.Equal(t, uint16(0x2006), Opcode(0x08, 0x0006))
	assert.Equal(t, uint16(0x0400|0x03ff), Opcode(0x01, 0xffff), "ocf is masked to 10 bits")
}
