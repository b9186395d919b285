// Package hci
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// HCI packet framing over pooled buffers. Payload is written first with
// AddTail; headers are then prepended into the headroom reserved at Acquire
// time, and stripped with PullHead on receive.

package hci

import (
	"encoding/binary"

	"github.com/momentics/hcibuf/api"
)

// H4 (UART transport) packet indicators.
const (
	H4Command byte = 0x01
	H4ACL     byte = 0x02
	H4SCO     byte = 0x03
	H4Event   byte = 0x04
)

// Header sizes in bytes.
const (
	H4HeaderSize      = 1
	CommandHeaderSize = 3
	ACLHeaderSize     = 4
	EventHeaderSize   = 2
)

// Head reservations that leave room for every header pushed on the send path.
const (
	ReserveCommand = H4HeaderSize + CommandHeaderSize
	ReserveACL     = H4HeaderSize + ACLHeaderSize
	ReserveEvent   = H4HeaderSize + EventHeaderSize
)

const (
	maxCommandParams = 0xff
	maxEventParams   = 0xff
	maxACLData       = 0xffff
	aclHandleMask    = 0x0fff
)

// Window is the part of the buffer window editor framing needs.
type Window interface {
	PushHead(n int) ([]byte, error)
	PullHead(n int) ([]byte, error)
	Len() int
}

// CommandHeader precedes every HCI command.
type CommandHeader struct {
	Opcode    uint16
	ParamsLen uint8
}

// EventHeader precedes every HCI event.
type EventHeader struct {
	Code      uint8
	ParamsLen uint8
}

// ACLHeader precedes every ACL data packet.
type ACLHeader struct {
	Handle uint16 // 12-bit connection handle
	Flags  uint8  // packet boundary and broadcast flags (4 bits)
	Length uint16
}

// Opcode packs an opcode group and command field.
func Opcode(ogf, ocf uint16) uint16 {
	return ogf<<10 | ocf&0x03ff
}

// ClassForIndicator maps an H4 packet indicator to the traffic class
// whose buffers carry it. SCO has no class.
func ClassForIndicator(indicator byte) (api.TrafficClass, error) {
	switch indicator {
	case H4Command:
		return api.ClassCommand, nil
	case H4Event:
		return api.ClassEvent, nil
	case H4ACL:
		return api.ClassInboundData, nil
	}
	return 0, api.ErrMalformedPacket.WithContext("indicator", indicator)
}

// PushCommandHeader prepends a command header sized to the current window.
func PushCommandHeader(w Window, opcode uint16) error {
	n := w.Len()
	if n > maxCommandParams {
		return api.ErrMalformedPacket.WithContext("params_len", n)
	}
	hdr, err := w.PushHead(CommandHeaderSize)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(hdr, opcode)
	hdr[2] = uint8(n)
	return nil
}

// PullCommandHeader strips and decodes a command header.
func PullCommandHeader(w Window) (CommandHeader, error) {
	hdr, err := w.PullHead(CommandHeaderSize)
	if err != nil {
		return CommandHeader{}, err
	}
	h := CommandHeader{Opcode: binary.LittleEndian.Uint16(hdr), ParamsLen: hdr[2]}
	if int(h.ParamsLen) != w.Len() {
		return h, lengthMismatch("command", int(h.ParamsLen), w.Len())
	}
	return h, nil
}

// PushEventHeader prepends an event header sized to the current window.
func PushEventHeader(w Window, code uint8) error {
	n := w.Len()
	if n > maxEventParams {
		return api.ErrMalformedPacket.WithContext("params_len", n)
	}
	hdr, err := w.PushHead(EventHeaderSize)
	if err != nil {
		return err
	}
	hdr[0] = code
	hdr[1] = uint8(n)
	return nil
}

// PullEventHeader strips and decodes an event header.
func PullEventHeader(w Window) (EventHeader, error) {
	hdr, err := w.PullHead(EventHeaderSize)
	if err != nil {
		return EventHeader{}, err
	}
	h := EventHeader{Code: hdr[0], ParamsLen: hdr[1]}
	if int(h.ParamsLen) != w.Len() {
		return h, lengthMismatch("event", int(h.ParamsLen), w.Len())
	}
	return h, nil
}

// PushACLHeader prepends an ACL header sized to the current window.
func PushACLHeader(w Window, handle uint16, flags uint8) error {
	n := w.Len()
	if n > maxACLData {
		return api.ErrMalformedPacket.WithContext("data_len", n)
	}
	hdr, err := w.PushHead(ACLHeaderSize)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(hdr, handle&aclHandleMask|uint16(flags&0x0f)<<12)
	binary.LittleEndian.PutUint16(hdr[2:], uint16(n))
	return nil
}

// PullACLHeader strips and decodes an ACL header.
func PullACLHeader(w Window) (ACLHeader, error) {
	hdr, err := w.PullHead(ACLHeaderSize)
	if err != nil {
		return ACLHeader{}, err
	}
	hf := binary.LittleEndian.Uint16(hdr)
	h := ACLHeader{
		Handle: hf & aclHandleMask,
		Flags:  uint8(hf >> 12),
		Length: binary.LittleEndian.Uint16(hdr[2:]),
	}
	if int(h.Length) != w.Len() {
		return h, lengthMismatch("acl", int(h.Length), w.Len())
	}
	return h, nil
}

// PushH4 prepends the UART packet indicator.
func PushH4(w Window, indicator byte) error {
	hdr, err := w.PushHead(H4HeaderSize)
	if err != nil {
		return err
	}
	hdr[0] = indicator
	return nil
}

// PullH4 strips the UART packet indicator.
func PullH4(w Window) (byte, error) {
	hdr, err := w.PullHead(H4HeaderSize)
	if err != nil {
		return 0, err
	}
	return hdr[0], nil
}

func lengthMismatch(kind string, declared, actual int) error {
	return api.ErrMalformedPacket.
		WithContext("packet", kind).
		WithContext("declared", declared).
		WithContext("actual", actual)
}
