// Zaparoo LCD
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo LCD.
//
// Zaparoo LCD is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo LCD is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo LCD.  If not, see <http://www.gnu.org/licenses/>.

// Package protocol encodes display and backlight commands into the byte
// packets understood by the AceMagic S1 style panel, and decodes its
// acknowledgement bytes. It performs no I/O.
//
// Display packets are a fixed 8 byte header followed by a 4096 byte body.
// An image is split into body sized chunks:
//
//	55 A3 op seq offLo offHi lenLo lenHi
//
// where op is F0 for the first chunk, F2 for the last and F1 otherwise, seq
// counts chunks from 1, the offset is the chunk's byte offset modulo 65536
// and the length is always the body size. Control packets use 55 A1 with F1
// (orientation) or F2 (keepalive) and an all zero body.
//
// The backlight is a separate 9600 baud channel taking five byte packets:
// FA theme intensity speed checksum, the checksum being the low byte of the
// sum of the first four.
package protocol

import (
	"errors"
	"fmt"

	"github.com/ZaparooProject/zaparoo-lcd/pkg/compositor"
	"github.com/ZaparooProject/zaparoo-lcd/pkg/scene"
)

// ErrEncoding is returned when a command cannot be represented on the wire.
// Nothing has been sent when it is returned.
var ErrEncoding = errors.New("encoding error")

const (
	HeaderSize = 8
	BodySize   = 4096
	PacketSize = HeaderSize + BodySize

	// FrameBytes is the size of one full RGB565 image.
	FrameBytes = scene.NativeWidth * scene.NativeHeight * 2
)

const (
	magicDisplay = 0x55
	opImage      = 0xa3
	opControl    = 0xa1

	chunkFirst  = 0xf0
	chunkMiddle = 0xf1
	chunkLast   = 0xf2

	controlOrientation = 0xf1
	controlKeepAlive   = 0xf2

	panelLandscape = 0x01
	panelPortrait  = 0x02

	magicBacklight = 0xfa
)

// Channel selects which serial link a message goes out on.
type Channel int

const (
	ChannelDisplay Channel = iota
	ChannelBacklight
)

func (c Channel) String() string {
	if c == ChannelBacklight {
		return "backlight"
	}
	return "display"
}

// Supersede keys group messages where only the newest queued one matters.
const (
	KeyFrame       = "frame"
	KeyOrientation = "orientation"
	KeyKeepAlive   = "keepalive"
	KeyBacklight   = "backlight"
)

// Message is an encoded command ready for a transport session.
type Message struct {
	Kind         string
	SupersedeKey string
	Packets      [][]byte
	Channel      Channel
}

// Len returns the total number of bytes in the message.
func (m *Message) Len() int {
	n := 0
	for _, p := range m.Packets {
		n += len(p)
	}
	return n
}

// Encoder turns commands into messages. Codec is the only implementation;
// the interface lets the controller be tested without real packets.
type Encoder interface {
	Encode(cmd Command) (Message, error)
}

// Codec encodes commands for the S1 panel.
type Codec struct{}

func NewCodec() *Codec {
	return &Codec{}
}

// Encode converts cmd into packets. Frame producing commands are rendered
// on the host, the panel has no drawing primitives of its own.
func (c *Codec) Encode(cmd Command) (Message, error) {
	switch cmd := cmd.(type) {
	case FrameCommand, FillCommand, ClearCommand, PixelCommand, TestPatternCommand:
		f, err := RenderFrame(cmd)
		if err != nil {
			return Message{}, err
		}
		return c.encodeFrame(frameKind(cmd), f)
	case OrientationCommand:
		return encodeOrientation(cmd.Orientation)
	case KeepAliveCommand:
		return Message{
			Kind:         "keepalive",
			Channel:      ChannelDisplay,
			SupersedeKey: KeyKeepAlive,
			Packets:      [][]byte{controlPacket(controlKeepAlive, 0)},
		}, nil
	case BacklightCommand:
		return encodeBacklight(cmd)
	default:
		return Message{}, fmt.Errorf("%w: unsupported command %T", ErrEncoding, cmd)
	}
}

// RenderFrame returns the frame a frame producing command puts on the panel.
func RenderFrame(cmd Command) (*compositor.Frame, error) {
	switch cmd := cmd.(type) {
	case FrameCommand:
		if cmd.Frame == nil {
			return nil, fmt.Errorf("%w: nil frame", ErrEncoding)
		}
		return cmd.Frame, nil
	case FillCommand:
		f, err := newFrame(cmd.Orientation)
		if err != nil {
			return nil, err
		}
		f.Fill(cmd.Color)
		return f, nil
	case ClearCommand:
		return newFrame(cmd.Orientation)
	case PixelCommand:
		return PixelFrame(cmd)
	case TestPatternCommand:
		return TestPattern(cmd.Orientation)
	default:
		return nil, fmt.Errorf("%w: %T does not produce a frame", ErrEncoding, cmd)
	}
}

func frameKind(cmd Command) string {
	switch cmd.(type) {
	case FillCommand:
		return "fill"
	case ClearCommand:
		return "clear"
	case PixelCommand:
		return "pixel"
	case TestPatternCommand:
		return "test_pattern"
	default:
		return "frame"
	}
}

func (c *Codec) encodeFrame(kind string, f *compositor.Frame) (Message, error) {
	raster, err := Raster(f)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Kind:         kind,
		Channel:      ChannelDisplay,
		SupersedeKey: KeyFrame,
		Packets:      ImagePackets(raster),
	}, nil
}

// ImagePackets splits an image payload into chunk packets. The last body is
// zero padded.
func ImagePackets(payload []byte) [][]byte {
	count := (len(payload) + BodySize - 1) / BodySize
	packets := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		off := i * BodySize
		op := byte(chunkMiddle)
		switch i {
		case 0:
			op = chunkFirst
		case count - 1:
			op = chunkLast
		}

		p := make([]byte, PacketSize)
		p[0] = magicDisplay
		p[1] = opImage
		p[2] = op
		p[3] = byte(i + 1)
		p[4] = byte(off)
		p[5] = byte(off >> 8)
		p[6] = byte(BodySize & 0xff)
		p[7] = byte(BodySize >> 8)
		copy(p[HeaderSize:], payload[off:min(off+BodySize, len(payload))])
		packets = append(packets, p)
	}
	return packets
}

func controlPacket(op, arg byte) []byte {
	p := make([]byte, PacketSize)
	p[0] = magicDisplay
	p[1] = opControl
	p[2] = op
	p[3] = arg
	return p
}

func encodeOrientation(o scene.Orientation) (Message, error) {
	if !o.Valid() {
		return Message{}, fmt.Errorf("%w: orientation %d", ErrEncoding, o)
	}
	arg := byte(panelLandscape)
	if o.Portrait() {
		arg = panelPortrait
	}
	return Message{
		Kind:         "orientation",
		Channel:      ChannelDisplay,
		SupersedeKey: KeyOrientation,
		Packets:      [][]byte{controlPacket(controlOrientation, arg)},
	}, nil
}

func encodeBacklight(cmd BacklightCommand) (Message, error) {
	if !cmd.Theme.Valid() {
		return Message{}, fmt.Errorf("%w: backlight theme %d", ErrEncoding, cmd.Theme)
	}
	if cmd.Intensity < LevelMin || cmd.Intensity > LevelMax {
		return Message{}, fmt.Errorf("%w: backlight intensity %d", ErrEncoding, cmd.Intensity)
	}
	if cmd.Speed < LevelMin || cmd.Speed > LevelMax {
		return Message{}, fmt.Errorf("%w: backlight speed %d", ErrEncoding, cmd.Speed)
	}

	p := []byte{magicBacklight, byte(cmd.Theme), byte(cmd.Intensity), byte(cmd.Speed), 0}
	p[4] = p[0] + p[1] + p[2] + p[3]
	return Message{
		Kind:         "backlight",
		Channel:      ChannelBacklight,
		SupersedeKey: KeyBacklight,
		Packets:      [][]byte{p},
	}, nil
}

// Ack is a decoded acknowledgement byte.
type Ack int

const (
	AckUnknown Ack = iota
	AckOK
	AckError
)

const (
	ackByte = 0x06
	nakByte = 0x15
)

// DecodeAck classifies a byte read back from the device.
func DecodeAck(b byte) Ack {
	switch b {
	case ackByte:
		return AckOK
	case nakByte:
		return AckError
	default:
		return AckUnknown
	}
}

func (a Ack) String() string {
	switch a {
	case AckOK:
		return "ack"
	case AckError:
		return "nak"
	case AckUnknown:
		return "unknown"
	}
	return "unknown"
}
