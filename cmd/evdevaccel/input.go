package main

import (
	"encoding/binary"
	"fmt"
	"unsafe"
)

// inputEvent represents a Linux input event structure
// struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

func (ev inputEvent) String() string {
	return fmt.Sprintf("type=0x%02x code=0x%03x value=%d", ev.Type, ev.Code, ev.Value)
}

func (ev inputEvent) isRel(code uint16) bool {
	return ev.Type == EV_REL && ev.Code == code
}

func (ev inputEvent) isSynReport() bool {
	return ev.Type == EV_SYN && ev.Code == SYN_REPORT
}

// relEvent builds a synthetic relative motion event. The time is left zero;
// uinput stamps injected events itself.
func relEvent(code uint16, value int32) inputEvent {
	return inputEvent{Type: EV_REL, Code: code, Value: value}
}

// eventCodec converts between inputEvent and the kernel's native layout.
// The timeval fields are as wide as a C long: 4 bytes on 32-bit platforms,
// 8 on 64-bit ones. Byte order is the host's.
type eventCodec struct {
	wordSize int
}

// nativeCodec matches the running kernel's struct input_event.
var nativeCodec = eventCodec{wordSize: int(unsafe.Sizeof(uintptr(0)))}

// size is the byte length of one encoded event.
func (c eventCodec) size() int {
	return 2*c.wordSize + 8
}

func (c eventCodec) putWord(b []byte, v int64) {
	if c.wordSize == 4 {
		binary.NativeEndian.PutUint32(b, uint32(v))
		return
	}
	binary.NativeEndian.PutUint64(b, uint64(v))
}

func (c eventCodec) word(b []byte) int64 {
	if c.wordSize == 4 {
		return int64(int32(binary.NativeEndian.Uint32(b)))
	}
	return int64(binary.NativeEndian.Uint64(b))
}

// encode appends the wire form of ev to dst.
func (c eventCodec) encode(dst []byte, ev inputEvent) []byte {
	n := len(dst)
	dst = append(dst, make([]byte, c.size())...)
	b := dst[n:]
	w := c.wordSize
	c.putWord(b[0:w], ev.Sec)
	c.putWord(b[w:2*w], ev.Usec)
	binary.NativeEndian.PutUint16(b[2*w:], ev.Type)
	binary.NativeEndian.PutUint16(b[2*w+2:], ev.Code)
	binary.NativeEndian.PutUint32(b[2*w+4:], uint32(ev.Value))
	return dst
}

// decode parses one event from the first size() bytes of b.
func (c eventCodec) decode(b []byte) inputEvent {
	w := c.wordSize
	return inputEvent{
		Sec:   c.word(b[0:w]),
		Usec:  c.word(b[w : 2*w]),
		Type:  binary.NativeEndian.Uint16(b[2*w:]),
		Code:  binary.NativeEndian.Uint16(b[2*w+2:]),
		Value: int32(binary.NativeEndian.Uint32(b[2*w+4:])),
	}
}

// eventParser turns a byte stream into events. Bytes of an incomplete
// trailing event are kept until the next feed.
type eventParser struct {
	codec eventCodec
	buf   []byte
}

// feed appends chunk and returns every complete event, in stream order.
func (p *eventParser) feed(chunk []byte) []inputEvent {
	p.buf = append(p.buf, chunk...)
	sz := p.codec.size()
	n := len(p.buf) / sz
	if n == 0 {
		return nil
	}
	events := make([]inputEvent, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, p.codec.decode(p.buf[i*sz:]))
	}
	rest := copy(p.buf, p.buf[n*sz:])
	p.buf = p.buf[:rest]
	return events
}
