package main

import (
	"encoding/binary"
	"reflect"
	"testing"
)

// TestEventCodec_RoundTrip tests both timeval widths
func TestEventCodec_RoundTrip(t *testing.T) {
	events := []inputEvent{
		{Sec: 1700000000, Usec: 999999, Type: EV_REL, Code: REL_X, Value: -42},
		{Sec: 0, Usec: 0, Type: EV_SYN, Code: SYN_REPORT, Value: 0},
		{Sec: 1, Usec: 2, Type: EV_KEY, Code: BTN_RIGHT, Value: 1},
	}

	for _, ws := range []int{4, 8} {
		c := eventCodec{wordSize: ws}
		if c.size() != 2*ws+8 {
			t.Fatalf("word size %d: expected size %d, got %d", ws, 2*ws+8, c.size())
		}

		var buf []byte
		for _, ev := range events {
			buf = c.encode(buf, ev)
		}
		if len(buf) != len(events)*c.size() {
			t.Fatalf("word size %d: expected %d bytes, got %d", ws, len(events)*c.size(), len(buf))
		}

		for i, want := range events {
			if got := c.decode(buf[i*c.size():]); got != want {
				t.Errorf("word size %d, event %d: expected %+v, got %+v", ws, i, want, got)
			}
		}
	}
}

// TestEventCodec_Layout tests field offsets against struct input_event
func TestEventCodec_Layout(t *testing.T) {
	c := eventCodec{wordSize: 8}
	b := c.encode(nil, inputEvent{Sec: 5, Usec: 6, Type: EV_REL, Code: REL_Y, Value: -1})

	if got := binary.NativeEndian.Uint64(b[0:]); got != 5 {
		t.Errorf("tv_sec: expected 5, got %d", got)
	}
	if got := binary.NativeEndian.Uint64(b[8:]); got != 6 {
		t.Errorf("tv_usec: expected 6, got %d", got)
	}
	if got := binary.NativeEndian.Uint16(b[16:]); got != EV_REL {
		t.Errorf("type: expected EV_REL, got %d", got)
	}
	if got := binary.NativeEndian.Uint16(b[18:]); got != REL_Y {
		t.Errorf("code: expected REL_Y, got %d", got)
	}
	if got := binary.NativeEndian.Uint32(b[20:]); got != 0xffffffff {
		t.Errorf("value: expected -1, got %#x", got)
	}
}

// TestEventCodec_AppendsToDst tests encode keeps existing bytes
func TestEventCodec_AppendsToDst(t *testing.T) {
	c := eventCodec{wordSize: 4}
	b := c.encode([]byte{0xaa, 0xbb}, relEvent(REL_X, 1))
	if len(b) != 2+c.size() || b[0] != 0xaa || b[1] != 0xbb {
		t.Errorf("prefix not preserved: %x", b)
	}
}

// TestEventParser_PartialChunks tests events split across reads
func TestEventParser_PartialChunks(t *testing.T) {
	c := eventCodec{wordSize: 8}
	want := []inputEvent{relEvent(REL_X, 3), relEvent(REL_Y, -4), synReport()}
	var stream []byte
	for _, ev := range want {
		stream = c.encode(stream, ev)
	}

	for _, chunk := range []int{1, 5, 24, 30, len(stream)} {
		p := eventParser{codec: c}
		var got []inputEvent
		for off := 0; off < len(stream); off += chunk {
			end := min(off+chunk, len(stream))
			got = append(got, p.feed(stream[off:end])...)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("chunk %d: expected %v, got %v", chunk, want, got)
		}
		if len(p.buf) != 0 {
			t.Errorf("chunk %d: %d bytes left over", chunk, len(p.buf))
		}
	}
}

// TestEventParser_KeepsTail tests an incomplete event is held back
func TestEventParser_KeepsTail(t *testing.T) {
	c := eventCodec{wordSize: 8}
	stream := c.encode(nil, relEvent(REL_X, 7))
	stream = c.encode(stream, relEvent(REL_Y, 8))

	p := eventParser{codec: c}
	got := p.feed(stream[:c.size()+3])
	if len(got) != 1 || got[0] != relEvent(REL_X, 7) {
		t.Fatalf("expected the first event only, got %v", got)
	}
	if len(p.buf) != 3 {
		t.Fatalf("expected 3 buffered bytes, got %d", len(p.buf))
	}
	if got := p.feed(nil); got != nil {
		t.Errorf("expected nothing from an empty feed, got %v", got)
	}
	got = p.feed(stream[c.size()+3:])
	if len(got) != 1 || got[0] != relEvent(REL_Y, 8) {
		t.Errorf("expected the second event, got %v", got)
	}
}

// TestInputEvent_Predicates tests event classification helpers
func TestInputEvent_Predicates(t *testing.T) {
	if !relEvent(REL_X, 1).isRel(REL_X) || relEvent(REL_X, 1).isRel(REL_Y) {
		t.Error("isRel mismatch")
	}
	if (inputEvent{Type: EV_KEY, Code: REL_X}).isRel(REL_X) {
		t.Error("EV_KEY code 0 reported as REL_X")
	}
	if !synReport().isSynReport() {
		t.Error("SYN_REPORT not recognized")
	}
	if (inputEvent{Type: EV_SYN, Code: SYN_DROPPED}).isSynReport() {
		t.Error("SYN_DROPPED reported as SYN_REPORT")
	}
}
