package main

// bitset is a capability bitmap in the layout EVIOCGBIT fills in:
// bit n lives in byte n/8 at position n%8.
type bitset []byte

func newBitset(maxCode int) bitset {
	return make(bitset, maxCode/8+1)
}

func (b bitset) has(code int) bool {
	i := code / 8
	if code < 0 || i >= len(b) {
		return false
	}
	return b[i]&(1<<(code%8)) != 0
}

func (b bitset) set(code int) {
	i := code / 8
	if code < 0 || i >= len(b) {
		return
	}
	b[i] |= 1 << (code % 8)
}

// codes lists the set bits in ascending order.
func (b bitset) codes() []int {
	var out []int
	for i, v := range b {
		if v == 0 {
			continue
		}
		for bit := 0; bit < 8; bit++ {
			if v&(1<<bit) != 0 {
				out = append(out, i*8+bit)
			}
		}
	}
	return out
}

// deviceCaps is what the virtual device copies from the source device.
type deviceCaps struct {
	Rel bitset
	Key bitset
	Msc bitset
}

// pointerCapable reports whether the device moves a pointer on both axes.
func (c deviceCaps) pointerCapable() bool {
	return c.Rel.has(REL_X) && c.Rel.has(REL_Y)
}
