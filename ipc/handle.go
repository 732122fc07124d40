package ipc

// A Handle refers to a message taken by Recv. It is consumed by exactly one
// Respond and is only meaningful for the port that issued it.
//
// Handles carry a generation. Once a handle has been used, or if it was
// never issued, Respond reports ErrInvalidHandle instead of touching a
// sender's buffer. The zero Handle is invalid.
type Handle struct {
	port *Port
	slot uint32
	gen  uint32
}

// Valid reports whether h was issued by Recv. It does not tell whether h has
// already been used.
func (h Handle) Valid() bool {
	return h.port != nil && h.gen != 0
}

// Port returns the id of the port that issued h.
func (h Handle) Port() PortID {
	if h.port == nil {
		return 0
	}

	return h.port.id
}

type handleSlot struct {
	gen uint32
	km  *kernelMessage
}

// handleTable maps handles to received messages. Guarded by the port lock.
type handleTable struct {
	slots []handleSlot
	free  []uint32
	used  int
}

func (t *handleTable) put(km *kernelMessage) (slot, gen uint32) {
	if n := len(t.free); n > 0 {
		slot = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		t.slots = append(t.slots, handleSlot{gen: 1})
		slot = uint32(len(t.slots) - 1)
	}

	t.slots[slot].km = km
	t.used++

	return slot, t.slots[slot].gen
}

// take returns the message behind (slot, gen) and retires the slot so the
// same handle cannot be used twice.
func (t *handleTable) take(slot, gen uint32) (*kernelMessage, bool) {
	if int(slot) >= len(t.slots) {
		return nil, false
	}

	s := &t.slots[slot]
	if s.gen != gen || s.km == nil {
		return nil, false
	}

	km := s.km
	s.km = nil

	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}

	t.free = append(t.free, slot)
	t.used--

	return km, true
}

func (t *handleTable) inUse() int {
	return t.used
}
