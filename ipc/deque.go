package ipc

const minDequeCapacity = 8

// msgDeque is a growable ring buffer of pending messages. Push and pop are
// O(1) amortized and preserve FIFO order.
type msgDeque struct {
	elements []*kernelMessage
	head     int
	size     int
}

func (d *msgDeque) Len() int {
	return d.size
}

func (d *msgDeque) Push(km *kernelMessage) {
	if d.size == len(d.elements) {
		d.grow()
	}

	tail := (d.head + d.size) % len(d.elements)
	d.elements[tail] = km
	d.size++
}

// Pop removes and returns the oldest message, or nil if the deque is empty.
func (d *msgDeque) Pop() *kernelMessage {
	if d.size == 0 {
		return nil
	}

	km := d.elements[d.head]
	d.elements[d.head] = nil
	d.head = (d.head + 1) % len(d.elements)
	d.size--

	return km
}

// Peek returns the oldest message without removing it.
func (d *msgDeque) Peek() *kernelMessage {
	if d.size == 0 {
		return nil
	}

	return d.elements[d.head]
}

func (d *msgDeque) grow() {
	capacity := 2 * len(d.elements)
	if capacity < minDequeCapacity {
		capacity = minDequeCapacity
	}

	elements := make([]*kernelMessage, capacity)
	for i := 0; i < d.size; i++ {
		elements[i] = d.elements[(d.head+i)%len(d.elements)]
	}

	d.elements = elements
	d.head = 0
}
