// Package sched provides the thread identity and the wait queues that the
// IPC core blocks on.
package sched

import "fmt"

// ProcessID identifies a process. All processes share one address space.
type ProcessID uint32

// ThreadID identifies a thread within the kernel.
type ThreadID uint32

// A Thread is the calling context of a blocking operation.
type Thread struct {
	ID       ThreadID
	Process  ProcessID
	Priority int
}

// NewThread creates a thread that belongs to the given process.
func NewThread(id ThreadID, process ProcessID, priority int) *Thread {
	return &Thread{
		ID:       id,
		Process:  process,
		Priority: priority,
	}
}

func (t *Thread) String() string {
	return fmt.Sprintf("thread %d (pid %d, prio %d)",
		t.ID, t.Process, t.Priority)
}
