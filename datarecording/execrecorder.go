package datarecording

import (
	"os"
	"strings"
	"time"
)

const execTableName = "exec_info"

const execTimeFormat = "2006-01-02 15:04:05.000000000"

type execInfo struct {
	Property string
	Value    string
}

// execRecorder writes one row per property of the current process run into
// the exec_info table.
type execRecorder struct {
	recorder DataRecorder
	entries  []execInfo
}

func newExecRecorder(recorder DataRecorder) *execRecorder {
	recorder.CreateTable(execTableName, execInfo{})

	return &execRecorder{recorder: recorder}
}

// Start captures the start time, the command line and the working directory.
func (e *execRecorder) Start() {
	e.entries = append(e.entries,
		execInfo{"Start Time", time.Now().Format(execTimeFormat)},
		execInfo{"Command", strings.Join(os.Args, " ")},
	)

	wd, err := os.Getwd()
	if err != nil {
		wd = "unknown"
	}

	e.entries = append(e.entries, execInfo{"Working Directory", wd})
}

// End inserts the captured rows followed by the end time.
func (e *execRecorder) End() {
	for _, entry := range e.entries {
		e.recorder.InsertData(execTableName, entry)
	}

	e.recorder.InsertData(execTableName,
		execInfo{"End Time", time.Now().Format(execTimeFormat)})

	e.entries = nil
}
