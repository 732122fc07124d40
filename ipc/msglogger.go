package ipc

import (
	"log"

	"github.com/sarchlab/kipc/hooking"
)

// MsgLogger is a hook that writes one line per message lifecycle event.
type MsgLogger struct {
	*log.Logger
}

// NewMsgLogger returns a MsgLogger that writes into logger.
func NewMsgLogger(logger *log.Logger) *MsgLogger {
	return &MsgLogger{Logger: logger}
}

// Func writes the event into the logger.
func (h *MsgLogger) Func(ctx hooking.HookCtx) {
	port, ok := ctx.Domain.(*Port)
	if !ok {
		return
	}

	info, ok := ctx.Item.(MsgInfo)
	if !ok {
		h.Printf("%s,%s\n", port.Name(), ctx.Pos.Name)
		return
	}

	h.Printf("%s,%s,%s,%d,%d,%d,%s\n",
		port.Name(), ctx.Pos.Name,
		info.ID, info.Type, info.Src, info.Priority, info.State)
}
