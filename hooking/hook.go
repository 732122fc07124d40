// Package hooking lets observers attach to well-known positions inside the
// IPC core without the core knowing who is listening.
package hooking

// HookPos names a position where hooks are invoked.
type HookPos struct {
	Name string
}

// HookCtx describes the site that triggered a hook.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   any
	Detail any
}

// Hookable is implemented by objects that accept hooks.
type Hookable interface {
	// AcceptHook registers a hook.
	AcceptHook(hook Hook)

	// NumHooks returns the number of hooks registered.
	NumHooks() int
}

// Hook is invoked by a Hookable at its hook positions.
type Hook interface {
	Func(ctx HookCtx)
}

// HookableBase keeps the hook list for types that implement Hookable. It is
// not synchronized; the embedding type guards it with its own lock.
type HookableBase struct {
	hookList []Hook
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	return len(h.hookList)
}

// Hooks returns the registered hooks.
func (h *HookableBase) Hooks() []Hook {
	return h.hookList
}

// AcceptHook registers a hook. Registering the same hook twice panics.
func (h *HookableBase) AcceptHook(hook Hook) {
	for _, existing := range h.hookList {
		if existing == hook {
			panic("duplicated hook")
		}
	}

	h.hookList = append(h.hookList, hook)
}

// InvokeHook calls every registered hook in registration order.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hookList {
		hook.Func(ctx)
	}
}
