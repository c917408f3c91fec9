package viewcache

// Invoker dispatches a callback onto the host's single render context.
//
// All render mutation happens there. The initial-load gate hands its
// final open-and-paint action to an Invoker because the last poll may run
// off the render thread.
type Invoker interface {
	Invoke(fn func())
}

// InvokerFunc adapts a function to the Invoker interface.
type InvokerFunc func(fn func())

// Invoke implements Invoker.
func (f InvokerFunc) Invoke(fn func()) {
	f(fn)
}

// CallerInvoker runs callbacks on the calling goroutine.
type CallerInvoker struct{}

var _ Invoker = CallerInvoker{}

// Invoke runs fn immediately.
func (CallerInvoker) Invoke(fn func()) {
	fn()
}
