package viewcache

// NoOpSink is a DirtySink stub.
type NoOpSink struct{}

var _ DirtySink = NoOpSink{}

// MarkDirty discards the notification.
func (NoOpSink) MarkDirty() {}
