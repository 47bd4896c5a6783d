package registry

// Event kinds observable via OnEvent.
const (
	EventRegister     = "register"
	EventUnregister   = "unregister"
	EventHealthChange = "health_change"
)

// EventHandler receives registry lifecycle notifications. The record
// is a snapshot; mutating it has no effect on the registry.
type EventHandler func(name string, rec Record)

// OnEvent subscribes a handler to an event kind. Unknown kinds are a
// programming error and rejected with ErrUnknownEvent. Registering the
// same handler twice means it runs twice.
func (r *Registry) OnEvent(kind string, h EventHandler) error {
	switch kind {
	case EventRegister, EventUnregister, EventHealthChange:
	default:
		return ErrUnknownEvent
	}

	r.mu.Lock()
	r.handlers[kind] = append(r.handlers[kind], h)
	r.mu.Unlock()

	r.logger.Debug("event handler registered", "event", kind)
	return nil
}

// emit dispatches to the handlers subscribed to kind. Handlers run on
// the caller's goroutine, outside the registry lock, so they may call
// back into the registry. A panicking handler is logged and skipped;
// an observer must never break the registry.
func (r *Registry) emit(kind, name string, rec Record) {
	r.mu.RLock()
	handlers := append([]EventHandler(nil), r.handlers[kind]...)
	r.mu.RUnlock()

	for _, h := range handlers {
		r.invoke(kind, name, rec, h)
	}
}

func (r *Registry) invoke(kind, name string, rec Record, h EventHandler) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("event handler panicked",
				"event", kind,
				"domain", name,
				"panic", p,
			)
		}
	}()
	h(name, rec)
}
