package protocol

// Handler receives decoded events.
type Handler interface {
	HandleEvent(ev Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ev Event)

// HandleEvent calls f(ev).
func (f HandlerFunc) HandleEvent(ev Event) { f(ev) }

// Router is a Handler that routes each event to the callbacks registered
// for its type. Events with no route go to the fallback, if any.
type Router struct {
	routes   map[Type][]func(Event)
	fallback Handler
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{routes: make(map[Type][]func(Event))}
}

// On registers fn for events of type T. Several callbacks may be
// registered for the same type; they run in registration order.
func On[T Event](r *Router, fn func(T)) {
	var zero T
	t := zero.Type()
	r.routes[t] = append(r.routes[t], func(ev Event) {
		fn(ev.(T))
	})
}

// Fallback sets the handler for events with no registered route.
func (r *Router) Fallback(h Handler) {
	r.fallback = h
}

// HandleEvent implements Handler.
func (r *Router) HandleEvent(ev Event) {
	fns, ok := r.routes[ev.Type()]
	if !ok {
		if r.fallback != nil {
			r.fallback.HandleEvent(ev)
		}
		return
	}
	for _, fn := range fns {
		fn(ev)
	}
}

// Handles reports whether any callback is registered for t.
func (r *Router) Handles(t Type) bool {
	return len(r.routes[t]) > 0
}
