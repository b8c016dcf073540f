// Package event implements a small subject/observer registry.
//
// Listeners are invoked synchronously in registration order. A listener
// must not add or remove subscriptions on the handler that is notifying it.
package event

type Type string

// Listener receives the event payload and the params given at registration.
type Listener[E any] func(event E, params any)

// Subscription identifies a registered listener. The zero value never
// refers to a registration.
type Subscription uint64

type entry[E any] struct {
	id       Subscription
	typ      Type
	listener Listener[E]
	params   any
}

type Handler[E any] struct {
	next      Subscription
	listeners []entry[E]
}

func NewHandler[E any]() *Handler[E] {
	return &Handler[E]{}
}

// AddListener registers listener for typ. An empty type or nil listener is
// ignored and yields the zero Subscription.
func (h *Handler[E]) AddListener(typ Type, listener Listener[E], params any) Subscription {
	if typ == "" || listener == nil {
		return 0
	}
	h.next++
	h.listeners = append(h.listeners, entry[E]{
		id:       h.next,
		typ:      typ,
		listener: listener,
		params:   params,
	})
	return h.next
}

func (h *Handler[E]) RemoveListener(sub Subscription) {
	if sub == 0 {
		return
	}
	kept := h.listeners[:0]
	for _, e := range h.listeners {
		if e.id != sub {
			kept = append(kept, e)
		}
	}
	clearTail(h.listeners, len(kept))
	h.listeners = kept
}

func (h *Handler[E]) RemoveListenersByType(typ Type) {
	kept := h.listeners[:0]
	for _, e := range h.listeners {
		if e.typ != typ {
			kept = append(kept, e)
		}
	}
	clearTail(h.listeners, len(kept))
	h.listeners = kept
}

// ListenersByType returns the subscriptions registered for typ in order.
func (h *Handler[E]) ListenersByType(typ Type) []Subscription {
	var out []Subscription
	for _, e := range h.listeners {
		if e.typ == typ {
			out = append(out, e.id)
		}
	}
	return out
}

func (h *Handler[E]) Count() int {
	return len(h.listeners)
}

func (h *Handler[E]) NotifyListeners(typ Type, event E) {
	for _, e := range h.listeners {
		if e.typ == typ {
			e.listener(event, e.params)
		}
	}
}

func clearTail[E any](s []entry[E], from int) {
	for i := from; i < len(s); i++ {
		s[i] = entry[E]{}
	}
}
