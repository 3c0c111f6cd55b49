package irc

import "sync"

// AnyEvent registers a callback for every event.
const AnyEvent = "*"

// Handler receives events. Handlers run on the goroutine that delivered the
// underlying line, one at a time and in arrival order; a slow handler
// delays everything behind it, including PONG replies.
type Handler func(Event)

// CallbackID identifies a registered callback for RemoveCallback.
type CallbackID struct {
	name string
	id   uint64
}

type callback struct {
	id uint64
	fn Handler
}

type callbacks struct {
	mu     sync.RWMutex
	nextID uint64
	byName map[string][]callback
}

func (r *callbacks) add(name string, fn Handler) CallbackID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byName == nil {
		r.byName = make(map[string][]callback)
	}
	r.nextID++
	r.byName[name] = append(r.byName[name], callback{id: r.nextID, fn: fn})
	return CallbackID{name: name, id: r.nextID}
}

func (r *callbacks) remove(id CallbackID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.byName[id.name]
	for i, cb := range list {
		if cb.id == id.id {
			r.byName[id.name] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// dispatch runs the callbacks for ev.Name() and then the AnyEvent ones.
// Callbacks may register or remove callbacks while running.
func (r *callbacks) dispatch(ev Event) {
	r.mu.RLock()
	named := r.byName[ev.Name()]
	all := r.byName[AnyEvent]
	r.mu.RUnlock()

	for _, cb := range named {
		cb.fn(ev)
	}
	for _, cb := range all {
		cb.fn(ev)
	}
}

// AddCallback registers fn for events called name: one of the Event*
// constants, a raw command ("PRIVMSG", "001"), a reply name
// ("RPL_TOPIC"), or AnyEvent.
func (c *Client) AddCallback(name string, fn Handler) CallbackID {
	return c.callbacks.add(name, fn)
}

// RemoveCallback unregisters a callback. It reports whether it was found.
func (c *Client) RemoveCallback(id CallbackID) bool {
	return c.callbacks.remove(id)
}

func (c *Client) emit(ev Event) {
	c.callbacks.dispatch(ev)
}
