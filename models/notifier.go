package models

// ChangeEvent describes a property change on an entity. Direct is false when
// the event was re-emitted by a parent on behalf of one of its children.
type ChangeEvent struct {
	Property string
	Direct   bool
}

// ChangeListener receives change events. Listeners run synchronously in
// subscription order and must not mutate the entity they are reacting to.
type ChangeListener func(ChangeEvent)

// Observable is implemented by every entity that embeds a Notifier.
type Observable interface {
	Subscribe(listener ChangeListener, includePassed bool) (unsubscribe func())
}

type subscription struct {
	id            int
	listener      ChangeListener
	includePassed bool
}

// Notifier is a per-instance observer list. The zero value is ready to use.
// It provides no locking: callers serialize mutations of an aggregate.
type Notifier struct {
	subs   []subscription
	nextID int
}

// Subscribe registers a listener. With includePassed the listener also gets
// events passed through from child entities.
func (n *Notifier) Subscribe(listener ChangeListener, includePassed bool) func() {
	n.nextID++
	id := n.nextID
	n.subs = append(n.subs, subscription{id: id, listener: listener, includePassed: includePassed})
	return func() {
		for i, s := range n.subs {
			if s.id == id {
				n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
				return
			}
		}
	}
}

// Notify emits a direct change event for every property.
func (n *Notifier) Notify(properties ...string) {
	for _, p := range properties {
		n.emit(ChangeEvent{Property: p, Direct: true})
	}
}

// Pass re-emits every event of child (direct or passed) as a passed event of n.
func (n *Notifier) Pass(child Observable) func() {
	if child == nil {
		return func() {}
	}
	return child.Subscribe(func(e ChangeEvent) {
		n.emit(ChangeEvent{Property: e.Property, Direct: false})
	}, true)
}

func (n *Notifier) emit(e ChangeEvent) {
	if len(n.subs) == 0 {
		return
	}
	// snapshot so listeners may unsubscribe while being notified
	subs := make([]subscription, len(n.subs))
	copy(subs, n.subs)
	for _, s := range subs {
		if !e.Direct && !s.includePassed {
			continue
		}
		s.listener(e)
	}
}
