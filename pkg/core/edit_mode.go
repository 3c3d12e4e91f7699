package core

import "sort"

// EditMode is the shell's edit-mode toggle. While it is on the user
// rearranges the layout; switching it off persists the result.
//
// EditMode is NOT thread-safe. Use it from the goroutine driving the engine.
type EditMode struct {
	active         bool
	listeners      map[int]func(active bool)
	nextListenerID int
}

// Active reports whether edit mode is on.
func (m *EditMode) Active() bool {
	return m.active
}

// Set switches edit mode and notifies listeners if the value changed.
// Returns true if it changed.
func (m *EditMode) Set(active bool) bool {
	if m.active == active {
		return false
	}
	m.active = active
	m.notifyListeners()
	return true
}

// Toggle flips edit mode and returns the new value.
func (m *EditMode) Toggle() bool {
	m.Set(!m.active)
	return m.active
}

// AddListener adds a callback that fires whenever edit mode changes.
// Returns an unsubscribe function.
func (m *EditMode) AddListener(fn func(active bool)) func() {
	if m.listeners == nil {
		m.listeners = make(map[int]func(bool))
	}
	id := m.nextListenerID
	m.nextListenerID++
	m.listeners[id] = fn
	return func() {
		delete(m.listeners, id)
	}
}

func (m *EditMode) notifyListeners() {
	ids := make([]int, 0, len(m.listeners))
	for id := range m.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	active := m.active
	for _, id := range ids {
		if fn, ok := m.listeners[id]; ok {
			fn(active)
		}
	}
}
