package core

import "fmt"

type registryEntry struct {
	client *Client
	room   string
	name   string
}

// Registry maps live connections to their room and display name.
// It is owned by the hub loop and is not safe for concurrent use.
type Registry struct {
	entries map[ConnID]*registryEntry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[ConnID]*registryEntry)}
}

// Register adds a freshly established connection with no room.
// Registering the same id twice is a wiring defect.
func (r *Registry) Register(c *Client) ConnID {
	if _, exists := r.entries[c.ID]; exists {
		panic(fmt.Sprintf("registry: connection %s registered twice", c.ID))
	}
	r.entries[c.ID] = &registryEntry{client: c, name: c.Name}
	return c.ID
}

// AssignRoom records the room and display name of a connection.
func (r *Registry) AssignRoom(id ConnID, room, name string) {
	e := r.mustGet(id)
	e.room = room
	e.name = name
}

// ClearRoom drops the room association, leaving the entry registered.
func (r *Registry) ClearRoom(id ConnID) {
	r.mustGet(id).room = ""
}

// ResolveRoom returns the room of a connection, or "" when unbound.
func (r *Registry) ResolveRoom(id ConnID) string {
	return r.mustGet(id).room
}

// DisplayName returns the display name of a connection.
func (r *Registry) DisplayName(id ConnID) string {
	return r.mustGet(id).name
}

// Client returns the client behind a registered id.
func (r *Registry) Client(id ConnID) *Client {
	return r.mustGet(id).client
}

// Lookup probes for a connection without treating absence as a defect.
func (r *Registry) Lookup(id ConnID) (*Client, bool) {
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.client, true
}

// Unregister removes a connection. It reports false if the id was unknown.
func (r *Registry) Unregister(id ConnID) bool {
	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	return true
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	return len(r.entries)
}

func (r *Registry) mustGet(id ConnID) *registryEntry {
	e, ok := r.entries[id]
	if !ok {
		panic(fmt.Errorf("registry: %w: %s", ErrUnknownConnection, id))
	}
	return e
}

// Clients returns every registered client.
func (r *Registry) Clients() []*Client {
	out := make([]*Client, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.client)
	}
	return out
}
