package core

import "fmt"

// room groups connections sharing a meeting code, in join order.
type room struct {
	id      string
	members []Member
}

func (r *room) indexOf(id ConnID) int {
	for i, m := range r.members {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// Directory maps meeting codes to their ordered member lists.
// Rooms exist only while non-empty. Owned by the hub loop.
type Directory struct {
	rooms    map[string]*room
	memberOf map[ConnID]string
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		rooms:    make(map[string]*room),
		memberOf: make(map[ConnID]string),
	}
}

// Join appends id to the room, creating it if needed, and returns the members
// that were present before the join in join order.
func (d *Directory) Join(roomID string, id ConnID, name string) []Member {
	if current, ok := d.memberOf[id]; ok {
		panic(fmt.Errorf("directory: %w: %s is in %q", ErrAlreadyInRoom, id, current))
	}

	r, ok := d.rooms[roomID]
	if !ok {
		r = &room{id: roomID}
		d.rooms[roomID] = r
	}

	prior := make([]Member, len(r.members))
	copy(prior, r.members)

	r.members = append(r.members, Member{ID: id, Name: name})
	d.memberOf[id] = roomID
	return prior
}

// Leave removes id from the room and returns the remaining members.
// ok is false when id was not a member; the call is then a no-op.
func (d *Directory) Leave(roomID string, id ConnID) (remaining []Member, ok bool) {
	r, exists := d.rooms[roomID]
	if !exists {
		return nil, false
	}
	idx := r.indexOf(id)
	if idx < 0 {
		return nil, false
	}

	r.members = append(r.members[:idx], r.members[idx+1:]...)
	delete(d.memberOf, id)

	if len(r.members) == 0 {
		delete(d.rooms, roomID)
		return nil, true
	}

	remaining = make([]Member, len(r.members))
	copy(remaining, r.members)
	return remaining, true
}

// Members returns a snapshot of member ids in join order.
func (d *Directory) Members(roomID string) []ConnID {
	r, ok := d.rooms[roomID]
	if !ok {
		return nil
	}
	ids := make([]ConnID, 0, len(r.members))
	for _, m := range r.members {
		ids = append(ids, m.ID)
	}
	return ids
}

// Snapshot returns members with their names, in join order.
func (d *Directory) Snapshot(roomID string) []Member {
	r, ok := d.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]Member, len(r.members))
	copy(out, r.members)
	return out
}

// Stats returns the number of live rooms and total members.
func (d *Directory) Stats() (rooms, members int) {
	return len(d.rooms), len(d.memberOf)
}
