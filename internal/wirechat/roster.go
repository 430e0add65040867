package wirechat

import (
	"sort"
	"sync"
)

// Roster tracks which users have been seen in each room.
type Roster struct {
	mu    sync.Mutex
	rooms map[string]map[string]struct{}
}

// NewRoster returns an empty roster.
func NewRoster() *Roster {
	return &Roster{rooms: make(map[string]map[string]struct{})}
}

// Apply updates membership from ev.
func (r *Roster) Apply(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Kind {
	case EventUserJoined, EventMessage:
		r.add(ev.Room, ev.User)
	case EventUserLeft:
		if members, ok := r.rooms[ev.Room]; ok {
			delete(members, ev.User)
		}
	case EventHistory:
		for _, m := range ev.History {
			r.add(ev.Room, m.User)
		}
	}
}

func (r *Roster) add(room, user string) {
	if room == "" || user == "" {
		return
	}
	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]struct{})
		r.rooms[room] = members
	}
	members[user] = struct{}{}
}

// Members returns the sorted users known to be in room.
func (r *Roster) Members(room string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.rooms[room]
	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
