package core

// Directory holds the friends list and pending incoming requests.
// It keeps the order of the last fetch and is replaced wholesale on
// re-fetch rather than diffed. Mutated only by the core run loop.
type Directory struct {
	order    []string
	byID     map[string]*Friend
	requests []FriendRequest
}

// NewDirectory constructs an empty directory.
func NewDirectory() *Directory {
	return &Directory{byID: make(map[string]*Friend)}
}

// Replace swaps in a freshly fetched friends list and request set.
func (d *Directory) Replace(friends []Friend, requests []FriendRequest) {
	d.order = d.order[:0]
	d.byID = make(map[string]*Friend, len(friends))
	for i := range friends {
		f := friends[i]
		d.order = append(d.order, f.ID)
		d.byID[f.ID] = &f
	}
	d.requests = append(d.requests[:0], requests...)
}

// List returns the friends in fetch order.
func (d *Directory) List() []Friend {
	out := make([]Friend, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, *d.byID[id])
	}
	return out
}

// Requests returns the pending incoming requests.
func (d *Directory) Requests() []FriendRequest {
	return append([]FriendRequest(nil), d.requests...)
}

// Get looks up a friend by id.
func (d *Directory) Get(id string) (Friend, bool) {
	f, ok := d.byID[id]
	if !ok {
		return Friend{}, false
	}
	return *f, true
}

// IncrementUnread bumps the unread counter for a friend.
// Returns false when the friend is unknown.
func (d *Directory) IncrementUnread(id string) bool {
	f, ok := d.byID[id]
	if !ok {
		return false
	}
	f.Notifications++
	return true
}

// ClearUnread sets the unread counter to exactly 0 regardless of its
// prior value. Returns false when the friend is unknown.
func (d *Directory) ClearUnread(id string) bool {
	f, ok := d.byID[id]
	if !ok {
		return false
	}
	f.Notifications = 0
	return true
}

// SetOnline flips the presence flag for a friend.
func (d *Directory) SetOnline(id string, online bool) bool {
	f, ok := d.byID[id]
	if !ok {
		return false
	}
	f.IsOnline = online
	return true
}

// RemoveRequest drops a pending request by id. Returns true if removed.
func (d *Directory) RemoveRequest(id string) bool {
	for i, r := range d.requests {
		if r.ID == id {
			d.requests = append(d.requests[:i], d.requests[i+1:]...)
			return true
		}
	}
	return false
}
