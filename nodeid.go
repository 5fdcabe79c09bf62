package issuegraph

// Allocator hands out dense node ids in first-seen order. One Allocator
// serves one graph build.
type Allocator struct {
	ids map[string]int
}

func NewAllocator() *Allocator {
	return &Allocator{ids: make(map[string]int)}
}

// IDFor returns the node id of fqn. With allocate set, an unseen fqn gets
// the next id. Without it, an unseen fqn reports false and nothing is
// recorded.
func (a *Allocator) IDFor(fqn string, allocate bool) (int, bool) {
	if id, ok := a.ids[fqn]; ok {
		return id, true
	}
	if !allocate {
		return 0, false
	}
	id := len(a.ids)
	a.ids[fqn] = id
	return id, true
}

// Len is the number of allocated ids.
func (a *Allocator) Len() int {
	return len(a.ids)
}
