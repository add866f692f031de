package uv

import "sort"

// Mode is the click behavior applied to a picked island.
type Mode int

const (
	ModeAdd Mode = iota
	ModeRemove
)

// String returns "add" or "remove".
func (m Mode) String() string {
	if m == ModeRemove {
		return "remove"
	}
	return "add"
}

// Selection is a set of island ids bound to one Analysis. Ids outside
// [0, IslandCount) are ignored by every mutator.
type Selection struct {
	source *Analysis
	n      int
	ids    map[int]struct{}
}

// NewSelection returns an empty selection for a. A nil analysis yields a
// selection that accepts nothing.
func NewSelection(a *Analysis) *Selection {
	n := 0
	if a != nil {
		n = a.IslandCount()
	}
	return &Selection{source: a, n: n, ids: make(map[int]struct{})}
}

// Source returns the analysis the selection belongs to.
func (s *Selection) Source() *Analysis {
	return s.source
}

func (s *Selection) valid(id int) bool {
	return id >= 0 && id < s.n
}

// Add selects id.
func (s *Selection) Add(id int) {
	if s.valid(id) {
		s.ids[id] = struct{}{}
	}
}

// Remove deselects id.
func (s *Selection) Remove(id int) {
	delete(s.ids, id)
}

// Toggle flips id and reports whether it is selected afterwards.
func (s *Selection) Toggle(id int) bool {
	if !s.valid(id) {
		return false
	}
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Apply adds or removes id according to mode.
func (s *Selection) Apply(id int, mode Mode) {
	if mode == ModeRemove {
		s.Remove(id)
		return
	}
	s.Add(id)
}

// Contains reports whether id is selected.
func (s *Selection) Contains(id int) bool {
	_, ok := s.ids[id]
	return ok
}

// Invert selects exactly the islands that were not selected.
func (s *Selection) Invert() {
	next := make(map[int]struct{}, s.n-len(s.ids))
	for i := 0; i < s.n; i++ {
		if _, ok := s.ids[i]; !ok {
			next[i] = struct{}{}
		}
	}
	s.ids = next
}

// SelectAll selects every island.
func (s *Selection) SelectAll() {
	for i := 0; i < s.n; i++ {
		s.ids[i] = struct{}{}
	}
}

// Clear deselects everything.
func (s *Selection) Clear() {
	s.ids = make(map[int]struct{})
}

// Len returns the number of selected islands.
func (s *Selection) Len() int {
	return len(s.ids)
}

// IDs returns the selected ids in ascending order.
func (s *Selection) IDs() []int {
	out := make([]int, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// Lookup returns a dense membership table indexed by island id.
func (s *Selection) Lookup() []bool {
	out := make([]bool, s.n)
	for id := range s.ids {
		out[id] = true
	}
	return out
}

// Clone returns an independent copy bound to the same analysis.
func (s *Selection) Clone() *Selection {
	c := NewSelection(s.source)
	for id := range s.ids {
		c.ids[id] = struct{}{}
	}
	return c
}
