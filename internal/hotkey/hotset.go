package hotkey

import "container/heap"

// hotSet is a min-heap of items ordered by count, indexed by key so that
// members can be updated in place.
type hotSet struct {
	items []Item
	index map[string]int
}

func newHotSet(capacity int) *hotSet {
	return &hotSet{
		items: make([]Item, 0, capacity),
		index: make(map[string]int, capacity),
	}
}

func (s *hotSet) Len() int { return len(s.items) }

func (s *hotSet) Less(i, j int) bool { return s.items[i].Count < s.items[j].Count }

func (s *hotSet) Swap(i, j int) {
	s.items[i], s.items[j] = s.items[j], s.items[i]
	s.index[s.items[i].Key] = i
	s.index[s.items[j].Key] = j
}

func (s *hotSet) Push(x any) {
	item := x.(Item)
	s.index[item.Key] = len(s.items)
	s.items = append(s.items, item)
}

func (s *hotSet) Pop() any {
	last := len(s.items) - 1
	item := s.items[last]
	s.items = s.items[:last]
	delete(s.index, item.Key)

	return item
}

// update replaces the count of an existing member. It reports false when key
// is not a member.
func (s *hotSet) update(key string, count uint32) bool {
	i, ok := s.index[key]
	if !ok {
		return false
	}

	s.items[i].Count = count
	heap.Fix(s, i)

	return true
}

func (s *hotSet) contains(key string) bool {
	_, ok := s.index[key]

	return ok
}

func (s *hotSet) add(item Item) {
	heap.Push(s, item)
}

// min returns the member with the lowest count. The set must not be empty.
func (s *hotSet) min() Item {
	return s.items[0]
}

func (s *hotSet) popMin() Item {
	return heap.Pop(s).(Item)
}

// halve divides every count by two. Halving is monotone so the heap order
// is preserved.
func (s *hotSet) halve() {
	for i := range s.items {
		s.items[i].Count >>= 1
	}
}

func (s *hotSet) snapshot() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)

	return out
}
