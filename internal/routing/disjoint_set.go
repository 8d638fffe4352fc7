package routing

// DisjointSet is a union-find over the integers [0, n) with union by rank
// and iterative path compression.
type DisjointSet struct {
	parent []int
	rank   []int
}

func NewDisjointSet(n int) *DisjointSet {
	s := &DisjointSet{
		parent: make([]int, n),
		rank:   make([]int, n),
	}
	for i := range s.parent {
		s.parent[i] = i
	}
	return s
}

func (s *DisjointSet) Len() int {
	return len(s.parent)
}

// Find returns the representative of the set containing id.
func (s *DisjointSet) Find(id int) int {
	root := id
	for s.parent[root] != root {
		root = s.parent[root]
	}
	for s.parent[id] != root {
		next := s.parent[id]
		s.parent[id] = root
		id = next
	}
	return root
}

// Union merges the sets of a and b and reports whether they were distinct.
func (s *DisjointSet) Union(a, b int) bool {
	rootA, rootB := s.Find(a), s.Find(b)
	if rootA == rootB {
		return false
	}
	switch {
	case s.rank[rootA] > s.rank[rootB]:
		s.parent[rootB] = rootA
	case s.rank[rootA] < s.rank[rootB]:
		s.parent[rootA] = rootB
	default:
		s.parent[rootB] = rootA
		s.rank[rootA]++
	}
	return true
}

// Sets counts the distinct sets.
func (s *DisjointSet) Sets() int {
	n := 0
	for i := range s.parent {
		if s.Find(i) == i {
			n++
		}
	}
	return n
}
