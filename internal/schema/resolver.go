package schema

// ---------------------------------------------------------------------
// Insertion Order (Kahn's algorithm over foreign-key edges)
// ---------------------------------------------------------------------

// Ordering is the result of resolving an insertion order.
type Ordering struct {
	// Tables covers exactly the requested names, parents before children.
	Tables []string
	// Cyclic lists tables that could not be placed topologically because
	// they sit on (or behind) a dependency cycle. They are appended to
	// Tables in input order, so loading them in this order only works if the
	// loader defers or disables foreign-key checks.
	Cyclic []string
}

// HasCycle reports whether the order is best-effort rather than topological.
func (o Ordering) HasCycle() bool {
	return len(o.Cyclic) > 0
}

// InsertionOrder is Resolve(s, names).Tables.
func InsertionOrder(s *Schema, names []string) []string {
	return Resolve(s, names).Tables
}

// Resolve orders names so that every table comes after the tables it
// references. Only edges whose both ends are in names count; self references
// are ignored and names unknown to the schema are treated as independent.
//
// Cycle policy: when the queue drains before every node is emitted the
// leftovers are appended in their input order instead of failing. This is a
// best-effort order, not a topological sort, and inserting it with strictly
// enforced foreign keys will fail for the tables listed in Cyclic.
func Resolve(s *Schema, names []string) Ordering {
	// Deduplicate while keeping input order.
	var nodes []string
	inSet := make(map[string]bool)
	for _, n := range names {
		if !inSet[n] {
			inSet[n] = true
			nodes = append(nodes, n)
		}
	}

	// dependents[B] = tables A with an edge A -> B (A depends on B).
	dependents := make(map[string][]string)
	inDegree := make(map[string]int, len(nodes))
	for _, n := range nodes {
		inDegree[n] = 0
	}
	for _, n := range nodes {
		t := s.Table(n)
		if t == nil {
			continue
		}
		for _, dep := range t.Dependencies() {
			if !inSet[dep] {
				continue // FK pointing outside the requested set
			}
			dependents[dep] = append(dependents[dep], n)
			inDegree[n]++
		}
	}

	var queue []string
	for _, n := range nodes {
		if inDegree[n] == 0 {
			queue = append(queue, n)
		}
	}

	order := make([]string, 0, len(nodes))
	emitted := make(map[string]bool, len(nodes))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, current)
		emitted[current] = true

		// dependents were collected walking nodes, so they are already in input order
		for _, child := range dependents[current] {
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	var cyclic []string
	for _, n := range nodes {
		if !emitted[n] {
			cyclic = append(cyclic, n)
			order = append(order, n)
		}
	}

	return Ordering{Tables: order, Cyclic: cyclic}
}
