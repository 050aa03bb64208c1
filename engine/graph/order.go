package graph

// nodeState marks DFS visitation: white (unvisited), gray (on stack),
// black (finished) — the standard cycle-detection coloring.
type nodeState int

const (
	stateWhite nodeState = iota
	stateGray
	stateBlack
)

// orderNodes walks backwards from every graph-output usage via
// depth-first search, pushing a node onto the returned order only after
// every node it depends on has been visited. Nodes unreachable from any
// output are culled — they never appear in the result. A cycle among
// dependency edges fails with a CycleError naming the DFS stack.
func (b *Builder) orderNodes() ([]NodeID, error) {
	state := make([]nodeState, len(b.nodes))
	order := make([]NodeID, 0, len(b.nodes))
	var stack []string

	var visit func(id NodeID) error
	visit = func(id NodeID) error {
		switch state[id] {
		case stateBlack:
			return nil
		case stateGray:
			return &CycleError{Stack: append(append([]string{}, stack...), b.nodes[id].name)}
		}
		state[id] = stateGray
		stack = append(stack, b.nodes[id].name)

		for _, dep := range b.nodeDependencies(id) {
			if err := visit(dep); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		state[id] = stateBlack
		order = append(order, id)
		return nil
	}

	for _, id := range b.outputNodeIDs() {
		if err := visit(id); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// outputNodeIDs returns, in declaration order, the distinct nodes that own
// at least one graph-output image usage.
func (b *Builder) outputNodeIDs() []NodeID {
	seen := make(map[NodeID]bool)
	var ids []NodeID
	for _, u := range b.imageUsages {
		if !u.isOutput || seen[u.node] {
			continue
		}
		seen[u.node] = true
		ids = append(ids, u.node)
	}
	return ids
}

// nodeDependencies returns the distinct nodes that produced the upstream
// versions this node's read/modify usages consume.
func (b *Builder) nodeDependencies(id NodeID) []NodeID {
	n := b.nodes[id]
	var deps []NodeID
	seen := map[NodeID]bool{id: true}

	add := func(dep NodeID) {
		if !seen[dep] {
			seen[dep] = true
			deps = append(deps, dep)
		}
	}

	for _, uid := range n.allImageUsageIDs() {
		u := b.imageUsages[uid]
		if u.inputUsage >= 0 {
			add(b.imageUsages[u.inputUsage].node)
		}
	}
	for _, uid := range n.bufferUsages {
		u := b.bufferUsages[uid]
		if u.inputUsage >= 0 {
			add(b.bufferUsages[u.inputUsage].node)
		}
	}
	return deps
}
