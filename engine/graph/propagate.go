package graph

// propagation resolves every non-culled usage's full Specification in two
// sweeps over the node order: a forward sweep seeding version state from
// create/modify usages, and a backward sweep pulling read/modify
// requirements back onto their producers.
type propagation struct {
	imageState  []ImageConstraint
	bufferState []BufferConstraint
}

func newPropagation(b *Builder) *propagation {
	return &propagation{
		imageState:  make([]ImageConstraint, len(b.imageUsages)),
		bufferState: make([]BufferConstraint, len(b.bufferUsages)),
	}
}

func (b *Builder) propagateConstraints(order []NodeID) (*propagation, error) {
	p := newPropagation(b)

	// Forward sweep: creates seed state, modifies merge input state into
	// their own constraint and push the merged result to both sides.
	for _, id := range order {
		n := b.nodes[id]
		for _, uid := range n.allImageUsageIDs() {
			u := &b.imageUsages[uid]
			switch u.kind {
			case usageCreate:
				p.imageState[uid] = u.constraint
			case usageModify:
				merged, err := p.imageState[u.inputUsage].Merge(u.constraint)
				if err != nil {
					return nil, err
				}
				p.imageState[u.inputUsage] = merged
				p.imageState[uid] = merged
			}
		}
		for _, uid := range n.bufferUsages {
			u := &b.bufferUsages[uid]
			switch u.kind {
			case usageCreate:
				p.bufferState[uid] = u.constraint
			case usageModify:
				merged, err := p.bufferState[u.inputUsage].Merge(u.constraint)
				if err != nil {
					return nil, err
				}
				p.bufferState[u.inputUsage] = merged
				p.bufferState[uid] = merged
			}
		}
	}

	// Seed declared output constraints before the backward sweep.
	for i := range b.imageUsages {
		u := &b.imageUsages[i]
		if !u.isOutput {
			continue
		}
		merged, err := p.imageState[i].Merge(u.constraint)
		if err != nil {
			return nil, err
		}
		p.imageState[i] = merged
	}

	// Backward sweep: reads pull version state and push their own
	// requirement upstream; modifies propagate output state back to input.
	for i := len(order) - 1; i >= 0; i-- {
		n := b.nodes[order[i]]
		for _, uid := range n.allImageUsageIDs() {
			u := &b.imageUsages[uid]
			switch u.kind {
			case usageRead:
				// Per the read's own constraint, not written back onto the
				// producer: samples is allowed to differ here (MergeForRead
				// lets the read's own value win), which is exactly the
				// MSAA-to-single-sample mismatch insertResolves looks for.
				merged, err := p.imageState[u.inputUsage].MergeForRead(u.constraint)
				if err != nil {
					return nil, err
				}
				p.imageState[uid] = merged
			case usageModify:
				merged, err := p.imageState[uid].Merge(p.imageState[u.inputUsage])
				if err != nil {
					return nil, err
				}
				p.imageState[u.inputUsage] = merged
				p.imageState[uid] = merged
			}
		}
		for _, uid := range n.bufferUsages {
			u := &b.bufferUsages[uid]
			switch u.kind {
			case usageRead:
				merged, err := p.bufferState[u.inputUsage].Merge(u.constraint)
				if err != nil {
					return nil, err
				}
				p.bufferState[uid] = merged
			case usageModify:
				merged, err := p.bufferState[uid].Merge(p.bufferState[u.inputUsage])
				if err != nil {
					return nil, err
				}
				p.bufferState[u.inputUsage] = merged
				p.bufferState[uid] = merged
			}
		}
	}

	// Resolve every non-culled usage to a full Specification.
	included := make(map[NodeID]bool, len(order))
	for _, id := range order {
		included[id] = true
	}
	for i := range b.imageUsages {
		u := &b.imageUsages[i]
		if !included[u.node] {
			continue
		}
		spec, err := p.imageState[i].Resolve(u.name)
		if err != nil {
			return nil, err
		}
		u.resolvedSpec = spec
	}
	for i := range b.bufferUsages {
		u := &b.bufferUsages[i]
		if !included[u.node] {
			continue
		}
		spec, err := p.bufferState[i].Resolve(u.name)
		if err != nil {
			return nil, err
		}
		u.resolvedSpec = spec
	}

	return p, nil
}
