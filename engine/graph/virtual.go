package graph

// assignVirtualResources assigns a VirtualImageID/VirtualBufferID to every
// non-culled usage such that two usages share an ID iff they reference the
// same underlying data. A create usage always gets a fresh ID; a modify or
// read usage inherits its input's ID.
//
// A modify or read usage whose resolved spec differs from its producer's in
// any field other than Usage fails with UsagesRequireBlitError. Usage flags
// are left out of the comparison: a read adds its own flags (a sampled read
// adds Sampled) and physical assignment ORs the flags of every usage that
// shares a virtual resource. Conflicting fields normally fail earlier, in
// constraint propagation, with ConflictingConstraintError.
func (b *Builder) assignVirtualResources(order []NodeID) error {
	nextImage := VirtualImageID(0)
	nextBuffer := VirtualBufferID(0)

	for _, id := range order {
		n := b.nodes[id]
		for _, uid := range n.allImageUsageIDs() {
			u := &b.imageUsages[uid]
			switch u.kind {
			case usageCreate:
				u.virtualID = nextImage
				nextImage++
			case usageModify, usageRead:
				producer := &b.imageUsages[u.inputUsage]
				mine, theirs := u.resolvedSpec, producer.resolvedSpec
				mine.Usage, theirs.Usage = 0, 0
				if mine != theirs {
					return &UsagesRequireBlitError{From: producer.name, To: u.name}
				}
				u.virtualID = producer.virtualID
			}
		}
		for _, uid := range n.bufferUsages {
			u := &b.bufferUsages[uid]
			switch u.kind {
			case usageCreate:
				u.virtualID = nextBuffer
				nextBuffer++
			case usageModify, usageRead:
				producer := &b.bufferUsages[u.inputUsage]
				mine, theirs := u.resolvedSpec, producer.resolvedSpec
				mine.Usage, theirs.Usage = 0, 0
				if mine != theirs {
					return &UsagesRequireBlitError{From: producer.name, To: u.name}
				}
				u.virtualID = producer.virtualID
			}
		}
	}
	return nil
}
