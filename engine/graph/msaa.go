package graph

// insertResolves scans every multisampled color-attachment write and, if
// any downstream read requires the same image at sample count 1, inserts
// a resolve attachment on the producing node and rewrites that read (and
// any other matching reads) to consume the resolve image instead. This is
// the engine's one MSAA-aware optimization: the hardware resolves
// multisample-to-single-sample for free at the end of a render pass, so
// a resolve attachment is strictly cheaper than a later blit pass.
func (b *Builder) insertResolves(order []NodeID) {
	included := make(map[NodeID]bool, len(order))
	for _, id := range order {
		included[id] = true
	}

	// Snapshot the length: resolve usages appended below must not be
	// rescanned as candidate writes.
	writeCount := len(b.imageUsages)

	for i := 0; i < writeCount; i++ {
		u := b.imageUsages[i]
		if !included[u.node] {
			continue
		}
		if u.attachment != attachmentColor || u.resolvedSpec.Samples <= 1 {
			continue
		}
		if u.kind != usageCreate && u.kind != usageModify {
			continue
		}

		var matches []int
		for j := 0; j < writeCount; j++ {
			r := b.imageUsages[j]
			if !included[r.node] || r.kind != usageRead || r.inputUsage != ImageUsageID(i) {
				continue
			}
			if r.resolvedSpec.Samples == 1 && sameSpecExceptSamples(r.resolvedSpec, u.resolvedSpec) {
				matches = append(matches, j)
			}
		}
		if len(matches) == 0 {
			continue
		}

		resolveSpec := u.resolvedSpec
		resolveSpec.Samples = 1
		resolveID := b.pushImage(imageUsage{
			node:         u.node,
			name:         u.name + ".resolve",
			kind:         usageCreate,
			attachment:   attachmentResolve,
			inputUsage:   -1,
			resolvedSpec: resolveSpec,
		})

		n := b.nodes[u.node]
		if n.resolveAttachments == nil {
			n.resolveAttachments = make(map[ImageUsageID]ImageUsageID)
		}
		n.resolveAttachments[ImageUsageID(i)] = resolveID

		for _, j := range matches {
			b.imageUsages[j].inputUsage = resolveID
		}
	}
}
