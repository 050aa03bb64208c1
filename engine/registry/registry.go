// Package registry hands out the dense, process-lifetime indices that the
// render-feature pipeline and render views key off of: features, phases,
// and feature flags. A Builder accumulates registrations at startup;
// Freeze() produces an immutable *Registry used for the remainder of the
// process.
package registry

import (
	"errors"
	"sort"
)

// ErrRegistryClosed is returned when a caller attempts to register a
// feature, phase, or flag after the registry has been frozen.
var ErrRegistryClosed = errors.New("registry: cannot register after Freeze")

// FeatureIndex is the dense, stable index assigned to a RenderFeature at
// registration time.
type FeatureIndex uint16

// PhaseIndex is the dense, stable index assigned to a RenderPhase.
type PhaseIndex uint16

// FlagIndex is the dense, stable index assigned to a RenderFeatureFlag.
type FlagIndex uint16

// SubmitNodeComparator orders two submit nodes within a single render
// phase's block (e.g. front-to-back for opaque, back-to-front for
// transparent). Implementations never reflect on phase identity.
type SubmitNodeComparator func(a, b SubmitNodeOrderable) bool

// SubmitNodeOrderable is the minimal shape a phase comparator needs to see;
// the pipeline package's SubmitNode satisfies it.
type SubmitNodeOrderable interface {
	SortKey() float32
}

type featureEntry struct {
	name  string
	index FeatureIndex
}

type phaseEntry struct {
	name       string
	index      PhaseIndex
	comparator SubmitNodeComparator
}

type flagEntry struct {
	name  string
	index FlagIndex
}

// Builder accumulates feature/phase/flag registrations before the registry
// is frozen. Re-registering the same name is idempotent and returns the
// existing index.
type Builder struct {
	features []featureEntry
	phases   []phaseEntry
	flags    []flagEntry
	closed   bool
}

func NewBuilder() *Builder {
	return &Builder{}
}

// RegisterFeature assigns (or returns the existing) dense index for a named
// render feature.
func (b *Builder) RegisterFeature(name string) (FeatureIndex, error) {
	if b.closed {
		return 0, ErrRegistryClosed
	}
	for _, f := range b.features {
		if f.name == name {
			return f.index, nil
		}
	}
	idx := FeatureIndex(len(b.features))
	b.features = append(b.features, featureEntry{name: name, index: idx})
	return idx, nil
}

// RegisterPhase assigns (or returns the existing) dense index for a named
// render phase, along with the submit-node comparator used to order its
// blocks during submit-block build.
func (b *Builder) RegisterPhase(name string, comparator SubmitNodeComparator) (PhaseIndex, error) {
	if b.closed {
		return 0, ErrRegistryClosed
	}
	for _, p := range b.phases {
		if p.name == name {
			return p.index, nil
		}
	}
	idx := PhaseIndex(len(b.phases))
	b.phases = append(b.phases, phaseEntry{name: name, index: idx, comparator: comparator})
	return idx, nil
}

// RegisterFlag assigns (or returns the existing) dense index for a named
// render feature flag.
func (b *Builder) RegisterFlag(name string) (FlagIndex, error) {
	if b.closed {
		return 0, ErrRegistryClosed
	}
	for _, f := range b.flags {
		if f.name == name {
			return f.index, nil
		}
	}
	idx := FlagIndex(len(b.flags))
	b.flags = append(b.flags, flagEntry{name: name, index: idx})
	return idx, nil
}

// Freeze closes the builder and returns the immutable Registry. The builder
// itself remains usable only for inspection; further registration attempts
// fail with ErrRegistryClosed.
func (b *Builder) Freeze() *Registry {
	b.closed = true

	features := make([]string, len(b.features))
	for _, f := range b.features {
		features[f.index] = f.name
	}

	phaseNames := make([]string, len(b.phases))
	comparators := make([]SubmitNodeComparator, len(b.phases))
	for _, p := range b.phases {
		phaseNames[p.index] = p.name
		comparators[p.index] = p.comparator
	}

	flags := make([]string, len(b.flags))
	for _, f := range b.flags {
		flags[f.index] = f.name
	}

	return &Registry{
		featureNames:     features,
		phaseNames:       phaseNames,
		phaseComparators: comparators,
		flagNames:        flags,
	}
}

// Registry is the frozen, read-only set of features/phases/flags known to
// the process. Every index handed out before Freeze remains stable for the
// lifetime of the Registry.
type Registry struct {
	featureNames     []string
	phaseNames       []string
	phaseComparators []SubmitNodeComparator
	flagNames        []string
}

func (r *Registry) FeatureCount() int { return len(r.featureNames) }
func (r *Registry) PhaseCount() int   { return len(r.phaseNames) }
func (r *Registry) FlagCount() int    { return len(r.flagNames) }

func (r *Registry) FeatureName(i FeatureIndex) string { return r.featureNames[i] }
func (r *Registry) PhaseName(i PhaseIndex) string      { return r.phaseNames[i] }
func (r *Registry) FlagName(i FlagIndex) string        { return r.flagNames[i] }

// PhaseComparator returns the ordering function registered for a phase, or
// nil if none was registered (ascending-by-sort-key is a reasonable
// fallback callers may apply themselves).
func (r *Registry) PhaseComparator(i PhaseIndex) SubmitNodeComparator {
	return r.phaseComparators[i]
}

// SortedFeatureNames is a debug helper returning feature names in
// alphabetical order, not index order (the two need not coincide; this is
// purely for deterministic log output).
func (r *Registry) SortedFeatureNames() []string {
	out := append([]string(nil), r.featureNames...)
	sort.Strings(out)
	return out
}
