package graph

import (
	"fmt"

	"github.com/spaghettifunk/forgegraph/engine/gpu"
)

// ImageConstraint is a partial image specification: any subset of its
// fields may be unset. Constraint propagation merges constraints from
// adjacent usages until every field is pinned down, or fails with
// ConflictingConstraintError.
type ImageConstraint struct {
	Format     *gpu.Format
	Samples    *uint8
	Width      *uint32
	Height     *uint32
	Depth      *uint32
	LayerCount *uint32
	MipCount   *uint32
	Usage      *gpu.ImageUsageFlags
}

// ImageSpecification is a fully resolved ImageConstraint.
type ImageSpecification struct {
	Format     gpu.Format
	Samples    uint8
	Width      uint32
	Height     uint32
	Depth      uint32
	LayerCount uint32
	MipCount   uint32
	Usage      gpu.ImageUsageFlags
}

func u32p(v uint32) *uint32       { return &v }
func u8p(v uint8) *uint8          { return &v }
func fmtp(v gpu.Format) *gpu.Format { return &v }

func mergeField[T comparable](field string, a, b *T) (*T, error) {
	switch {
	case a == nil && b == nil:
		return nil, nil
	case a == nil:
		return b, nil
	case b == nil:
		return a, nil
	case *a == *b:
		return a, nil
	default:
		return nil, &ConflictingConstraintError{Field: field, A: fmt.Sprint(*a), B: fmt.Sprint(*b)}
	}
}

// Merge combines two partial image constraints field by field. Two
// constraints that both set the same field to different values fail with
// ConflictingConstraintError.
func (c ImageConstraint) Merge(other ImageConstraint) (ImageConstraint, error) {
	var out ImageConstraint
	var err error
	if out.Format, err = mergeField("format", c.Format, other.Format); err != nil {
		return out, err
	}
	if out.Samples, err = mergeField("samples", c.Samples, other.Samples); err != nil {
		return out, err
	}
	if out.Width, err = mergeField("width", c.Width, other.Width); err != nil {
		return out, err
	}
	if out.Height, err = mergeField("height", c.Height, other.Height); err != nil {
		return out, err
	}
	if out.Depth, err = mergeField("depth", c.Depth, other.Depth); err != nil {
		return out, err
	}
	if out.LayerCount, err = mergeField("layer_count", c.LayerCount, other.LayerCount); err != nil {
		return out, err
	}
	if out.MipCount, err = mergeField("mip_count", c.MipCount, other.MipCount); err != nil {
		return out, err
	}
	if out.Usage, err = mergeUsage(c.Usage, other.Usage); err != nil {
		return out, err
	}
	return out, nil
}

// MergeForRead combines a producer's propagated state with a read usage's
// own constraint, the way the backward constraint-propagation sweep does:
// every field matches normally except Samples, where the read's own value
// (if set) wins outright. This is what lets a single-sample read observe
// a multisampled producer without ConflictingConstraint — that mismatch is
// exactly the signal the MSAA-resolve-insertion pass looks for.
func (producer ImageConstraint) MergeForRead(read ImageConstraint) (ImageConstraint, error) {
	var out ImageConstraint
	var ferr error
	if out.Format, ferr = mergeField("format", producer.Format, read.Format); ferr != nil {
		return out, ferr
	}
	if out.Width, ferr = mergeField("width", producer.Width, read.Width); ferr != nil {
		return out, ferr
	}
	if out.Height, ferr = mergeField("height", producer.Height, read.Height); ferr != nil {
		return out, ferr
	}
	if out.Depth, ferr = mergeField("depth", producer.Depth, read.Depth); ferr != nil {
		return out, ferr
	}
	if out.LayerCount, ferr = mergeField("layer_count", producer.LayerCount, read.LayerCount); ferr != nil {
		return out, ferr
	}
	if out.MipCount, ferr = mergeField("mip_count", producer.MipCount, read.MipCount); ferr != nil {
		return out, ferr
	}
	if out.Usage, ferr = mergeUsage(producer.Usage, read.Usage); ferr != nil {
		return out, ferr
	}
	switch {
	case read.Samples != nil:
		out.Samples = read.Samples
	default:
		out.Samples = producer.Samples
	}
	return out, nil
}

// mergeUsage ORs usage flags together rather than requiring equality: a
// resource shared by a color-attachment usage and a sampled-image usage
// needs both flags, not a conflict.
func mergeUsage(a, b *gpu.ImageUsageFlags) (*gpu.ImageUsageFlags, error) {
	switch {
	case a == nil && b == nil:
		return nil, nil
	case a == nil:
		return b, nil
	case b == nil:
		return a, nil
	default:
		merged := *a | *b
		return &merged, nil
	}
}

// Resolve requires every field to be set and returns the fully resolved
// Specification, or IncompleteSpecificationError naming the first unset
// field.
func (c ImageConstraint) Resolve(usage string) (ImageSpecification, error) {
	var spec ImageSpecification
	switch {
	case c.Format == nil:
		return spec, &IncompleteSpecificationError{Usage: usage, Field: "format"}
	case c.Samples == nil:
		return spec, &IncompleteSpecificationError{Usage: usage, Field: "samples"}
	case c.Width == nil:
		return spec, &IncompleteSpecificationError{Usage: usage, Field: "width"}
	case c.Height == nil:
		return spec, &IncompleteSpecificationError{Usage: usage, Field: "height"}
	case c.Depth == nil:
		return spec, &IncompleteSpecificationError{Usage: usage, Field: "depth"}
	case c.LayerCount == nil:
		return spec, &IncompleteSpecificationError{Usage: usage, Field: "layer_count"}
	case c.MipCount == nil:
		return spec, &IncompleteSpecificationError{Usage: usage, Field: "mip_count"}
	case c.Usage == nil:
		return spec, &IncompleteSpecificationError{Usage: usage, Field: "usage"}
	}
	return ImageSpecification{
		Format:     *c.Format,
		Samples:    *c.Samples,
		Width:      *c.Width,
		Height:     *c.Height,
		Depth:      *c.Depth,
		LayerCount: *c.LayerCount,
		MipCount:   *c.MipCount,
		Usage:      *c.Usage,
	}, nil
}

func (s ImageSpecification) asConstraint() ImageConstraint {
	return ImageConstraint{
		Format:     fmtp(s.Format),
		Samples:    u8p(s.Samples),
		Width:      u32p(s.Width),
		Height:     u32p(s.Height),
		Depth:      u32p(s.Depth),
		LayerCount: u32p(s.LayerCount),
		MipCount:   u32p(s.MipCount),
		Usage:      &s.Usage,
	}
}

// sameSpecExceptSamples reports whether two specs are identical in every
// field but sample count and usage flags, used by the MSAA-resolve-insertion pass to find
// a downstream single-sample read that can be served by a resolve.
func sameSpecExceptSamples(a, b ImageSpecification) bool {
	return a.Format == b.Format &&
		a.Width == b.Width && a.Height == b.Height && a.Depth == b.Depth &&
		a.LayerCount == b.LayerCount && a.MipCount == b.MipCount
}

// BufferConstraint is the buffer analogue of ImageConstraint.
type BufferConstraint struct {
	Size  *uint64
	Usage *gpu.BufferUsageFlags
}

// BufferSpecification is a fully resolved BufferConstraint.
type BufferSpecification struct {
	Size  uint64
	Usage gpu.BufferUsageFlags
}

func (c BufferConstraint) Merge(other BufferConstraint) (BufferConstraint, error) {
	var out BufferConstraint
	var err error
	if out.Size, err = mergeField("size", c.Size, other.Size); err != nil {
		return out, err
	}
	switch {
	case c.Usage == nil && other.Usage == nil:
	case c.Usage == nil:
		out.Usage = other.Usage
	case other.Usage == nil:
		out.Usage = c.Usage
	default:
		merged := *c.Usage | *other.Usage
		out.Usage = &merged
	}
	return out, nil
}

func (c BufferConstraint) Resolve(usage string) (BufferSpecification, error) {
	var spec BufferSpecification
	if c.Size == nil {
		return spec, &IncompleteSpecificationError{Usage: usage, Field: "size"}
	}
	if c.Usage == nil {
		return spec, &IncompleteSpecificationError{Usage: usage, Field: "usage"}
	}
	return BufferSpecification{Size: *c.Size, Usage: *c.Usage}, nil
}
