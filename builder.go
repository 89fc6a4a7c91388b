package offsetidx

import "fmt"

// Builder accumulates page locations and finalizes them into an OffsetIndex.
//
// Two protocols are supported, but must not be mixed on the same instance:
//
//   - Add and AddUnencoded are used by writers. They derive each page's offset
//     and first row index from the previously added page.
//   - AddAt and AddAtUnencoded are used when reconstructing an index from
//     persisted metadata. All values are passed explicitly.
//
// Mixing is not detected. AddAt does not update the row count of the
// previous page, so a subsequent Add computes a wrong first row index.
//
// Unencoded data bytes are tracked per column: either every page carries a
// value or none does.
type Builder interface {
	// Add appends a page of size bytes (including the header) holding rowCount
	// rows, directly after the previously added page.
	Add(size uint32, rowCount uint64)
	// AddUnencoded is like Add, but also records the number of unencoded
	// BYTE_ARRAY data bytes of the page.
	AddUnencoded(size uint32, rowCount, unencoded uint64)
	// AddAt appends a page at an explicit offset, starting with firstRow.
	AddAt(offset uint64, size uint32, firstRow uint64)
	// AddAtUnencoded is like AddAt, but also records the number of unencoded
	// BYTE_ARRAY data bytes of the page.
	AddAtUnencoded(offset uint64, size uint32, firstRow, unencoded uint64)
	// AppendIndex appends all pages of idx and resets the delta cursors to
	// zero. Subsequent calls to Add compute offsets as if starting at the
	// beginning of the file.
	AppendIndex(idx *OffsetIndex) Builder
	// Build is a shortcut for BuildShifted(0).
	Build() (*OffsetIndex, error)
	// BuildShifted finalizes the accumulated pages into a new OffsetIndex,
	// adding shift to every page offset. It returns a nil index (and no error)
	// if no pages were added. The builder remains usable afterwards.
	BuildShifted(shift int64) (*OffsetIndex, error)
}

// NoopBuilder returns a shared Builder which discards all pages. Both build
// methods always return a nil index.
func NoopBuilder() Builder { return noop }

var noop Builder = noopBuilder{}

type noopBuilder struct{}

func (noopBuilder) Add(uint32, uint64)                            {}
func (noopBuilder) AddUnencoded(uint32, uint64, uint64)           {}
func (noopBuilder) AddAt(uint64, uint32, uint64)                  {}
func (noopBuilder) AddAtUnencoded(uint64, uint32, uint64, uint64) {}
func (b noopBuilder) AppendIndex(*OffsetIndex) Builder            { return b }
func (noopBuilder) Build() (*OffsetIndex, error)                  { return nil, nil }
func (noopBuilder) BuildShifted(int64) (*OffsetIndex, error)      { return nil, nil }

// --------------------------------------------------------------------

// IndexBuilder is the collecting Builder implementation. It is not safe for
// concurrent use.
type IndexBuilder struct {
	offsets   []uint64
	sizes     []uint32
	firstRows []uint64
	unencoded []uint64

	prevOffset   uint64
	prevSize     uint32
	prevRowIndex uint64
	prevRowCount uint64
}

// NewBuilder returns a new, empty IndexBuilder.
func NewBuilder() *IndexBuilder {
	return new(IndexBuilder)
}

// NumPages returns the number of pages added so far.
func (b *IndexBuilder) NumPages() int { return len(b.offsets) }

// Reset clears all pages and cursors, retaining allocated buffers.
func (b *IndexBuilder) Reset() {
	*b = IndexBuilder{
		offsets:   b.offsets[:0],
		sizes:     b.sizes[:0],
		firstRows: b.firstRows[:0],
		unencoded: b.unencoded[:0],
	}
}

// Add implements Builder.
func (b *IndexBuilder) Add(size uint32, rowCount uint64) {
	b.AddAt(b.prevOffset+uint64(b.prevSize), size, b.prevRowIndex+b.prevRowCount)
	b.prevRowCount = rowCount
}

// AddUnencoded implements Builder.
func (b *IndexBuilder) AddUnencoded(size uint32, rowCount, unencoded uint64) {
	b.AddAtUnencoded(b.prevOffset+uint64(b.prevSize), size, b.prevRowIndex+b.prevRowCount, unencoded)
	b.prevRowCount = rowCount
}

// AddAt implements Builder.
func (b *IndexBuilder) AddAt(offset uint64, size uint32, firstRow uint64) {
	b.offsets = append(b.offsets, offset)
	b.sizes = append(b.sizes, size)
	b.firstRows = append(b.firstRows, firstRow)

	b.prevOffset = offset
	b.prevSize = size
	b.prevRowIndex = firstRow
}

// AddAtUnencoded implements Builder.
func (b *IndexBuilder) AddAtUnencoded(offset uint64, size uint32, firstRow, unencoded uint64) {
	b.AddAt(offset, size, firstRow)
	b.unencoded = append(b.unencoded, unencoded)
}

// AppendIndex implements Builder.
func (b *IndexBuilder) AppendIndex(idx *OffsetIndex) Builder {
	if idx != nil {
		b.offsets = append(b.offsets, idx.offsets...)
		b.sizes = append(b.sizes, idx.sizes...)
		b.firstRows = append(b.firstRows, idx.firstRows...)
		b.unencoded = append(b.unencoded, idx.unencoded...)
	}

	b.prevOffset = 0
	b.prevSize = 0
	b.prevRowIndex = 0
	b.prevRowCount = 0
	return b
}

// Build implements Builder.
func (b *IndexBuilder) Build() (*OffsetIndex, error) {
	return b.BuildShifted(0)
}

// BuildShifted implements Builder.
func (b *IndexBuilder) BuildShifted(shift int64) (*OffsetIndex, error) {
	n := len(b.offsets)
	if n == 0 {
		return nil, nil
	}
	if m := len(b.unencoded); m != 0 && m != n {
		return nil, fmt.Errorf("%w: %d unencoded data byte values for %d pages", ErrInconsistentState, m, n)
	}

	offsets := make([]uint64, n)
	copy(offsets, b.offsets)
	if shift != 0 {
		for i := range offsets {
			offsets[i] += uint64(shift)
		}
	}

	idx := &OffsetIndex{
		offsets:   offsets,
		sizes:     make([]uint32, n),
		firstRows: make([]uint64, n),
	}
	copy(idx.sizes, b.sizes)
	copy(idx.firstRows, b.firstRows)

	if len(b.unencoded) != 0 {
		idx.unencoded = make([]uint64, n)
		copy(idx.unencoded, b.unencoded)
	}
	return idx, nil
}
