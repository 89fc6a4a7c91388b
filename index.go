package offsetidx

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// OffsetIndex is an immutable, finalized offset index of a column chunk. It
// describes the location of every page and the first row each page holds.
//
// An OffsetIndex always has at least one page. Accessors panic if the page
// position is outside of [0, NumPages()). Instances are safe for concurrent
// use.
type OffsetIndex struct {
	offsets   []uint64
	sizes     []uint32
	firstRows []uint64
	unencoded []uint64 // nil unless tracked for every page
}

// NumPages returns the number of pages.
func (x *OffsetIndex) NumPages() int { return len(x.offsets) }

// Offset returns the byte position of the i-th page within the file.
func (x *OffsetIndex) Offset(i int) uint64 { return x.offsets[i] }

// CompressedPageSize returns the size of the i-th page in bytes, including
// its header.
func (x *OffsetIndex) CompressedPageSize(i int) uint32 { return x.sizes[i] }

// FirstRowIndex returns the index of the first row of the i-th page, relative
// to the beginning of the row group.
func (x *OffsetIndex) FirstRowIndex(i int) uint64 { return x.firstRows[i] }

// PageOrdinal returns the ordinal of the i-th page within the column chunk.
// Currently this is always i.
func (x *OffsetIndex) PageOrdinal(i int) int {
	_ = x.offsets[i]
	return i
}

// HasUnencodedDataBytes returns true if unencoded byte array data sizes were
// tracked for the pages.
func (x *OffsetIndex) HasUnencodedDataBytes() bool { return x.unencoded != nil }

// UnencodedDataBytes returns the number of unencoded BYTE_ARRAY data bytes of
// the i-th page. The second return value is false when the column did not
// track them; it is the same for every page.
func (x *OffsetIndex) UnencodedDataBytes(i int) (uint64, bool) {
	if x.unencoded == nil {
		_ = x.offsets[i]
		return 0, false
	}
	return x.unencoded[i], true
}

// LastRowIndex returns the index of the last row of the i-th page. The
// rowCount of the row group is required to determine the last row of the
// final page. A page which holds no rows (including a final page when
// rowCount does not exceed its first row) reports its first row index.
func (x *OffsetIndex) LastRowIndex(i int, rowCount uint64) uint64 {
	first := x.firstRows[i]

	next := rowCount
	if n := i + 1; n < len(x.firstRows) {
		next = x.firstRows[n]
	}
	if next <= first {
		return first
	}
	return next - 1
}

// FindPage returns the position of the page containing the row. It returns
// -1 if the row precedes the first row of the first page.
func (x *OffsetIndex) FindPage(row uint64) int {
	return sort.Search(len(x.firstRows), func(i int) bool {
		return x.firstRows[i] > row
	}) - 1
}

// String renders the index as a fixed-width table.
func (x *OffsetIndex) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-10s  %20s  %20s  %20s  %20s\n", "", "offset", "compressed size", "first row index", "unencoded bytes")
	for i := range x.offsets {
		ub := "-"
		if x.unencoded != nil {
			ub = strconv.FormatUint(x.unencoded[i], 10)
		}
		fmt.Fprintf(&b, "page-%-5d  %20d  %20d  %20d  %20s\n", i, x.offsets[i], x.sizes[i], x.firstRows[i], ub)
	}
	return b.String()
}
