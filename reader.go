package offsetidx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Reader instances can seek and read pages of a column chunk.
type Reader struct {
	r     io.ReaderAt
	index *OffsetIndex
}

// NewReader opens a reader. The end is the absolute position at which the
// chunk ends within r, i.e. the size of the file for a chunk that was written
// last.
func NewReader(r io.ReaderAt, end int64) (*Reader, error) {
	if end < footerLen {
		return nil, errBadFooter
	}

	// read footer
	footerOffset := end - footerLen
	tmp := make([]byte, footerLen)
	if _, err := r.ReadAt(tmp, footerOffset); err != nil {
		return nil, err
	}

	// parse footer
	if !bytes.Equal(tmp[24:], magic) {
		return nil, errBadMagic
	}
	indexOffset := int64(binary.LittleEndian.Uint64(tmp[0:]))
	numPages := int(binary.LittleEndian.Uint32(tmp[8:]))
	flags := binary.LittleEndian.Uint32(tmp[12:])
	sum := binary.LittleEndian.Uint64(tmp[16:])

	if indexOffset < 0 || indexOffset > footerOffset {
		return nil, errBadFooter
	}

	// read index
	raw := make([]byte, int(footerOffset-indexOffset))
	if len(raw) != 0 {
		if _, err := r.ReadAt(raw, indexOffset); err != nil {
			return nil, err
		}
	}
	if xxhash.Sum64(raw) != sum {
		return nil, errBadChecksum
	}

	index, err := parseIndex(raw, uint64(indexOffset), numPages, flags&flagUnencoded != 0)
	if err != nil {
		return nil, err
	}

	return &Reader{r: r, index: index}, nil
}

// parseIndex reconstructs an OffsetIndex from its delta-encoded form. All pages
// must end before the index.
func parseIndex(raw []byte, indexOffset uint64, numPages int, hasUnencoded bool) (*OffsetIndex, error) {
	b := NewBuilder()

	var pos int
	next := func() (uint64, error) {
		u, n := binary.Uvarint(raw[pos:])
		if n <= 0 {
			return 0, errBadFooter
		}
		pos += n
		return u, nil
	}

	var offset, row uint64
	for i := 0; i < numPages; i++ {
		u1, err := next()
		if err != nil {
			return nil, err
		}
		size, err := next()
		if err != nil {
			return nil, err
		}
		u3, err := next()
		if err != nil {
			return nil, err
		}
		if size > math.MaxUint32 {
			return nil, errBadFooter
		}

		offset += u1
		row += u3
		if offset > indexOffset || size > indexOffset-offset {
			return nil, errBadFooter
		}

		if !hasUnencoded {
			b.AddAt(offset, uint32(size), row)
			continue
		}

		ub, err := next()
		if err != nil {
			return nil, err
		}
		b.AddAtUnencoded(offset, uint32(size), row, ub)
	}

	if pos != len(raw) {
		return nil, errBadFooter
	}
	return b.Build()
}

// Index returns the offset index. It is nil if the chunk has no pages or was
// written without an index.
func (r *Reader) Index() *OffsetIndex { return r.index }

// NumPages returns the number of indexed pages.
func (r *Reader) NumPages() int {
	if r.index == nil {
		return 0
	}
	return r.index.NumPages()
}

// ReadPage reads and decompresses the n-th page. It may return an
// ErrPageOutOfRange error.
func (r *Reader) ReadPage(n int) (*Page, error) {
	if n < 0 || n >= r.NumPages() {
		return nil, ErrPageOutOfRange
	}

	size := uint64(r.index.CompressedPageSize(n))
	if size > math.MaxInt {
		return nil, fmt.Errorf("offsetidx: page of %d bytes exceeds addressable memory", size)
	}

	raw := fetchBuffer(int(size))
	if _, err := r.r.ReadAt(raw, int64(r.index.Offset(n))); err != nil {
		releaseBuffer(raw)
		return nil, err
	}

	plain, owned, err := decompressPage(raw)
	if err != nil {
		releaseBuffer(raw)
		return nil, err
	}

	buf := raw
	if owned {
		releaseBuffer(raw)
		buf = plain
	}

	return &Page{
		data:     plain,
		buf:      buf,
		ordinal:  r.index.PageOrdinal(n),
		firstRow: r.index.FirstRowIndex(n),
	}, nil
}

// SeekRow reads the page containing the row. Rows past the end of the row
// group resolve to the last page. It may return an ErrPageOutOfRange error.
func (r *Reader) SeekRow(row uint64) (*Page, error) {
	if r.index == nil {
		return nil, ErrPageOutOfRange
	}
	return r.ReadPage(r.index.FindPage(row))
}

// --------------------------------------------------------------------

// Page is a single, decompressed page.
type Page struct {
	data []byte
	buf  []byte

	ordinal  int
	firstRow uint64
}

// Ordinal returns the position of the page within the chunk.
func (p *Page) Ordinal() int { return p.ordinal }

// FirstRowIndex returns the index of the first row of the page.
func (p *Page) FirstRowIndex() uint64 { return p.firstRow }

// Data returns the page payload. Please note that the payload is a temporary
// buffer and must be copied if used beyond Release.
func (p *Page) Data() []byte { return p.data }

// Release releases the page and frees up resources. The page must not be used
// after this method is called.
func (p *Page) Release() {
	releaseBuffer(p.buf)
	p.data, p.buf = nil, nil
}
