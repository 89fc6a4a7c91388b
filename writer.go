package offsetidx

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/cespare/xxhash/v2"
)

// WriterOptions define writer specific options.
type WriterOptions struct {
	// The compression codec to use.
	// Default: SnappyCompression.
	Compression Compression

	// BaseOffset is the absolute position within the file at which the chunk
	// starts. All page offsets in the persisted index are shifted by it.
	// Negative values are rejected by Append and Close.
	// Default: 0.
	BaseOffset int64

	// TrackUnencoded records the uncompressed length of every page as its
	// unencoded data bytes. Enable for BYTE_ARRAY columns.
	TrackUnencoded bool

	// DisableIndex skips offset index collection. The chunk is written with
	// an empty index.
	DisableIndex bool
}

func (o *WriterOptions) norm() *WriterOptions {
	var oo WriterOptions
	if o != nil {
		oo = *o
	}

	if !oo.Compression.isValid() {
		oo.Compression = SnappyCompression
	}

	return &oo
}

// Writer instances write a column chunk: a series of pages followed by the
// chunk's offset index and a footer.
type Writer struct {
	w io.Writer
	o *WriterOptions
	b Builder

	pos int64 // bytes written, relative to BaseOffset

	buf []byte // page buffer
	cmp []byte // compression buffer
	tmp []byte // scratch buffer

	index *OffsetIndex
	err   error // first write error, returned by all subsequent calls
}

// NewWriter wraps a writer and returns a Writer.
func NewWriter(w io.Writer, o *WriterOptions) *Writer {
	o = o.norm()

	var b Builder = NewBuilder()
	if o.DisableIndex {
		b = NoopBuilder()
	}

	var err error
	if o.BaseOffset < 0 {
		err = fmt.Errorf("offsetidx: invalid base offset %d", o.BaseOffset)
	}

	return &Writer{
		w:   w,
		o:   o,
		b:   b,
		tmp: make([]byte, footerLen),
		err: err,
	}
}

// Append compresses and writes a page holding rowCount rows. Once a write to
// the underlying writer failed, the chunk is torn and every subsequent call to
// Append or Close returns that error.
func (w *Writer) Append(page []byte, rowCount uint64) error {
	if w.tmp == nil {
		return errClosed
	}
	if w.err != nil {
		return w.err
	}

	var err error
	if w.buf, w.cmp, err = compressPage(w.buf[:0], w.cmp, page, w.o.Compression); err != nil {
		return err
	}
	if uint64(len(w.buf)) > math.MaxUint32 {
		return fmt.Errorf("offsetidx: page of %d bytes exceeds the maximum page size", len(w.buf))
	}

	if err := w.writeRaw(w.buf); err != nil {
		return err
	}

	size := uint32(len(w.buf))
	if w.o.TrackUnencoded {
		w.b.AddUnencoded(size, rowCount, uint64(len(page)))
	} else {
		w.b.Add(size, rowCount)
	}
	return nil
}

// Index returns the offset index of the chunk. It is only available after
// the writer was closed and is nil if no pages were written or collection was
// disabled.
func (w *Writer) Index() *OffsetIndex {
	return w.index
}

// Close writes the offset index and the footer.
func (w *Writer) Close() error {
	if w.tmp == nil {
		return errClosed
	}
	if w.err != nil {
		return w.err
	}

	index, err := w.b.BuildShifted(w.o.BaseOffset)
	if err != nil {
		return err
	}

	indexOffset := w.o.BaseOffset + w.pos
	w.buf = appendIndex(w.buf[:0], index)
	if err := w.writeRaw(w.buf); err != nil {
		return err
	}

	if err := w.writeFooter(indexOffset, index, xxhash.Sum64(w.buf)); err != nil {
		return err
	}

	w.index = index
	w.tmp = nil
	return nil
}

func (w *Writer) writeFooter(indexOffset int64, index *OffsetIndex, sum uint64) error {
	var numPages, flags uint32
	if index != nil {
		numPages = uint32(index.NumPages())
		if index.HasUnencodedDataBytes() {
			flags |= flagUnencoded
		}
	}

	binary.LittleEndian.PutUint64(w.tmp[0:], uint64(indexOffset))
	binary.LittleEndian.PutUint32(w.tmp[8:], numPages)
	binary.LittleEndian.PutUint32(w.tmp[12:], flags)
	binary.LittleEndian.PutUint64(w.tmp[16:], sum)
	copy(w.tmp[24:], magic)
	return w.writeRaw(w.tmp[:footerLen])
}

func (w *Writer) writeRaw(p []byte) error {
	n, err := w.w.Write(p)
	w.pos += int64(n)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	if err != nil {
		w.err = err
	}
	return err
}

// appendIndex delta-encodes the page locations of index to dst.
func appendIndex(dst []byte, index *OffsetIndex) []byte {
	if index == nil {
		return dst
	}

	var prevOffset, prevRow uint64
	for i, n := 0, index.NumPages(); i < n; i++ {
		offset, row := index.Offset(i), index.FirstRowIndex(i)

		dst = appendUvarint(dst, offset-prevOffset)
		dst = appendUvarint(dst, uint64(index.CompressedPageSize(i)))
		dst = appendUvarint(dst, row-prevRow)
		if ub, ok := index.UnencodedDataBytes(i); ok {
			dst = appendUvarint(dst, ub)
		}
		prevOffset, prevRow = offset, row
	}
	return dst
}

func appendUvarint(dst []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(dst, tmp[:n]...)
}
