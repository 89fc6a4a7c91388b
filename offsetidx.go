package offsetidx

import "errors"

var magic = []byte{79, 73, 68, 88, 31, 122, 101, 219}

const footerLen = 32

const (
	pageNoCompression     = 0
	pageSnappyCompression = 1
	pageZstdCompression   = 2
)

const flagUnencoded = 1 << 0

// ErrInconsistentState is returned by Build when unencoded data bytes were
// recorded for some, but not all pages.
var ErrInconsistentState = errors.New("offsetidx: inconsistent builder state")

// ErrPageOutOfRange is returned by the reader when a page position is outside
// of [0, NumPages).
var ErrPageOutOfRange = errors.New("offsetidx: page out of range")

var (
	errClosed         = errors.New("offsetidx: is closed")
	errBadMagic       = errors.New("offsetidx: bad magic byte sequence")
	errBadCompression = errors.New("offsetidx: bad compression codec")
	errBadChecksum    = errors.New("offsetidx: index checksum mismatch")
	errBadFooter      = errors.New("offsetidx: bad footer")
)

// --------------------------------------------------------------------

// Compression is the page compression codec
type Compression byte

func (c Compression) isValid() bool {
	return c >= SnappyCompression && c < unknownCompression
}

// Supported compression codecs
const (
	SnappyCompression Compression = iota
	NoCompression
	ZstdCompression
	unknownCompression
)
