package offsetidx

import (
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

var (
	zstdOnce sync.Once
	zstdEnc  *zstd.Encoder
	zstdDec  *zstd.Decoder
	zstdErr  error
)

// zstdCodec returns shared encoder/decoder instances. EncodeAll and DecodeAll
// are safe for concurrent use.
func zstdCodec() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		if zstdEnc, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1), zstd.WithLowerEncoderMem(true)); zstdErr != nil {
			return
		}
		zstdDec, zstdErr = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	})
	return zstdEnc, zstdDec, zstdErr
}

// compressPage appends the encoded page, followed by the compression type
// byte, to dst. It falls back to no compression unless the codec saves at
// least 25%.
func compressPage(dst, scratch, plain []byte, c Compression) ([]byte, []byte, error) {
	switch c {
	case SnappyCompression:
		scratch = snappy.Encode(scratch[:cap(scratch)], plain)
		if len(scratch) < len(plain)-len(plain)/4 {
			dst = append(dst, scratch...)
			return append(dst, pageSnappyCompression), scratch, nil
		}
	case ZstdCompression:
		enc, _, err := zstdCodec()
		if err != nil {
			return dst, scratch, err
		}
		scratch = enc.EncodeAll(plain, scratch[:0])
		if len(scratch) < len(plain)-len(plain)/4 {
			dst = append(dst, scratch...)
			return append(dst, pageZstdCompression), scratch, nil
		}
	}

	dst = append(dst, plain...)
	return append(dst, pageNoCompression), scratch, nil
}

// decompressPage decodes a raw page. The returned slice is either a sub-slice
// of raw or a buffer fetched from the pool; owned reports the latter.
func decompressPage(raw []byte) (plain []byte, owned bool, err error) {
	if len(raw) == 0 {
		return nil, false, errBadCompression
	}

	cPos := len(raw) - 1
	switch raw[cPos] {
	case pageNoCompression:
		return raw[:cPos], false, nil
	case pageSnappyCompression:
		sz, err := snappy.DecodedLen(raw[:cPos])
		if err != nil {
			return nil, false, err
		}

		buf := fetchBuffer(sz)
		if plain, err = snappy.Decode(buf, raw[:cPos]); err != nil {
			releaseBuffer(buf)
			return nil, false, err
		}
		return plain, true, nil
	case pageZstdCompression:
		_, dec, err := zstdCodec()
		if err != nil {
			return nil, false, err
		}

		buf := fetchBuffer(0)
		if plain, err = dec.DecodeAll(raw[:cPos], buf); err != nil {
			releaseBuffer(buf)
			return nil, false, err
		}
		return plain, true, nil
	default:
		return nil, false, errBadCompression
	}
}

// --------------------------------------------------------------------

var bufPool sync.Pool

func fetchBuffer(sz int) []byte {
	if v := bufPool.Get(); v != nil {
		if p := v.([]byte); sz <= cap(p) {
			return p[:sz]
		}
	}
	return make([]byte, sz)
}

func releaseBuffer(p []byte) {
	if cap(p) != 0 {
		bufPool.Put(p)
	}
}
