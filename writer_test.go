package offsetidx_test

import (
	"bytes"
	"errors"

	"github.com/bsm/offsetidx"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Writer", func() {
	var buf *bytes.Buffer
	var subject *offsetidx.Writer
	var testdata = bytes.Repeat([]byte("testdata"), 16)

	BeforeEach(func() {
		buf = new(bytes.Buffer)
		subject = offsetidx.NewWriter(buf, nil)
	})

	AfterEach(func() {
		_ = subject.Close()
	})

	It("should write empty", func() {
		Expect(subject.Close()).To(Succeed())
		Expect(buf.Len()).To(Equal(32))
		Expect(buf.String()[buf.Len()-8:]).To(Equal("\x4F\x49\x44\x58\x1F\x7A\x65\xDB"))
		Expect(subject.Index()).To(BeNil())
	})

	It("should prevent writes after close", func() {
		Expect(subject.Close()).To(Succeed())
		Expect(subject.Close()).To(MatchError(`offsetidx: is closed`))
		Expect(subject.Append(testdata, 1)).To(MatchError(`offsetidx: is closed`))
	})

	It("should write (non-compressable)", func() {
		idx, err := seedChunk(buf, 10, &offsetidx.WriterOptions{Compression: offsetidx.NoCompression})
		Expect(err).NotTo(HaveOccurred())
		Expect(buf.Len()).To(Equal(1371))
		Expect(buf.String()[buf.Len()-8:]).To(Equal("\x4F\x49\x44\x58\x1F\x7A\x65\xDB"))

		Expect(idx.NumPages()).To(Equal(10))
		Expect(idx.HasUnencodedDataBytes()).To(BeFalse())
		Expect(pagesOf(idx)[:4]).To(Equal([][3]uint64{
			{0, 129, 0},
			{129, 129, 10},
			{258, 129, 30},
			{387, 129, 60},
		}))
		Expect(pagesOf(idx)[9]).To(Equal([3]uint64{1161, 129, 180}))
	})

	It("should write (well-compressable)", func() {
		for _, c := range []offsetidx.Compression{offsetidx.SnappyCompression, offsetidx.ZstdCompression} {
			buf.Reset()
			w := offsetidx.NewWriter(buf, &offsetidx.WriterOptions{Compression: c})
			for i := 0; i < 100; i++ {
				Expect(w.Append(testdata, 8)).To(Succeed())
			}
			Expect(w.Close()).To(Succeed())

			idx := w.Index()
			Expect(idx.NumPages()).To(Equal(100))
			Expect(idx.CompressedPageSize(0)).To(BeNumerically("<", 96), "for codec %d", c)
			Expect(idx.FirstRowIndex(99)).To(Equal(uint64(792)))
			Expect(buf.Len()).To(BeNumerically("<", 100*96), "for codec %d", c)
		}
	})

	It("should shift offsets", func() {
		buf.Write(make([]byte, 100))
		idx, err := seedChunk(buf, 10, &offsetidx.WriterOptions{BaseOffset: 100})
		Expect(err).NotTo(HaveOccurred())
		Expect(idx.Offset(0)).To(Equal(uint64(100)))
		Expect(idx.Offset(1)).To(Equal(uint64(229)))
		Expect(idx.FirstRowIndex(1)).To(Equal(uint64(10)))
	})

	It("should track unencoded data bytes", func() {
		idx, err := seedChunk(buf, 10, &offsetidx.WriterOptions{TrackUnencoded: true})
		Expect(err).NotTo(HaveOccurred())
		Expect(idx.HasUnencodedDataBytes()).To(BeTrue())

		for i := 0; i < idx.NumPages(); i++ {
			ub, ok := idx.UnencodedDataBytes(i)
			Expect(ok).To(BeTrue())
			Expect(ub).To(Equal(uint64(128)))
		}
	})

	It("should stop after failed writes", func() {
		fw := &failingWriter{failAt: 2}
		w := offsetidx.NewWriter(fw, &offsetidx.WriterOptions{Compression: offsetidx.NoCompression})

		Expect(w.Append(testdata, 10)).To(Succeed())
		Expect(w.Append(testdata, 10)).To(MatchError(`write failed`))
		Expect(fw.Len()).To(Equal(129 + 64))

		Expect(w.Append(testdata, 10)).To(MatchError(`write failed`))
		Expect(w.Close()).To(MatchError(`write failed`))
		Expect(w.Close()).To(MatchError(`write failed`))
		Expect(w.Index()).To(BeNil())
		Expect(fw.Len()).To(Equal(129 + 64))
	})

	It("should not rewrite the index after a failed footer", func() {
		fw := &failingWriter{failAt: 4}
		w := offsetidx.NewWriter(fw, &offsetidx.WriterOptions{Compression: offsetidx.NoCompression})
		Expect(w.Append(testdata, 10)).To(Succeed())
		Expect(w.Append(testdata, 10)).To(Succeed())

		Expect(w.Close()).To(MatchError(`write failed`))
		n := fw.Len()
		Expect(w.Close()).To(MatchError(`write failed`))
		Expect(fw.Len()).To(Equal(n))
		Expect(w.Index()).To(BeNil())
	})

	It("should reject negative base offsets", func() {
		w := offsetidx.NewWriter(buf, &offsetidx.WriterOptions{BaseOffset: -1})
		Expect(w.Append(testdata, 10)).To(MatchError(`offsetidx: invalid base offset -1`))
		Expect(w.Close()).To(MatchError(`offsetidx: invalid base offset -1`))
		Expect(buf.Len()).To(Equal(0))
	})

	It("should skip the index when disabled", func() {
		idx, err := seedChunk(buf, 10, &offsetidx.WriterOptions{DisableIndex: true})
		Expect(err).NotTo(HaveOccurred())
		Expect(idx).To(BeNil())
		Expect(buf.Len()).To(Equal(10*129 + 32))
	})
})

// failingWriter writes half of the payload and fails on the failAt-th call.
type failingWriter struct {
	bytes.Buffer
	calls  int
	failAt int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	w.calls++
	if w.calls == w.failAt {
		n, _ := w.Buffer.Write(p[:len(p)/2])
		return n, errors.New("write failed")
	}
	return w.Buffer.Write(p)
}
