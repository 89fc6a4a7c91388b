package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/bsm/offsetidx"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/jedib0t/go-pretty/v6/table"
)

var (
	fileName  string
	endOffset int64
	rawDump   bool
)

func init() {
	flag.StringVar(&fileName, "file", "", "file containing the chunk")
	flag.Int64Var(&endOffset, "end", 0, "absolute position at which the chunk ends (default: file size)")
	flag.BoolVar(&rawDump, "raw", false, "print the plain fixed-width dump")
}

func main() {
	flag.Parse()

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)

	if fileName == "" {
		level.Error(logger).Log("msg", "-file is required")
		os.Exit(2)
	}

	if err := dumpIndex(os.Stdout, fileName, endOffset, rawDump); err != nil {
		level.Error(logger).Log("msg", "failed to dump offset index", "file", fileName, "err", err)
		os.Exit(1)
	}
}

func dumpIndex(w io.Writer, name string, end int64, raw bool) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	if end <= 0 {
		stat, err := f.Stat()
		if err != nil {
			return err
		}
		end = stat.Size()
	}

	r, err := offsetidx.NewReader(f, end)
	if err != nil {
		return err
	}

	idx := r.Index()
	if idx == nil {
		_, err = fmt.Fprintln(w, "no offset index")
		return err
	}

	if raw {
		_, err = io.WriteString(w, idx.String())
		return err
	}
	_, err = fmt.Fprintln(w, renderIndex(idx))
	return err
}

func renderIndex(idx *offsetidx.OffsetIndex) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"page", "offset", "compressed size", "first row index", "unencoded bytes"})

	var total uint64
	for i := 0; i < idx.NumPages(); i++ {
		var unencoded interface{} = "-"
		if ub, ok := idx.UnencodedDataBytes(i); ok {
			unencoded = ub
		}

		total += uint64(idx.CompressedPageSize(i))
		t.AppendRow(table.Row{idx.PageOrdinal(i), idx.Offset(i), idx.CompressedPageSize(i), idx.FirstRowIndex(i), unencoded})
	}

	t.AppendFooter(table.Row{"total", "", total, "", ""})
	return t.Render()
}
