package testutil

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const fitsBlock = 2880

// FITSBuilder assembles a minimal valid FITS stream by hand so readers
// can be exercised in tests without fixture files.
type FITSBuilder struct {
	buf bytes.Buffer
}

// TableColumn describes one binary-table column for TableHeader.
type TableColumn struct {
	Name string
	Form string // TFORM value, e.g. "1D", "3E", "3L"
}

// Card appends one 80-byte header record.
func (b *FITSBuilder) Card(s string) {
	if len(s) > 80 {
		panic("testutil: FITS card too long: " + s)
	}
	b.buf.WriteString(s)
	for i := len(s); i < 80; i++ {
		b.buf.WriteByte(' ')
	}
}

// NumCard appends an integer-valued card.
func (b *FITSBuilder) NumCard(key string, v int) {
	b.Card(fmt.Sprintf("%-8s= %20d", key, v))
}

// FloatCard appends a float-valued card.
func (b *FITSBuilder) FloatCard(key string, v float64) {
	b.Card(fmt.Sprintf("%-8s= %20.8E", key, v))
}

// StrCard appends a string-valued card.
func (b *FITSBuilder) StrCard(key, v string) {
	b.Card(fmt.Sprintf("%-8s= '%-8s'", key, v))
}

// BoolCard appends a logical-valued card.
func (b *FITSBuilder) BoolCard(key string, v bool) {
	c := "F"
	if v {
		c = "T"
	}
	b.Card(fmt.Sprintf("%-8s= %20s", key, c))
}

// EndHeader writes the END card and pads the header to a block boundary.
func (b *FITSBuilder) EndHeader() {
	b.Card("END")
	for b.buf.Len()%fitsBlock != 0 {
		b.buf.WriteByte(' ')
	}
}

// EndData zero-pads the data unit to a block boundary.
func (b *FITSBuilder) EndData() {
	for b.buf.Len()%fitsBlock != 0 {
		b.buf.WriteByte(0)
	}
}

// Primary writes a dataless primary header.
func (b *FITSBuilder) Primary() {
	b.BoolCard("SIMPLE", true)
	b.NumCard("BITPIX", 8)
	b.NumCard("NAXIS", 0)
	b.BoolCard("EXTEND", true)
	b.EndHeader()
}

// PrimaryImage1D writes a primary HDU holding a 1-D float64 image.
// extraCards may append WCS or other cards before the header is closed.
func (b *FITSBuilder) PrimaryImage1D(data []float64, extraCards func(*FITSBuilder)) {
	b.BoolCard("SIMPLE", true)
	b.NumCard("BITPIX", -64)
	b.NumCard("NAXIS", 1)
	b.NumCard("NAXIS1", len(data))
	b.BoolCard("EXTEND", true)
	if extraCards != nil {
		extraCards(b)
	}
	b.EndHeader()
	for _, v := range data {
		b.F64(v)
	}
	b.EndData()
}

// PrimaryImage1D32 writes a primary HDU holding a 1-D float32 image.
func (b *FITSBuilder) PrimaryImage1D32(data []float32, extraCards func(*FITSBuilder)) {
	b.BoolCard("SIMPLE", true)
	b.NumCard("BITPIX", -32)
	b.NumCard("NAXIS", 1)
	b.NumCard("NAXIS1", len(data))
	b.BoolCard("EXTEND", true)
	if extraCards != nil {
		extraCards(b)
	}
	b.EndHeader()
	for _, v := range data {
		b.F32(v)
	}
	b.EndData()
}

// ImageExt1D writes a 1-D float64 image extension.
func (b *FITSBuilder) ImageExt1D(extname string, data []float64) {
	b.StrCard("XTENSION", "IMAGE")
	b.NumCard("BITPIX", -64)
	b.NumCard("NAXIS", 1)
	b.NumCard("NAXIS1", len(data))
	b.NumCard("PCOUNT", 0)
	b.NumCard("GCOUNT", 1)
	b.StrCard("EXTNAME", extname)
	b.EndHeader()
	for _, v := range data {
		b.F64(v)
	}
	b.EndData()
}

// TableHeader writes a BINTABLE extension header. rowBytes must match
// the total byte width of the declared columns.
func (b *FITSBuilder) TableHeader(extname string, rowBytes, nrows int, cols []TableColumn) {
	b.StrCard("XTENSION", "BINTABLE")
	b.NumCard("BITPIX", 8)
	b.NumCard("NAXIS", 2)
	b.NumCard("NAXIS1", rowBytes)
	b.NumCard("NAXIS2", nrows)
	b.NumCard("PCOUNT", 0)
	b.NumCard("GCOUNT", 1)
	b.NumCard("TFIELDS", len(cols))
	for i, c := range cols {
		b.StrCard(fmt.Sprintf("TTYPE%d", i+1), c.Name)
		b.StrCard(fmt.Sprintf("TFORM%d", i+1), c.Form)
	}
	b.StrCard("EXTNAME", extname)
	b.EndHeader()
}

// F32 writes one big-endian float32 datum.
func (b *FITSBuilder) F32(v float32) {
	binary.Write(&b.buf, binary.BigEndian, v)
}

// F64 writes one big-endian float64 datum.
func (b *FITSBuilder) F64(v float64) {
	binary.Write(&b.buf, binary.BigEndian, v)
}

// Flags writes FITS logical bytes ('T'/'F').
func (b *FITSBuilder) Flags(flags ...bool) {
	for _, f := range flags {
		if f {
			b.buf.WriteByte('T')
		} else {
			b.buf.WriteByte('F')
		}
	}
}

// Bytes returns the assembled stream.
func (b *FITSBuilder) Bytes() []byte {
	return b.buf.Bytes()
}
