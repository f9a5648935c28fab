package store

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/llehouerou/go-bfi"
)

// ParquetSchema is the parquet layout of a frame file: timestamps (double),
// token_nums (uint32) and bfa_angles (list<list<uint32>>).
var ParquetSchema = parquet.NewSchema("bfi", parquet.Group{
	"timestamps": parquet.Leaf(parquet.DoubleType),
	"token_nums": parquet.Uint(32),
	"bfa_angles": parquet.List(parquet.List(parquet.Uint(32))),
})

var anglesPath = []string{"bfa_angles", "list", "element", "list", "element"}

// columns are the leaf column indexes of the three parquet columns.
type columns struct {
	timestamps, tokenNums, angles int
}

func lookupColumns(s *parquet.Schema) (columns, error) {
	var c columns
	for _, col := range []struct {
		index *int
		path  []string
	}{
		{&c.timestamps, []string{"timestamps"}},
		{&c.tokenNums, []string{"token_nums"}},
		{&c.angles, anglesPath},
	} {
		leaf, ok := s.Lookup(col.path...)
		if !ok {
			return c, fmt.Errorf("store: parquet: missing column %v", col.path)
		}
		*col.index = leaf.ColumnIndex
	}
	return c, nil
}

// row flattens f into parquet values, ordered by column. Angles carry
// repetition level 0 on the first value of the row, 1 on the first value
// of each subcarrier and 2 otherwise; definition level 0 marks a frame
// without subcarriers and 1 a subcarrier without angles.
func (c columns) row(f bfi.DecodedFrame) parquet.Row {
	cols := make([][]parquet.Value, 3)
	cols[c.timestamps] = []parquet.Value{parquet.DoubleValue(f.Timestamp).Level(0, 0, c.timestamps)}
	cols[c.tokenNums] = []parquet.Value{parquet.Int32Value(int32(f.DialogToken)).Level(0, 0, c.tokenNums)}

	var angles []parquet.Value
	if len(f.Angles) == 0 {
		angles = append(angles, parquet.NullValue().Level(0, 0, c.angles))
	}
	for i, sc := range f.Angles {
		rep := 1
		if i == 0 {
			rep = 0
		}
		if len(sc) == 0 {
			angles = append(angles, parquet.NullValue().Level(rep, 1, c.angles))
			continue
		}
		for j, a := range sc {
			if j > 0 {
				rep = 2
			}
			angles = append(angles, parquet.Int32Value(int32(a)).Level(rep, 2, c.angles))
		}
	}
	cols[c.angles] = angles

	row := make(parquet.Row, 0, 2+len(angles))
	for _, vs := range cols {
		row = append(row, vs...)
	}
	return row
}

// frame rebuilds a frame from a row laid out by row.
func (c columns) frame(row parquet.Row) bfi.DecodedFrame {
	var f bfi.DecodedFrame
	for _, v := range row {
		switch v.Column() {
		case c.timestamps:
			f.Timestamp = v.Double()
		case c.tokenNums:
			f.DialogToken = uint8(v.Uint32())
		case c.angles:
			if f.Angles == nil {
				f.Angles = bfi.AngleMatrix{}
			}
			if v.DefinitionLevel() == 0 {
				continue
			}
			if v.RepetitionLevel() < 2 {
				f.Angles = append(f.Angles, []uint16{})
			}
			if v.DefinitionLevel() == 2 {
				last := len(f.Angles) - 1
				f.Angles[last] = append(f.Angles[last], uint16(v.Uint32()))
			}
		}
	}
	return f
}

// parquetWriter writes one row group per Write call.
type parquetWriter struct {
	w      *parquet.Writer
	cols   columns
	rows   []parquet.Row
	closed bool
}

func newParquetWriter(w io.Writer) *parquetWriter {
	cols, err := lookupColumns(ParquetSchema)
	if err != nil {
		panic(err)
	}
	return &parquetWriter{
		w: parquet.NewWriter(w,
			ParquetSchema,
			parquet.Compression(&parquet.Zstd),
			parquet.CreatedBy("go-bfi", "", ""),
		),
		cols: cols,
	}
}

func (p *parquetWriter) Write(frames []bfi.DecodedFrame) error {
	if p.closed {
		return errClosed
	}
	if len(frames) == 0 {
		return nil
	}

	p.rows = p.rows[:0]
	for _, f := range frames {
		p.rows = append(p.rows, p.cols.row(f))
	}
	if _, err := p.w.WriteRows(p.rows); err != nil {
		return fmt.Errorf("store: parquet: %w", err)
	}
	if err := p.w.Flush(); err != nil {
		return fmt.Errorf("store: parquet: %w", err)
	}
	return nil
}

func (p *parquetWriter) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	if err := p.w.Close(); err != nil {
		return fmt.Errorf("store: parquet: %w", err)
	}
	return nil
}

// ReadParquet reads a file written by a parquet Writer.
func ReadParquet(path string) (*Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return readParquet(f, st.Size())
}

func readParquet(r io.ReaderAt, size int64) (*Batch, error) {
	f, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("store: parquet: %w", err)
	}
	cols, err := lookupColumns(f.Schema())
	if err != nil {
		return nil, err
	}

	pr := parquet.NewReader(f)
	defer pr.Close()

	b := &Batch{}
	buf := make([]parquet.Row, 64)
	for {
		n, err := pr.ReadRows(buf)
		for _, row := range buf[:n] {
			b.Append(cols.frame(row))
		}
		if errors.Is(err, io.EOF) {
			return b, nil
		}
		if err != nil {
			return nil, fmt.Errorf("store: parquet: %w", err)
		}
	}
}
