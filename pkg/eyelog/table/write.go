package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
)

// WriteJSONL writes one JSON object per row, keys in column order. Absent
// cells and NaN values are written as null.
func (t *Table) WriteJSONL(w io.Writer) error {
	bw := bufio.NewWriter(w)
	var buf bytes.Buffer
	for i := range t.rows {
		buf.Reset()
		if err := t.encodeRow(&buf, i); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		buf.WriteByte('\n')
		if _, err := bw.Write(buf.Bytes()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// MarshalRow returns row i as a JSON object, as written by WriteJSONL.
func (t *Table) MarshalRow(i int) ([]byte, error) {
	if i < 0 || i >= len(t.rows) {
		return nil, fmt.Errorf("row %d out of range [0,%d)", i, len(t.rows))
	}
	var buf bytes.Buffer
	if err := t.encodeRow(&buf, i); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (t *Table) encodeRow(buf *bytes.Buffer, i int) error {
	buf.WriteByte('{')
	for j, c := range t.cols {
		if j > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Name)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(JSONValue(t.rows[i][c.Name]))
		if err != nil {
			return fmt.Errorf("column %q: %w", c.Name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return nil
}

// JSONValue maps a cell value to a value encoding/json accepts: NaN and
// infinities become nil, inside series too.
func JSONValue(v any) any {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	case []float64:
		out := make([]any, len(x))
		for i, f := range x {
			if !math.IsNaN(f) && !math.IsInf(f, 0) {
				out[i] = f
			}
		}
		return out
	}
	return v
}

// WriteCSV writes a header row of column names followed by one record per
// row. Series cells are written as JSON arrays; absent cells and NaN are
// empty.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.ColumnNames()); err != nil {
		return err
	}
	record := make([]string, len(t.cols))
	for i, r := range t.rows {
		for j, c := range t.cols {
			s, err := formatCSV(r[c.Name])
			if err != nil {
				return fmt.Errorf("row %d column %q: %w", i, c.Name, err)
			}
			record[j] = s
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCSV(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case int:
		return strconv.Itoa(x), nil
	case float64:
		if math.IsNaN(x) {
			return "", nil
		}
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case []float64:
		b, err := json.Marshal(JSONValue(x))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return fmt.Sprint(v), nil
}
