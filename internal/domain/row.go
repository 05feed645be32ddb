package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Row is one tabular record: values keyed by column name, in column order.
// Rows are immutable; Append returns a new Row.
type Row struct {
	columns []string
	values  []string
}

// NewRow pairs values with column names. Missing trailing values are empty
// and values beyond the last column are dropped.
func NewRow(columns, values []string) Row {
	r := Row{
		columns: append([]string(nil), columns...),
		values:  make([]string, len(columns)),
	}
	copy(r.values, values)
	return r
}

// Len returns the number of fields.
func (r Row) Len() int { return len(r.columns) }

// Columns returns a copy of the column names.
func (r Row) Columns() []string { return append([]string(nil), r.columns...) }

// Values returns a copy of the values in column order.
func (r Row) Values() []string { return append([]string(nil), r.values...) }

// At returns the value at column position i.
func (r Row) At(i int) (string, bool) {
	if i < 0 || i >= len(r.values) {
		return "", false
	}
	return r.values[i], true
}

// Get returns the value of the first column with the given name.
func (r Row) Get(name string) (string, bool) {
	for i, c := range r.columns {
		if c == name {
			return r.values[i], true
		}
	}
	return "", false
}

// Index returns the position of the first column with the given name, or -1.
func (r Row) Index(name string) int {
	for i, c := range r.columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Append returns a copy of the row with one more field at the end.
func (r Row) Append(name, value string) Row {
	out := Row{
		columns: make([]string, len(r.columns), len(r.columns)+1),
		values:  make([]string, len(r.values), len(r.values)+1),
	}
	copy(out.columns, r.columns)
	copy(out.values, r.values)
	out.columns = append(out.columns, name)
	out.values = append(out.values, value)
	return out
}

// MarshalJSON encodes the row as a flat JSON object, keys in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat JSON object, keeping key order. Numbers and
// booleans are kept in their literal text form and null becomes "".
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("row must be a JSON object")
	}

	var out Row
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)

		tok, err = dec.Token()
		if err != nil {
			return err
		}
		var value string
		switch v := tok.(type) {
		case string:
			value = v
		case json.Number:
			value = v.String()
		case bool:
			value = fmt.Sprint(v)
		case nil:
		default:
			return fmt.Errorf("field %q: nested values are not supported", key)
		}
		out.columns = append(out.columns, key)
		out.values = append(out.values, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = out
	return nil
}
