package models

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// Extra holds the members of a backend row that the typed struct does not
// declare. They are written back unchanged when the row is encoded, so a
// save never strips columns this service does not know about.
type Extra map[string]json.RawMessage

func (e Extra) Clone() Extra {
	if e == nil {
		return nil
	}
	out := make(Extra, len(e))
	for k, v := range e {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

var declaredFields sync.Map // reflect.Type -> map[string]struct{}

// fieldNames lists the lower-cased JSON names typ declares. encoding/json
// matches object keys case-insensitively, so Extra must too.
func fieldNames(typ reflect.Type) map[string]struct{} {
	if v, ok := declaredFields.Load(typ); ok {
		return v.(map[string]struct{})
	}
	names := make(map[string]struct{}, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		names[strings.ToLower(name)] = struct{}{}
	}
	declaredFields.Store(typ, names)
	return names
}

// decodeWithExtra decodes the object b into v and stores the members v's
// type does not declare in extra. A JSON null leaves both untouched.
func decodeWithExtra[P any](b []byte, v *P, extra *Extra) error {
	trimmed := bytes.TrimSpace(b)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &all); err != nil {
		return err
	}
	known := fieldNames(reflect.TypeOf(v).Elem())
	var out Extra
	for k, raw := range all {
		if _, ok := known[strings.ToLower(k)]; ok {
			continue
		}
		if out == nil {
			out = Extra{}
		}
		out[k] = raw
	}
	*extra = out
	return nil
}

// encodeWithExtra encodes v and appends the members of extra that v's type
// does not declare, in key order.
func encodeWithExtra[P any](v P, extra Extra) ([]byte, error) {
	typed, err := marshalPlain(v)
	if err != nil {
		return nil, err
	}
	return appendExtra(typed, reflect.TypeOf(v), extra), nil
}

func appendExtra(typed []byte, typ reflect.Type, extra Extra) []byte {
	if len(extra) == 0 {
		return typed
	}
	known := fieldNames(typ)
	keys := make([]string, 0, len(extra))
	for k := range extra {
		if _, ok := known[strings.ToLower(k)]; !ok {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return typed
	}
	sort.Strings(keys)

	body := bytes.TrimSuffix(bytes.TrimSpace(typed), []byte("}"))
	comma := len(bytes.TrimSpace(body)) > 1
	var buf bytes.Buffer
	buf.Write(body)
	for _, k := range keys {
		if comma {
			buf.WriteByte(',')
		}
		name, _ := marshalPlain(k)
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(extra[k])
		comma = true
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

// marshalPlain is json.Marshal without HTML escaping.
func marshalPlain(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
