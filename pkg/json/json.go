// Package json routes JSON encoding through goccy/go-json.
package json

import (
	"io"

	gojson "github.com/goccy/go-json"
)

// MarshalToWriter writes v to w as indented JSON followed by a newline.
func MarshalToWriter(w io.Writer, v interface{}) error {
	enc := gojson.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// UnmarshalFromReader decodes one JSON value from r.
func UnmarshalFromReader(r io.Reader, v interface{}) error {
	return gojson.NewDecoder(r).Decode(v)
}
