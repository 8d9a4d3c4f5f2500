package sources

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Entry is one raw CMS entry. Field values are read in the entry's locale.
type Entry struct {
	raw    gjson.Result
	locale string
}

// NewEntry wraps the JSON of a single entry
func NewEntry(data []byte, locale string) (Entry, error) {
	if !gjson.ValidBytes(data) {
		return Entry{}, fmt.Errorf("%w: entry is not valid JSON", ErrMalformed)
	}
	return Entry{raw: gjson.ParseBytes(data), locale: locale}, nil
}

// ID returns sys.id
func (e Entry) ID() string {
	return e.raw.Get("sys.id").String()
}

// CreatedAt returns the raw sys.createdAt timestamp
func (e Entry) CreatedAt() (string, bool) {
	r := e.raw.Get("sys.createdAt")
	if r.Type != gjson.String {
		return "", false
	}
	return r.Str, true
}

// String returns the localized string value of a field
func (e Entry) String(field string) (string, bool) {
	r := e.field(field)
	if r.Type != gjson.String {
		return "", false
	}
	return r.Str, true
}

// LinkID returns the id of the entry or asset a localized link field points to
func (e Entry) LinkID(field string) (string, bool) {
	r := e.field(field).Get("sys.id")
	if r.Type != gjson.String || r.Str == "" {
		return "", false
	}
	return r.Str, true
}

// Raw returns the entry JSON
func (e Entry) Raw() string {
	return e.raw.Raw
}

func (e Entry) field(name string) gjson.Result {
	return e.raw.Get("fields." + gjson.Escape(name) + "." + gjson.Escape(e.locale))
}
