package catalog

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

const (
	keyID          = "id"
	keyName        = "name"
	keyDescription = "description"
	keyPrice       = "price"
	keyCategory    = "category"
	keyImage       = "image"
	keyYear        = "year"
	keyMake        = "make"
	keyModel       = "model"
	keyPhone       = "phone"
)

// Product is one catalog record. Its position in the stored sequence is the
// identity used by the index-addressed admin routes; ID is assigned on creation
// and stays stable across deletes of other records.
//
// Records read from storage remember which keys they carried. Keys this type
// does not know, and known keys whose value could not be read, are written
// back unchanged.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       float64
	Category    string
	Image       string
	Year        Year
	Make        string
	Model       string
	Phone       string

	present map[string]bool
	extra   map[string]json.RawMessage
	opaque  json.RawMessage
}

type productField struct {
	key   string
	value any
	zero  bool
	// core fields are always written for records created in this process.
	core bool
}

func (p *Product) fields() []productField {
	return []productField{
		{keyID, p.ID, p.ID == "", false},
		{keyName, p.Name, p.Name == "", true},
		{keyDescription, p.Description, p.Description == "", true},
		{keyPrice, p.Price, p.Price == 0, true},
		{keyCategory, p.Category, p.Category == "", true},
		{keyImage, p.Image, p.Image == "", true},
		{keyYear, p.Year, p.Year.IsZero(), false},
		{keyMake, p.Make, p.Make == "", false},
		{keyModel, p.Model, p.Model == "", false},
		{keyPhone, p.Phone, p.Phone == "", false},
	}
}

func isKnownKey(k string) bool {
	switch k {
	case keyID, keyName, keyDescription, keyPrice, keyCategory,
		keyImage, keyYear, keyMake, keyModel, keyPhone:
		return true
	}
	return false
}

func (p Product) MarshalJSON() ([]byte, error) {
	if p.opaque != nil {
		return p.opaque, nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	n := 0
	put := func(k string, raw []byte) {
		if n > 0 {
			buf.WriteByte(',')
		}
		n++
		buf.WriteString(strconv.Quote(k))
		buf.WriteByte(':')
		buf.Write(raw)
	}

	for _, f := range p.fields() {
		raw, kept := p.extra[f.key]
		switch {
		case !f.zero:
		case kept:
			put(f.key, raw)
			continue
		case p.present[f.key], p.present == nil && f.core:
		default:
			continue
		}

		v, err := encodeValue(f.value)
		if err != nil {
			return nil, err
		}
		put(f.key, v)
	}

	for _, k := range sortedKeys(p.extra) {
		if !isKnownKey(k) {
			put(k, p.extra[k])
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON never rejects well-formed JSON. A value of the wrong type
// leaves its field zero and is kept verbatim for the next write; an element
// that is not an object is kept whole.
func (p *Product) UnmarshalJSON(b []byte) error {
	*p = Product{}

	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		p.opaque = append(json.RawMessage(nil), b...)
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}

	p.present = make(map[string]bool, len(obj))
	for k, raw := range obj {
		if p.setField(k, raw) {
			p.present[k] = true
			continue
		}
		if p.extra == nil {
			p.extra = make(map[string]json.RawMessage)
		}
		p.extra[k] = raw
	}
	return nil
}

func (p *Product) setField(k string, raw json.RawMessage) bool {
	if isNull(raw) {
		return false
	}

	switch k {
	case keyID:
		return decodeString(raw, &p.ID)
	case keyName:
		return decodeString(raw, &p.Name)
	case keyDescription:
		return decodeString(raw, &p.Description)
	case keyPrice:
		return decodePrice(raw, &p.Price)
	case keyCategory:
		return decodeString(raw, &p.Category)
	case keyImage:
		return decodeString(raw, &p.Image)
	case keyYear:
		return p.Year.UnmarshalJSON(raw) == nil
	case keyMake:
		return decodeString(raw, &p.Make)
	case keyModel:
		return decodeString(raw, &p.Model)
	case keyPhone:
		return decodeString(raw, &p.Phone)
	}
	return false
}

// carryExtra keeps the unknown keys of the record p replaces.
func (p *Product) carryExtra(old Product) {
	var kept map[string]json.RawMessage
	for k, v := range old.extra {
		if isKnownKey(k) {
			continue
		}
		if kept == nil {
			kept = make(map[string]json.RawMessage)
		}
		kept[k] = v
	}
	p.extra = kept
}

func decodeString(raw json.RawMessage, dst *string) bool {
	return json.Unmarshal(raw, dst) == nil
}

// decodePrice accepts a JSON number or a string holding a finite number.
func decodePrice(raw json.RawMessage, dst *float64) bool {
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		*dst = v
		return true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	*dst = v
	return true
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func encodeValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Year holds a model year that may have been stored either as a JSON number
// or as a string. It re-encodes in the form it was read.
type Year struct {
	value   string
	numeric bool
}

func YearFromInt(y int) Year {
	return Year{value: strconv.Itoa(y), numeric: true}
}

func YearFromString(s string) Year {
	return Year{value: strings.TrimSpace(s)}
}

func (y Year) String() string { return y.value }

func (y Year) IsZero() bool { return y.value == "" }

func (y Year) MarshalJSON() ([]byte, error) {
	if y.value == "" {
		return []byte(`""`), nil
	}
	if y.numeric {
		return []byte(y.value), nil
	}
	return encodeValue(y.value)
}

func (y *Year) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*y = Year{}
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*y = Year{value: s}
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*y = Year{value: n.String(), numeric: true}
	return nil
}
