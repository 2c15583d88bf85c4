package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// RecordType identifies one of the three record collections
type RecordType string

const (
	RecordAsset    RecordType = "asset"
	RecordTransfer RecordType = "transfer"
	RecordDisposal RecordType = "disposal"
)

// RecordTypes lists every record type in tab order
var RecordTypes = []RecordType{RecordAsset, RecordTransfer, RecordDisposal}

// Field names as they appear on the wire
const (
	FieldID       = "_id"
	FieldLocation = "Location"
	FieldOldCode  = "Old Asset Code"
	FieldSN       = "SN"
	FieldDetails  = "Details"
	FieldTag      = "Tag"
	FieldOperator = "operator"
	FieldBy       = "By"
	FieldTo       = "To"
	FieldReason   = "Reason"
	FieldWhen     = "When"
	FieldVendor   = "Vendor"
	FieldAreaCode = "Area Code"
)

// TagDisposal is the classification that marks an asset as disposed
const TagDisposal = "disposal"

// ParseRecordType accepts the singular, plural and tab spellings
func ParseRecordType(s string) (RecordType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asset", "assets", "details", "detail":
		return RecordAsset, nil
	case "transfer", "transfers":
		return RecordTransfer, nil
	case "disposal", "disposals":
		return RecordDisposal, nil
	}
	return "", fmt.Errorf("unknown record type %q (want asset, transfer or disposal)", s)
}

// Endpoint returns the REST collection name
func (t RecordType) Endpoint() string {
	return string(t) + "s"
}

// Label returns the display name used in tables and search results
func (t RecordType) Label() string {
	switch t {
	case RecordAsset:
		return "Asset"
	case RecordTransfer:
		return "Transfer"
	case RecordDisposal:
		return "Disposal"
	}
	return string(t)
}

// Title returns the tab heading
func (t RecordType) Title() string {
	switch t {
	case RecordAsset:
		return "Asset Details"
	case RecordTransfer:
		return "Transfer History"
	case RecordDisposal:
		return "Disposal History"
	}
	return string(t)
}

// Record is a single row as returned by the server.
// Values holds every field stringified; interpretation goes through Schema.
type Record struct {
	ID     string
	Type   RecordType
	Values map[string]string
}

// NewRecord builds a record from field values
func NewRecord(t RecordType, id string, values map[string]string) Record {
	v := make(map[string]string, len(values))
	for k, val := range values {
		v[k] = val
	}
	return Record{ID: id, Type: t, Values: v}
}

// Get returns a field value or "" when absent
func (r Record) Get(field string) string {
	if field == FieldID {
		return r.ID
	}
	return r.Values[field]
}

// Keys returns the field names in a stable order
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r.Values))
	for k := range r.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SearchValues returns every value of the row, id first
func (r Record) SearchValues() []string {
	values := make([]string, 0, len(r.Values)+1)
	if r.ID != "" {
		values = append(values, r.ID)
	}
	for _, k := range r.Keys() {
		values = append(values, r.Values[k])
	}
	return values
}

// IsTaggedDisposal reports whether the classification tag is "disposal"
func (r Record) IsTaggedDisposal() bool {
	return strings.EqualFold(strings.TrimSpace(r.Values[FieldTag]), TagDisposal)
}

// Clone returns a deep copy
func (r Record) Clone() Record {
	return NewRecord(r.Type, r.ID, r.Values)
}

// UnmarshalJSON decodes a flexible server document into string values
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decoding record: %w", err)
	}

	r.Values = make(map[string]string, len(raw))
	for k, v := range raw {
		s := stringify(v)
		switch k {
		case FieldID:
			r.ID = s
		case "Operator":
			r.Values[FieldOperator] = s
		default:
			r.Values[k] = s
		}
	}
	return nil
}

// MarshalJSON encodes the record as a flat document
func (r Record) MarshalJSON() ([]byte, error) {
	doc := make(map[string]string, len(r.Values)+1)
	for k, v := range r.Values {
		doc[k] = v
	}
	if r.ID != "" {
		doc[FieldID] = r.ID
	}
	return json.Marshal(doc)
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case map[string]any:
		// Mongo-style extended JSON: {"$oid": "..."} or {"$date": "..."}
		for _, key := range []string{"$oid", "$date"} {
			if inner, ok := val[key]; ok {
				return stringify(inner)
			}
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// DateOnly truncates a timestamp string to its calendar date
func DateOnly(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 10 {
		return s[:10]
	}
	return s
}
