package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseRecordType(t *testing.T) {
	tests := []struct {
		input    string
		expected RecordType
		wantErr  bool
	}{
		{"asset", RecordAsset, false},
		{"Assets", RecordAsset, false},
		{"details", RecordAsset, false},
		{"transfers", RecordTransfer, false},
		{" disposal ", RecordDisposal, false},
		{"inventory", "", true},
	}

	for _, tt := range tests {
		got, err := ParseRecordType(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRecordType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseRecordType(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestRecordUnmarshalJSON(t *testing.T) {
	data := `{"_id":"65a1b2c3d4e5f6a7b8c9d0e1","Location":"NP360","SN":12345,"Tag":null,"Operator":"amy","sync":true}`

	var r Record
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r.ID != "65a1b2c3d4e5f6a7b8c9d0e1" {
		t.Errorf("expected id to be decoded, got %q", r.ID)
	}
	if r.Get(FieldSN) != "12345" {
		t.Errorf("expected numeric SN stringified, got %q", r.Get(FieldSN))
	}
	if r.Get(FieldTag) != "" {
		t.Errorf("expected null Tag as empty, got %q", r.Get(FieldTag))
	}
	if r.Get(FieldOperator) != "amy" {
		t.Errorf("expected Operator normalised to operator, got %q", r.Get(FieldOperator))
	}
	if r.Get("sync") != "true" {
		t.Errorf("expected unknown keys kept, got %q", r.Get("sync"))
	}
	if _, ok := r.Values[FieldID]; ok {
		t.Error("id should not be duplicated into Values")
	}
}

func TestRecordIsTaggedDisposal(t *testing.T) {
	tests := []struct {
		tag      string
		expected bool
	}{
		{"disposal", true},
		{"Disposal ", true},
		{"onsite", false},
		{"", false},
	}

	for _, tt := range tests {
		r := NewRecord(RecordAsset, "1", map[string]string{FieldTag: tt.tag})
		if got := r.IsTaggedDisposal(); got != tt.expected {
			t.Errorf("IsTaggedDisposal(%q) = %v, want %v", tt.tag, got, tt.expected)
		}
	}
}

func TestSchemaColumns(t *testing.T) {
	tests := []struct {
		recordType RecordType
		headers    []string
		editable   []string
	}{
		{
			RecordAsset,
			[]string{"Location", "Old Asset Code", "SN", "Details", "Tag", "operator", "Actions"},
			[]string{"Location", "Old Asset Code", "SN", "Details"},
		},
		{
			RecordTransfer,
			[]string{"Old Asset Code", "By", "To", "Reason", "When", "operator", "Actions"},
			[]string{"Old Asset Code", "By", "To", "Reason", "When"},
		},
		{
			RecordDisposal,
			[]string{"Location", "Old Asset Code", "SN", "Details", "When", "operator", "Reason", "Actions"},
			[]string{"Location", "Old Asset Code", "SN", "Details", "When", "Reason"},
		},
	}

	for _, tt := range tests {
		schema := SchemaFor(tt.recordType)
		if got := schema.Headers(); !equalStrings(got, tt.headers) {
			t.Errorf("%s headers = %v, want %v", tt.recordType, got, tt.headers)
		}

		var editable []string
		for _, c := range schema.EditableColumns() {
			editable = append(editable, c.Field)
		}
		if !equalStrings(editable, tt.editable) {
			t.Errorf("%s editable = %v, want %v", tt.recordType, editable, tt.editable)
		}
	}
}

func TestAddFormValidate(t *testing.T) {
	tests := []struct {
		name    string
		form    AddForm
		message string
	}{
		{"asset without location", NewAddForm(RecordAsset).With(FieldDetails, "Pump"), MsgSelectLocation},
		{"asset without details", NewAddForm(RecordAsset).With(FieldLocation, "NP360").With(FieldDetails, "  "), MsgDetailsMissing},
		{"asset ok", NewAddForm(RecordAsset).With(FieldLocation, "NP360").With(FieldDetails, "Pump"), ""},
		{"transfer without code", NewAddForm(RecordTransfer).With(FieldTo, "NP360"), MsgEnterOldCode},
		{"transfer without to", NewAddForm(RecordTransfer).With(FieldOldCode, "A-1"), MsgSelectTo},
		{"disposal without location", NewAddForm(RecordDisposal).With(FieldOldCode, "A-1"), MsgSelectLocation},
		{"disposal without code", NewAddForm(RecordDisposal).With(FieldLocation, "NP360"), MsgEnterOldCode},
		{
			"disposal without reason",
			NewAddForm(RecordDisposal).With(FieldLocation, "NP360").With(FieldOldCode, "A-1").With(FormReasonBase, ""),
			MsgSelectReason,
		},
		{
			"disposal sold without vendor",
			NewAddForm(RecordDisposal).With(FieldLocation, "NP360").With(FieldOldCode, "A-1").With(FormReasonBase, ReasonSold),
			MsgEnterVendor,
		},
		{
			"disposal trade-in with vendor",
			NewAddForm(RecordDisposal).With(FieldLocation, "NP360").With(FieldOldCode, "A-1").
				With(FormReasonBase, ReasonTradeIn).With(FieldVendor, "Acme"),
			"",
		},
		{
			"disposal scrapped needs no vendor",
			NewAddForm(RecordDisposal).With(FieldLocation, "NP360").With(FieldOldCode, "A-1"),
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.form.Validate()
			if tt.message == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected %q, got nil", tt.message)
			}
			if err.Error() != tt.message {
				t.Errorf("expected %q, got %q", tt.message, err.Error())
			}
			if !errors.Is(err, ErrValidation) {
				t.Error("expected error to wrap ErrValidation")
			}
		})
	}
}

func TestAddFormPayloadOmitsEmpty(t *testing.T) {
	form := NewAddForm(RecordAsset).With(FieldLocation, "NP360").With(FieldDetails, "  Pump ")
	p := form.Payload()

	if p[FieldDetails] != "Pump" {
		t.Errorf("expected trimmed details, got %q", p[FieldDetails])
	}
	if _, ok := p[FieldSN]; ok {
		t.Error("expected empty SN to be omitted")
	}

	transfer := NewAddForm(RecordTransfer).With(FieldOldCode, "A-1").With(FieldTo, "NP360")
	if got := transfer.Payload()[FieldReason]; got != ReasonOperation {
		t.Errorf("expected default reason Operation, got %q", got)
	}
}

func TestDisposalReason(t *testing.T) {
	if got := DisposalReason(ReasonSold, "Acme"); got != "Sold To Acme" {
		t.Errorf("got %q", got)
	}
	if got := DisposalReason(ReasonTradeIn, "Acme"); got != "Trade in to Acme" {
		t.Errorf("got %q", got)
	}
	if got := DisposalReason(ReasonScrapped, "Acme"); got != "Scrapped" {
		t.Errorf("got %q", got)
	}
}

func TestDateOnly(t *testing.T) {
	if got := DateOnly("2024-03-05T14:22:01.123"); got != "2024-03-05" {
		t.Errorf("got %q", got)
	}
	if got := DateOnly("2024-03-05"); got != "2024-03-05" {
		t.Errorf("got %q", got)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
