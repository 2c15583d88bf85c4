package domain

import (
	"errors"
	"strings"
)

// Add-form keys that are not record fields
const (
	FormReasonBase = "reasonBase"
	FormWhenDate   = "whenDate"
)

// Validation messages shown on add forms
const (
	MsgSelectLocation = "Please select Location"
	MsgDetailsMissing = "Details is required"
	MsgEnterOldCode   = "Please enter Old Asset Code"
	MsgSelectTo       = "Please select To"
	MsgSelectReason   = "Please select Reason"
	MsgEnterVendor    = "Please enter Vendor"
)

// FormField describes one input on an add form
type FormField struct {
	Key     string
	Label   string
	Kind    ColumnKind
	Options []string
}

var addForms = map[RecordType][]FormField{
	RecordAsset: {
		{Key: FieldLocation, Label: "Location", Kind: KindLocation},
		{Key: FieldOldCode, Label: "Old Asset Code", Kind: KindText},
		{Key: FieldSN, Label: "SN", Kind: KindText},
		{Key: FieldDetails, Label: "Details", Kind: KindText},
	},
	RecordTransfer: {
		{Key: FieldOldCode, Label: "Old Asset Code", Kind: KindText},
		{Key: FieldBy, Label: "By", Kind: KindText},
		{Key: FieldTo, Label: "To", Kind: KindLocation},
		{Key: FieldReason, Label: "Reason", Kind: KindEnum, Options: TransferReasons},
		{Key: FormWhenDate, Label: "When", Kind: KindDate},
	},
	RecordDisposal: {
		{Key: FieldLocation, Label: "Location", Kind: KindLocation},
		{Key: FieldOldCode, Label: "Old Asset Code", Kind: KindText},
		{Key: FieldSN, Label: "SN", Kind: KindText},
		{Key: FieldDetails, Label: "Details", Kind: KindText},
		{Key: FormReasonBase, Label: "Reason", Kind: KindEnum, Options: DisposalReasons},
		{Key: FieldVendor, Label: "Vendor", Kind: KindText},
		{Key: FormWhenDate, Label: "When", Kind: KindDate},
	},
}

// AddFormFields returns the inputs of a record type's add form
func AddFormFields(t RecordType) []FormField {
	return addForms[t]
}

// AddForm is the draft of a record being created
type AddForm struct {
	Type   RecordType
	Values map[string]string
}

// NewAddForm returns an empty form with the reason preselected
func NewAddForm(t RecordType) AddForm {
	f := AddForm{Type: t, Values: map[string]string{}}
	switch t {
	case RecordTransfer:
		f.Values[FieldReason] = ReasonOperation
	case RecordDisposal:
		f.Values[FormReasonBase] = ReasonScrapped
	}
	return f
}

// Get returns a form value
func (f AddForm) Get(key string) string {
	return f.Values[key]
}

// With returns a copy with one value replaced
func (f AddForm) With(key, value string) AddForm {
	values := make(map[string]string, len(f.Values)+1)
	for k, v := range f.Values {
		values[k] = v
	}
	values[key] = value
	return AddForm{Type: f.Type, Values: values}
}

// ErrValidation marks client-side form validation failures
var ErrValidation = errors.New("validation failed")

// ValidationError carries the message shown next to the form
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(msg string) error { return &ValidationError{Message: msg} }

// Validate runs the required-field checks; the first failure wins
func (f AddForm) Validate() error {
	blank := func(key string) bool { return strings.TrimSpace(f.Values[key]) == "" }

	switch f.Type {
	case RecordAsset:
		if blank(FieldLocation) {
			return invalid(MsgSelectLocation)
		}
		if blank(FieldDetails) {
			return invalid(MsgDetailsMissing)
		}
	case RecordTransfer:
		if blank(FieldOldCode) {
			return invalid(MsgEnterOldCode)
		}
		if blank(FieldTo) {
			return invalid(MsgSelectTo)
		}
	case RecordDisposal:
		if blank(FieldLocation) {
			return invalid(MsgSelectLocation)
		}
		if blank(FieldOldCode) {
			return invalid(MsgEnterOldCode)
		}
		if blank(FormReasonBase) {
			return invalid(MsgSelectReason)
		}
		if RequiresVendor(f.Values[FormReasonBase]) && blank(FieldVendor) {
			return invalid(MsgEnterVendor)
		}
	}
	return nil
}

// Payload builds the create request body; empty optional values are omitted
func (f AddForm) Payload() map[string]string {
	p := map[string]string{}
	put := func(key, value string) {
		if value != "" {
			p[key] = value
		}
	}

	switch f.Type {
	case RecordAsset:
		put(FieldLocation, f.Values[FieldLocation])
		put(FieldOldCode, f.Values[FieldOldCode])
		put(FieldSN, f.Values[FieldSN])
		put(FieldDetails, strings.TrimSpace(f.Values[FieldDetails]))
	case RecordTransfer:
		put(FieldOldCode, f.Values[FieldOldCode])
		put(FieldBy, f.Values[FieldBy])
		put(FieldTo, f.Values[FieldTo])
		reason := f.Values[FieldReason]
		if reason == "" {
			reason = ReasonOperation
		}
		put(FieldReason, reason)
		put(FormWhenDate, f.Values[FormWhenDate])
	case RecordDisposal:
		put(FieldLocation, f.Values[FieldLocation])
		put(FieldOldCode, f.Values[FieldOldCode])
		put(FieldSN, f.Values[FieldSN])
		put(FieldDetails, f.Values[FieldDetails])
		put(FormReasonBase, f.Values[FormReasonBase])
		put(FieldVendor, f.Values[FieldVendor])
		put(FormWhenDate, f.Values[FormWhenDate])
	}
	return p
}

// DisposalReason composes the stored Reason from a base reason and vendor
func DisposalReason(base, vendor string) string {
	switch base {
	case ReasonSold:
		return "Sold To " + vendor
	case ReasonTradeIn:
		return "Trade in to " + vendor
	}
	return ReasonScrapped
}
