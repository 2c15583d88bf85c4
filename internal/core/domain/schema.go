package domain

import "slices"

// ColumnKind controls how a column is rendered and edited
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindLocation
	KindDate
	KindEnum
	KindReadOnly
	KindActions
)

// ColumnActions is the synthetic column holding row buttons
const ColumnActions = "Actions"

// Column describes one fixed table column
type Column struct {
	Field   string
	Kind    ColumnKind
	Options []string // for KindEnum
}

// Editable reports whether the column belongs in an edit draft
func (c Column) Editable() bool {
	return c.Kind != KindReadOnly && c.Kind != KindActions
}

// Transfer reasons
const (
	ReasonOperation = "Operation"
	ReasonRepair    = "Repair"
)

// Disposal reasons
const (
	ReasonScrapped = "Scrapped"
	ReasonSold     = "Sold to Third Party"
	ReasonTradeIn  = "Trade in"
)

var (
	TransferReasons = []string{ReasonOperation, ReasonRepair}
	DisposalReasons = []string{ReasonScrapped, ReasonSold, ReasonTradeIn}
)

// RequiresVendor reports whether a disposal reason is a third-party transaction
func RequiresVendor(reason string) bool {
	return reason == ReasonSold || reason == ReasonTradeIn
}

// Schema is the fixed, ordered column set for a record type
type Schema struct {
	Type    RecordType
	Columns []Column
}

var schemas = map[RecordType]Schema{
	RecordAsset: {
		Type: RecordAsset,
		Columns: []Column{
			{Field: FieldLocation, Kind: KindLocation},
			{Field: FieldOldCode, Kind: KindText},
			{Field: FieldSN, Kind: KindText},
			{Field: FieldDetails, Kind: KindText},
			{Field: FieldTag, Kind: KindReadOnly},
			{Field: FieldOperator, Kind: KindReadOnly},
			{Field: ColumnActions, Kind: KindActions},
		},
	},
	RecordTransfer: {
		Type: RecordTransfer,
		Columns: []Column{
			{Field: FieldOldCode, Kind: KindText},
			{Field: FieldBy, Kind: KindText},
			{Field: FieldTo, Kind: KindLocation},
			{Field: FieldReason, Kind: KindEnum, Options: TransferReasons},
			{Field: FieldWhen, Kind: KindDate},
			{Field: FieldOperator, Kind: KindReadOnly},
			{Field: ColumnActions, Kind: KindActions},
		},
	},
	RecordDisposal: {
		Type: RecordDisposal,
		Columns: []Column{
			{Field: FieldLocation, Kind: KindLocation},
			{Field: FieldOldCode, Kind: KindText},
			{Field: FieldSN, Kind: KindText},
			{Field: FieldDetails, Kind: KindText},
			{Field: FieldWhen, Kind: KindDate},
			{Field: FieldOperator, Kind: KindReadOnly},
			{Field: FieldReason, Kind: KindText},
			{Field: ColumnActions, Kind: KindActions},
		},
	},
}

// SchemaFor returns the schema of a record type
func SchemaFor(t RecordType) Schema {
	return schemas[t]
}

// Headers returns the column titles in display order
func (s Schema) Headers() []string {
	headers := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		headers[i] = c.Field
	}
	return headers
}

// DataColumns returns the columns without the Actions column
func (s Schema) DataColumns() []Column {
	return slices.DeleteFunc(slices.Clone(s.Columns), func(c Column) bool {
		return c.Kind == KindActions
	})
}

// EditableColumns returns the columns copied into an edit draft
func (s Schema) EditableColumns() []Column {
	var cols []Column
	for _, c := range s.Columns {
		if c.Editable() {
			cols = append(cols, c)
		}
	}
	return cols
}

// Column looks up a column by field name
func (s Schema) Column(field string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Field == field {
			return c, true
		}
	}
	return Column{}, false
}
