package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
	"github.com/kamal-hamza/assetctl/internal/core/ports"
)

// RowPhase is the confirmation phase of the active row session
type RowPhase int

const (
	PhaseIdle RowPhase = iota
	PhaseEditing
	PhaseConfirmEdit
	PhaseConfirmDelete
)

func (p RowPhase) String() string {
	switch p {
	case PhaseEditing:
		return "editing"
	case PhaseConfirmEdit:
		return "confirm-edit"
	case PhaseConfirmDelete:
		return "confirm-delete"
	}
	return "idle"
}

// RowState is the single edit/delete session of a table.
// It is a value: every transition returns a new state.
type RowState struct {
	Phase RowPhase
	RowID string
	Type  domain.RecordType
	Draft map[string]string
}

// StartEdit opens an edit session on row, cancelling any other session.
// The draft copies the editable columns; dates are cut to YYYY-MM-DD.
func (s RowState) StartEdit(row domain.Record) RowState {
	schema := domain.SchemaFor(row.Type)
	draft := make(map[string]string)
	for _, c := range schema.EditableColumns() {
		v := row.Get(c.Field)
		if c.Kind == domain.KindDate {
			v = domain.DateOnly(v)
		}
		draft[c.Field] = v
	}
	return RowState{Phase: PhaseEditing, RowID: row.ID, Type: row.Type, Draft: draft}
}

// StartDelete moves row into the pending-delete phase, cancelling any other session
func (s RowState) StartDelete(row domain.Record) RowState {
	return RowState{Phase: PhaseConfirmDelete, RowID: row.ID, Type: row.Type}
}

// Confirm is the first confirmation of an edit
func (s RowState) Confirm() (RowState, error) {
	if s.Phase != PhaseEditing {
		return s, fmt.Errorf("%w: confirm from %s", ErrInvalidTransition, s.Phase)
	}
	next := s.clone()
	next.Phase = PhaseConfirmEdit
	return next, nil
}

// Cancel abandons the session and its draft
func (s RowState) Cancel() RowState {
	return RowState{}
}

// SetField changes one draft value. Location must be one of locations,
// dates must be calendar dates and enums must use a listed option.
func (s RowState) SetField(field, value string, locations []string) (RowState, error) {
	if s.Phase != PhaseEditing {
		return s, fmt.Errorf("%w: edit field from %s", ErrInvalidTransition, s.Phase)
	}

	col, ok := domain.SchemaFor(s.Type).Column(field)
	if !ok || !col.Editable() {
		return s, fmt.Errorf("field %q is not editable", field)
	}

	switch col.Kind {
	case domain.KindLocation:
		if value != "" && !slices.Contains(locations, value) {
			return s, fmt.Errorf("location %q is not in the current selection", value)
		}
	case domain.KindDate:
		if value != "" {
			if _, err := time.Parse(time.DateOnly, value); err != nil {
				return s, fmt.Errorf("%s must be a date (YYYY-MM-DD)", field)
			}
		}
	case domain.KindEnum:
		if !slices.Contains(col.Options, value) {
			return s, fmt.Errorf("%s must be one of %v", field, col.Options)
		}
	}

	next := s.clone()
	next.Draft[field] = value
	return next, nil
}

// IsRow reports whether the session targets rowID
func (s RowState) IsRow(rowID string) bool {
	return s.Phase != PhaseIdle && s.RowID == rowID
}

// AwaitingFinalConfirm reports whether the next confirm commits
func (s RowState) AwaitingFinalConfirm() bool {
	return s.Phase == PhaseConfirmEdit || s.Phase == PhaseConfirmDelete
}

func (s RowState) clone() RowState {
	next := s
	if s.Draft != nil {
		next.Draft = make(map[string]string, len(s.Draft))
		for k, v := range s.Draft {
			next.Draft[k] = v
		}
	}
	return next
}

// RowCommit is the mutation produced by the second confirmation
type RowCommit struct {
	Delete bool
	Type   domain.RecordType
	RowID  string
	After  map[string]string
}

// Commit returns the mutation to send for a session awaiting final confirmation
func (s RowState) Commit() (RowCommit, error) {
	switch s.Phase {
	case PhaseConfirmEdit:
		return RowCommit{Type: s.Type, RowID: s.RowID, After: s.clone().Draft}, nil
	case PhaseConfirmDelete:
		return RowCommit{Delete: true, Type: s.Type, RowID: s.RowID}, nil
	}
	return RowCommit{}, fmt.Errorf("%w: commit from %s", ErrInvalidTransition, s.Phase)
}

// FailureMessage converts a commit error to display text
func (c RowCommit) FailureMessage(err error) string {
	if c.Delete {
		return DisplayMessage(err, MsgDeleteFailed)
	}
	return DisplayMessage(err, MsgUpdateFailed)
}

// RowEditor sends committed row mutations to the backend
type RowEditor struct {
	api ports.RecordAPI
}

// NewRowEditor creates a new row editor
func NewRowEditor(api ports.RecordAPI) *RowEditor {
	return &RowEditor{api: api}
}

// Execute sends the update or delete. It touches no view state.
func (e *RowEditor) Execute(ctx context.Context, c RowCommit) error {
	if c.Delete {
		if err := e.api.Delete(ctx, c.Type, c.RowID); err != nil {
			return fmt.Errorf("failed to delete %s %s: %w", c.Type, c.RowID, err)
		}
		return nil
	}
	if err := e.api.Update(ctx, c.Type, c.RowID, c.After); err != nil {
		return fmt.Errorf("failed to update %s %s: %w", c.Type, c.RowID, err)
	}
	return nil
}
