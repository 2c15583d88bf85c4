package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
	"github.com/kamal-hamza/assetctl/internal/core/ports"
)

// AddService creates records on the backend
type AddService struct {
	api ports.RecordAPI
}

// NewAddService creates a new add service
func NewAddService(api ports.RecordAPI) *AddService {
	return &AddService{api: api}
}

// AddRequest is a validated create request
type AddRequest struct {
	Type    domain.RecordType
	Payload map[string]string
}

// Execute validates the form and sends the create request
func (s *AddService) Execute(ctx context.Context, form domain.AddForm) (*domain.Record, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	return s.Send(ctx, AddRequest{Type: form.Type, Payload: form.Payload()})
}

// Send posts an already validated request. It touches no view state.
func (s *AddService) Send(ctx context.Context, req AddRequest) (*domain.Record, error) {
	item, err := s.api.Add(ctx, req.Type, req.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to add %s: %w", req.Type, err)
	}
	if item == nil {
		return nil, fmt.Errorf("failed to add %s: empty response", req.Type)
	}
	item.Type = req.Type
	return item, nil
}

// AddWorkflow is the per-tab add form state
type AddWorkflow struct {
	Type       domain.RecordType
	Form       domain.AddForm
	Error      string
	Success    bool
	Open       bool
	Submitting bool

	edited map[string]bool
	parks  []string
	now    func() time.Time
}

// NewAddWorkflow creates a closed, empty workflow
func NewAddWorkflow(t domain.RecordType, now func() time.Time) *AddWorkflow {
	if now == nil {
		now = time.Now
	}
	return &AddWorkflow{
		Type:   t,
		Form:   domain.NewAddForm(t),
		edited: make(map[string]bool),
		now:    now,
	}
}

// Show opens the form
func (w *AddWorkflow) Show() {
	w.Open = true
}

// Set records a user edit of one input
func (w *AddWorkflow) Set(key, value string) {
	w.Form = w.Form.With(key, value)
	w.edited[key] = true
}

// ApplyDefaults fills the location and date from context without
// touching values the user already edited
func (w *AddWorkflow) ApplyDefaults(parkIDs []string) {
	w.parks = parkIDs

	first := ""
	if len(parkIDs) > 0 {
		first = parkIDs[0]
	}
	today := w.now().Format(time.DateOnly)

	fill := func(key, value string) {
		if w.edited[key] || w.Form.Get(key) != "" || value == "" {
			return
		}
		w.Form = w.Form.With(key, value)
	}
	// A filled location outside the new selection follows it
	fillPark := func(key string) {
		if w.edited[key] {
			return
		}
		if cur := w.Form.Get(key); cur != "" && !slices.Contains(parkIDs, cur) {
			w.Form = w.Form.With(key, first)
			return
		}
		fill(key, first)
	}

	switch w.Type {
	case domain.RecordAsset:
		fillPark(domain.FieldLocation)
	case domain.RecordTransfer:
		fillPark(domain.FieldTo)
		fill(domain.FormWhenDate, today)
	case domain.RecordDisposal:
		fillPark(domain.FieldLocation)
		fill(domain.FormWhenDate, today)
	}
}

// Prepare validates the form. On failure it sets Error and returns false;
// no request may be sent in that case.
func (w *AddWorkflow) Prepare() (AddRequest, bool) {
	if w.Submitting {
		return AddRequest{}, false
	}
	w.Error = ""
	if err := w.Form.Validate(); err != nil {
		w.Error = DisplayMessage(err, err.Error())
		return AddRequest{}, false
	}
	w.Submitting = true
	return AddRequest{Type: w.Type, Payload: w.Form.Payload()}, true
}

// Finish records the outcome of a submitted request
func (w *AddWorkflow) Finish(err error) {
	w.Submitting = false
	if err != nil {
		w.Error = MsgAddFailed
		return
	}
	w.Error = ""
	w.Success = true
}

// AddAnother resets the form and keeps it open
func (w *AddWorkflow) AddAnother() {
	w.reset()
	w.Open = true
}

// Close resets and closes the form
func (w *AddWorkflow) Close() {
	w.reset()
	w.Open = false
}

func (w *AddWorkflow) reset() {
	w.Form = domain.NewAddForm(w.Type)
	w.Error = ""
	w.Success = false
	w.Submitting = false
	w.edited = make(map[string]bool)
	w.ApplyDefaults(w.parks)
}
