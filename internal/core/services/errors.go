package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
	"github.com/kamal-hamza/assetctl/internal/core/ports"
)

// Fallback messages
const (
	MsgAddFailed    = "Failed to add, please try again later"
	MsgUpdateFailed = "Update failed"
	MsgDeleteFailed = "Delete failed"
	MsgLoginFailed  = "Login failed, please check your account and password"
)

// ErrInvalidTransition is returned when an event does not apply to the current row state
var ErrInvalidTransition = errors.New("invalid row state transition")

// FetchError reports a failed list retrieval for one record type
type FetchError struct {
	Type domain.RecordType
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s data: %v", tabName(e.Type), e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// UserMessage is the inline text shown in place of the table
func (e *FetchError) UserMessage() string {
	var msgErr ports.MessageError
	if errors.As(e.Err, &msgErr) && msgErr.UserMessage() != "" {
		return msgErr.UserMessage()
	}
	return fmt.Sprintf("Failed to fetch %s data.", tabName(e.Type))
}

func tabName(t domain.RecordType) string {
	if t == domain.RecordAsset {
		return string(TabDetails)
	}
	return string(t)
}

// DisplayMessage converts an error to user-facing text, preferring a server message
func DisplayMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		return validation.Message
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.UserMessage()
	}

	var msgErr ports.MessageError
	if errors.As(err, &msgErr) {
		if msg := strings.TrimSpace(msgErr.UserMessage()); msg != "" {
			return msg
		}
	}
	return fallback
}

// IsUnauthorized reports whether err means the token is invalid or expired
func IsUnauthorized(err error) bool {
	return errors.Is(err, ports.ErrUnauthorized)
}
