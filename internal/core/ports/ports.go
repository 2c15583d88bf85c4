package ports

import (
	"context"
	"errors"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
)

// AuthAPI defines the port for authentication against the backend
type AuthAPI interface {
	// Login exchanges credentials for a bearer token
	Login(ctx context.Context, userID, password string, remember7Days bool) (string, *domain.User, error)

	// Profile returns the user owning the current token
	Profile(ctx context.Context) (*domain.User, error)
}

// LocationAPI defines the port for reading parks and areas
type LocationAPI interface {
	ListAreas(ctx context.Context) ([]domain.Area, error)
	ListParks(ctx context.Context) ([]domain.Park, error)
}

// RecordAPI defines the port for record persistence operations
type RecordAPI interface {
	// List returns records of a type restricted to the given park ids, in server order
	List(ctx context.Context, t domain.RecordType, locationIDs []string) ([]domain.Record, error)

	// Add creates a record and returns the server-built item
	Add(ctx context.Context, t domain.RecordType, payload map[string]string) (*domain.Record, error)

	// Update replaces the given fields of a record
	Update(ctx context.Context, t domain.RecordType, id string, after map[string]string) error

	// Delete removes a record by id
	Delete(ctx context.Context, t domain.RecordType, id string) error
}

// Backend groups every remote operation the console needs
type Backend interface {
	AuthAPI
	LocationAPI
	RecordAPI
}

// KeyValueStore is a flat byte store for client-side session slots
type KeyValueStore interface {
	// Get returns the value and whether the key exists
	Get(key string) ([]byte, bool, error)

	Set(key string, value []byte) error

	// Delete removes a key; deleting a missing key is not an error
	Delete(key string) error
}

// ErrUnauthorized is returned (wrapped) when the backend rejects the token
var ErrUnauthorized = errors.New("unauthorized")

// MessageError is implemented by errors carrying a server-supplied message
type MessageError interface {
	error
	UserMessage() string
}
