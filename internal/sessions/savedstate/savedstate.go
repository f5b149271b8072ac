// Package savedstate persists what a session flow needs to resume: the latest session
// model and whether the merchant took the flow over.
package savedstate

import (
	"context"
	"net/http"
	"regexp"
	"time"

	jsonitor "github.com/json-iterator/go"

	"github.com/adyen/checkout-sessions-go/internal/common/apperrors"
	"github.com/adyen/checkout-sessions-go/internal/sessions"
)

var json = jsonitor.ConfigCompatibleWithStandardLibrary

// Drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

var (
	ErrSavedState     apperrors.Error = apperrors.New("saved state error").SetStatusCode(http.StatusInternalServerError)
	ErrStateNotFound                  = ErrSavedState.New("saved state not found").SetStatusCode(http.StatusNotFound)
	ErrInvalidState                   = ErrSavedState.New("invalid saved state").SetStatusCode(http.StatusBadRequest)
	ErrUnknownDriver                  = ErrSavedState.New("unknown saved state driver")
	ErrStorageFailure                 = ErrSavedState.New("saved state storage failure")
)

// State is the resumable part of a session flow.
type State struct {
	Session         sessions.SessionModel `json:"session"`
	IsFlowTakenOver bool                  `json:"isFlowTakenOver"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

// Store persists states keyed by session id.
type Store interface {
	// Load returns ErrStateNotFound for unknown sessions.
	Load(ctx context.Context, sessionID string) (*State, error)
	// Save creates or replaces a state. A stored takeover flag survives the replace.
	Save(ctx context.Context, state State) error
	UpdateSessionData(ctx context.Context, sessionID, sessionData string) error
	// SetFlowTakenOver only ever sets the flag.
	SetFlowTakenOver(ctx context.Context, sessionID string) error
	Delete(ctx context.Context, sessionID string) error
	Close() error
}

// Config selects and configures a driver.
type Config struct {
	Driver string
	Path   string // directory for the file driver
	DSN    string // connection string for the postgres driver
	Table  string // table for the postgres driver
}

// Open returns the store for cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverFile:
		return NewFileStore(cfg.Path)
	case DriverPostgres:
		return NewPostgresStore(ctx, cfg.DSN, cfg.Table)
	default:
		return nil, ErrUnknownDriver.Msg("unknown saved state driver: " + cfg.Driver)
	}
}

var sessionIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

func validateSessionID(id string) error {
	if !sessionIDRegex.MatchString(id) {
		return ErrInvalidState.Msg("invalid session id: " + id)
	}
	return nil
}

func validateState(state State) error {
	if err := validateSessionID(state.Session.ID); err != nil {
		return err
	}
	if state.Session.SessionData == "" {
		return ErrInvalidState.Msg("session data is required")
	}
	return nil
}

// Interactor restores an interactor from the saved state of sessionID.
func Interactor(ctx context.Context, store Store, repo sessions.Repository, sessionID string, opts ...sessions.Option) (*sessions.Interactor, error) {
	state, err := store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sessions.NewInteractor(repo, state.Session, state.IsFlowTakenOver, opts...), nil
}
