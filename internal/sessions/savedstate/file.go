package savedstate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang/snappy"
	"github.com/rs/zerolog/log"
)

const stateFileExt = ".state"

// fileStore keeps one snappy-compressed JSON file per session.
type fileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore returns a store rooted at dir, creating it if needed.
func NewFileStore(dir string) (Store, error) {
	if dir == "" {
		return nil, ErrInvalidState.Msg("file driver needs a path")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, ErrStorageFailure.Err(err)
	}
	return &fileStore{dir: dir}, nil
}

func (f *fileStore) path(sessionID string) string {
	return filepath.Join(f.dir, sessionID+stateFileExt)
}

func (f *fileStore) read(sessionID string) (*State, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	compressed, err := os.ReadFile(f.path(sessionID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrStateNotFound
		}
		return nil, ErrStorageFailure.Err(err)
	}
	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, ErrInvalidState.MsgErr("corrupt state file", err)
	}
	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, ErrInvalidState.MsgErr("corrupt state file", err)
	}
	return &s, nil
}

// write replaces the state file atomically.
func (f *fileStore) write(state State) error {
	state.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(state)
	if err != nil {
		return ErrStorageFailure.Err(err)
	}
	tmp, err := os.CreateTemp(f.dir, state.Session.ID+".*.tmp")
	if err != nil {
		return ErrStorageFailure.Err(err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(snappy.Encode(nil, raw)); err != nil {
		tmp.Close()
		return ErrStorageFailure.Err(err)
	}
	if err := tmp.Close(); err != nil {
		return ErrStorageFailure.Err(err)
	}
	if err := os.Rename(tmp.Name(), f.path(state.Session.ID)); err != nil {
		return ErrStorageFailure.Err(err)
	}
	return nil
}

func (f *fileStore) Load(_ context.Context, sessionID string) (*State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read(sessionID)
}

func (f *fileStore) Save(ctx context.Context, state State) error {
	if err := validateState(state); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if prev, err := f.read(state.Session.ID); err == nil && prev.IsFlowTakenOver {
		state.IsFlowTakenOver = true
	}
	if err := f.write(state); err != nil {
		return err
	}
	log.Ctx(ctx).Debug().Str("session_id", state.Session.ID).Msg("saved session state")
	return nil
}

func (f *fileStore) update(sessionID string, fn func(s *State)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, err := f.read(sessionID)
	if err != nil {
		return err
	}
	fn(s)
	return f.write(*s)
}

func (f *fileStore) UpdateSessionData(_ context.Context, sessionID, sessionData string) error {
	if sessionData == "" {
		return ErrInvalidState.Msg("session data is required")
	}
	return f.update(sessionID, func(s *State) { s.Session.SessionData = sessionData })
}

func (f *fileStore) SetFlowTakenOver(_ context.Context, sessionID string) error {
	return f.update(sessionID, func(s *State) { s.IsFlowTakenOver = true })
}

func (f *fileStore) Delete(_ context.Context, sessionID string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path(sessionID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return ErrStorageFailure.Err(err)
	}
	return nil
}

func (f *fileStore) Close() error { return nil }
