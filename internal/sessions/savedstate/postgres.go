package savedstate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// DefaultTable is used when no table is configured.
const DefaultTable = "checkout_session_state"

var validTableNameRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

type postgresStore struct {
	db    *sql.DB
	table string // quoted
}

// NewPostgresStore connects to dsn and creates the state table if it does not exist.
func NewPostgresStore(ctx context.Context, dsn, table string) (Store, error) {
	if dsn == "" {
		return nil, ErrInvalidState.Msg("postgres driver needs a dsn")
	}
	if table == "" {
		table = DefaultTable
	}
	if !validTableNameRegex.MatchString(table) {
		return nil, ErrInvalidState.Msg("invalid table name: " + table)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to open db")
		return nil, ErrStorageFailure.MsgErr("failed to open database connection", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		log.Ctx(ctx).Error().Err(err).Msg("failed to ping db")
		return nil, ErrStorageFailure.MsgErr("failed to ping database", err)
	}

	p := &postgresStore{db: db, table: pq.QuoteIdentifier(table)}
	if err := p.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

func (p *postgresStore) migrate(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		session_id VARCHAR(128) PRIMARY KEY,
		session_data TEXT NOT NULL,
		is_flow_taken_over BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, p.table)
	if _, err := p.db.ExecContext(ctx, query); err != nil {
		return ErrStorageFailure.MsgErr("failed to create state table", err)
	}
	return nil
}

func (p *postgresStore) Load(ctx context.Context, sessionID string) (*State, error) {
	query := fmt.Sprintf(`SELECT session_id, session_data, is_flow_taken_over, updated_at FROM %s WHERE session_id = $1`, p.table)
	var s State
	err := p.db.QueryRowContext(ctx, query, sessionID).Scan(&s.Session.ID, &s.Session.SessionData, &s.IsFlowTakenOver, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStateNotFound
		}
		return nil, ErrStorageFailure.Err(err)
	}
	return &s, nil
}

func (p *postgresStore) Save(ctx context.Context, state State) error {
	if err := validateState(state); err != nil {
		return err
	}
	query := fmt.Sprintf(`INSERT INTO %[1]s (session_id, session_data, is_flow_taken_over, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (session_id) DO UPDATE SET
			session_data = EXCLUDED.session_data,
			is_flow_taken_over = %[1]s.is_flow_taken_over OR EXCLUDED.is_flow_taken_over,
			updated_at = now()`, p.table)
	if _, err := p.db.ExecContext(ctx, query, state.Session.ID, state.Session.SessionData, state.IsFlowTakenOver); err != nil {
		return ErrStorageFailure.Err(err)
	}
	return nil
}

func (p *postgresStore) exec(ctx context.Context, query string, args ...any) error {
	res, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return ErrStorageFailure.Err(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return ErrStorageFailure.Err(err)
	}
	if n == 0 {
		return ErrStateNotFound
	}
	return nil
}

func (p *postgresStore) UpdateSessionData(ctx context.Context, sessionID, sessionData string) error {
	if sessionData == "" {
		return ErrInvalidState.Msg("session data is required")
	}
	query := fmt.Sprintf(`UPDATE %s SET session_data = $2, updated_at = now() WHERE session_id = $1`, p.table)
	return p.exec(ctx, query, sessionID, sessionData)
}

func (p *postgresStore) SetFlowTakenOver(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf(`UPDATE %s SET is_flow_taken_over = TRUE, updated_at = now() WHERE session_id = $1`, p.table)
	return p.exec(ctx, query, sessionID)
}

func (p *postgresStore) Delete(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE session_id = $1`, p.table)
	if _, err := p.db.ExecContext(ctx, query, sessionID); err != nil {
		return ErrStorageFailure.Err(err)
	}
	return nil
}

func (p *postgresStore) Close() error {
	return p.db.Close()
}
