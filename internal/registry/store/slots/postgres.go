package slots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"folio/internal/registry/models"
	"folio/pkg/domain"
	"folio/pkg/platform/sentinel"
	txcontext "folio/pkg/platform/tx"
)

const schema = `
CREATE TABLE IF NOT EXISTS registry_slots (
	address    BYTEA PRIMARY KEY,
	family     TEXT NOT NULL,
	data       BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Postgres stores one row per slot. Uniqueness of the primary key is what
// makes create-once slots race free across processes.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the slot table if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate registry_slots: %w", err)
	}
	return nil
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (p *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return p.db
}

func (p *Postgres) CreateIfAbsent(ctx context.Context, addr domain.Address, data []byte) error {
	inserted, err := p.insert(ctx, addr, data)
	if err != nil {
		return err
	}
	if !inserted {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (p *Postgres) Upsert(ctx context.Context, addr domain.Address, data []byte, guard func(prev []byte) error) (bool, error) {
	var created bool
	err := txcontext.Run(ctx, p.db, func(ctx context.Context) error {
		inserted, err := p.insert(ctx, addr, data)
		if err != nil {
			return err
		}
		if inserted {
			created = true
			return nil
		}
		var prev []byte
		err = p.execer(ctx).QueryRowContext(ctx,
			`SELECT data FROM registry_slots WHERE address = $1 FOR UPDATE`, addr[:]).Scan(&prev)
		if err != nil {
			return fmt.Errorf("lock slot: %w", err)
		}
		if guard != nil {
			if err := guard(prev); err != nil {
				return err
			}
		}
		_, err = p.execer(ctx).ExecContext(ctx,
			`UPDATE registry_slots SET data = $2, updated_at = NOW() WHERE address = $1`, addr[:], data)
		if err != nil {
			return fmt.Errorf("overwrite slot: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (p *Postgres) Get(ctx context.Context, addr domain.Address) ([]byte, error) {
	var data []byte
	err := p.execer(ctx).QueryRowContext(ctx,
		`SELECT data FROM registry_slots WHERE address = $1`, addr[:]).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read slot: %w", err)
	}
	return data, nil
}

func (p *Postgres) GetMany(ctx context.Context, addrs []domain.Address) (map[domain.Address][]byte, error) {
	out := make(map[domain.Address][]byte, len(addrs))
	if len(addrs) == 0 {
		return out, nil
	}
	keys := make(pq.ByteaArray, len(addrs))
	for i := range addrs {
		keys[i] = addrs[i].Bytes()
	}
	rows, err := p.execer(ctx).QueryContext(ctx,
		`SELECT address, data FROM registry_slots WHERE address = ANY($1)`, keys)
	if err != nil {
		return nil, fmt.Errorf("read slots: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key, data []byte
		if err := rows.Scan(&key, &data); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		var addr domain.Address
		copy(addr[:], key)
		out[addr] = data
	}
	return out, rows.Err()
}

func (p *Postgres) insert(ctx context.Context, addr domain.Address, data []byte) (bool, error) {
	family, _ := models.FamilyOf(data)
	res, err := p.execer(ctx).ExecContext(ctx, `
		INSERT INTO registry_slots (address, family, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (address) DO NOTHING`, addr[:], string(family), data)
	if err != nil {
		return false, fmt.Errorf("insert slot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert slot: %w", err)
	}
	return n == 1, nil
}
