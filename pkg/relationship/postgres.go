package relationship

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/streamhub/pkg/stream"
)

// Postgres reads relationships from the follows, blocks, mutes, lists and
// list_accounts tables.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ stream.RelationshipSource = (*Postgres)(nil)

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const relationshipQuery = `
SELECT
    EXISTS (SELECT 1 FROM follows WHERE account_id = $1 AND target_account_id = $2),
    EXISTS (SELECT 1 FROM blocks  WHERE account_id = $1 AND target_account_id = $2),
    EXISTS (SELECT 1 FROM blocks  WHERE account_id = $2 AND target_account_id = $1),
    EXISTS (SELECT 1 FROM mutes   WHERE account_id = $1 AND target_account_id = $2)`

func (p *Postgres) Relationship(ctx context.Context, ownerID, targetID string) (stream.Relationship, error) {
	var rel stream.Relationship
	err := p.pool.QueryRow(ctx, relationshipQuery, ownerID, targetID).
		Scan(&rel.Following, &rel.Blocking, &rel.BlockedBy, &rel.Muting)
	if err != nil {
		return stream.Relationship{}, errors.Join(ErrLookupFailed, err)
	}
	return rel, nil
}

func (p *Postgres) Followers(ctx context.Context, accountID string) ([]string, error) {
	return p.strings(ctx, `SELECT account_id FROM follows WHERE target_account_id = $1`, accountID)
}

func (p *Postgres) ListsContaining(ctx context.Context, accountID string) ([]string, error) {
	return p.strings(ctx, `SELECT list_id FROM list_accounts WHERE account_id = $1`, accountID)
}

func (p *Postgres) ListOwner(ctx context.Context, listID string) (string, error) {
	var owner string
	err := p.pool.QueryRow(ctx, `SELECT account_id FROM lists WHERE id = $1`, listID).Scan(&owner)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return "", fmt.Errorf("%w: %s", ErrListNotFound, listID)
	case err != nil:
		return "", errors.Join(ErrLookupFailed, err)
	}
	return owner, nil
}

func (p *Postgres) strings(ctx context.Context, query string, arg string) ([]string, error) {
	rows, err := p.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, errors.Join(ErrLookupFailed, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errors.Join(ErrLookupFailed, err)
	}
	return out, nil
}
