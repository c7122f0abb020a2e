package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/raditya/chatwave/internal/domain/entity"
	"github.com/raditya/chatwave/internal/domain/repository"
)

const channelColumns = `id, name, admin_id, members, created_at, updated_at`

type ChannelRepository struct {
	pool *pgxpool.Pool
}

func NewChannelRepository(pool *pgxpool.Pool) *ChannelRepository {
	return &ChannelRepository{pool: pool}
}

func scanChannel(row pgx.Row) (*entity.Channel, error) {
	ch := &entity.Channel{}
	if err := row.Scan(&ch.ID, &ch.Name, &ch.AdminID, &ch.Members,
		&ch.CreatedAt, &ch.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return ch, nil
}

func (r *ChannelRepository) Create(ch *entity.Channel) error {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO channels (name, admin_id, members)
		VALUES ($1, $2, $3::uuid[])
		RETURNING id, created_at, updated_at
	`, ch.Name, ch.AdminID, ch.Members)

	return row.Scan(&ch.ID, &ch.CreatedAt, &ch.UpdatedAt)
}

// ListForUser returns channels where the account is admin or member,
// most recently updated first, ties broken by id for a stable order.
func (r *ChannelRepository) ListForUser(userID string) ([]*entity.Channel, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+channelColumns+`
		FROM channels
		WHERE admin_id = $1 OR $1 = ANY(members)
		ORDER BY updated_at DESC, id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []*entity.Channel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// AddMembers unions the given ids into the member set in one UPDATE.
// The union and dedupe happen inside the statement, so concurrent
// mutations of the same channel serialize on the row instead of racing
// through read-modify-write cycles. Already-present ids are no-ops.
func (r *ChannelRepository) AddMembers(id string, memberIDs []string) (*entity.Channel, error) {
	ctx := context.Background()
	return scanChannel(r.pool.QueryRow(ctx, `
		UPDATE channels
		SET members = (
			SELECT array_agg(DISTINCT m ORDER BY m)
			FROM unnest(members || $2::uuid[]) AS m
		),
		updated_at = now()
		WHERE id = $1
		RETURNING `+channelColumns+`
	`, id, memberIDs))
}

// RemoveMembers subtracts the given ids from the member set in one
// UPDATE. Ids not present in the set are no-ops.
func (r *ChannelRepository) RemoveMembers(id string, memberIDs []string) (*entity.Channel, error) {
	ctx := context.Background()
	return scanChannel(r.pool.QueryRow(ctx, `
		UPDATE channels
		SET members = (
			SELECT COALESCE(array_agg(m ORDER BY m), '{}'::uuid[])
			FROM unnest(members) AS m
			WHERE m <> ALL($2::uuid[])
		),
		updated_at = now()
		WHERE id = $1
		RETURNING `+channelColumns+`
	`, id, memberIDs))
}

func (r *ChannelRepository) Delete(id string) error {
	ctx := context.Background()
	res, err := r.pool.Exec(ctx, `DELETE FROM channels WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.ChannelRepository = (*ChannelRepository)(nil)
