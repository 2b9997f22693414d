package channel

import (
	"database/sql"
	"fmt"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert stores a new channel after validation.
func (r *PostgresRepository) Insert(ch *Channel) error {
	if err := ch.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO channels (id, name, tz_offset_min, avatar_url, enabled)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.db.QueryRow(
		query,
		ch.ID,
		ch.Name,
		ch.TzOffsetMin,
		ch.AvatarURL,
		ch.Enabled,
	).Scan(&ch.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert channel: %w", err)
	}
	return nil
}

// Update modifies an existing channel.
func (r *PostgresRepository) Update(ch *Channel) error {
	if err := ch.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE channels
		SET name = $2, tz_offset_min = $3, avatar_url = $4, enabled = $5
		WHERE id = $1
	`

	res, err := r.db.Exec(query, ch.ID, ch.Name, ch.TzOffsetMin, ch.AvatarURL, ch.Enabled)
	if err != nil {
		return fmt.Errorf("failed to update channel: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return ErrChannelNotFound
	}
	return nil
}

// GetByID retrieves a channel by its ID.
func (r *PostgresRepository) GetByID(id string) (*Channel, error) {
	query := `
		SELECT id, name, tz_offset_min, avatar_url, enabled, created_at
		FROM channels
		WHERE id = $1
	`

	ch := &Channel{}
	err := r.db.QueryRow(query, id).Scan(
		&ch.ID,
		&ch.Name,
		&ch.TzOffsetMin,
		&ch.AvatarURL,
		&ch.Enabled,
		&ch.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrChannelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	return ch, nil
}

// ListEnabled returns all enabled channels ordered by ID.
func (r *PostgresRepository) ListEnabled() ([]*Channel, error) {
	query := `
		SELECT id, name, tz_offset_min, avatar_url, enabled, created_at
		FROM channels
		WHERE enabled = TRUE
		ORDER BY id
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	var channels []*Channel
	for rows.Next() {
		ch := &Channel{}
		err := rows.Scan(
			&ch.ID,
			&ch.Name,
			&ch.TzOffsetMin,
			&ch.AvatarURL,
			&ch.Enabled,
			&ch.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		channels = append(channels, ch)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating channels: %w", err)
	}
	return channels, nil
}
