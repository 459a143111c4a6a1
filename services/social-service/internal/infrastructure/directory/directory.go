package directory

import (
	"context"
	"database/sql"

	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/domain"
	"github.com/MindFlowInteractive/quest-social-api/shared/postgres"
)

// PostgresDirectory resolves user profiles from the platform's user tables.
// The social core only depends on the directory port; swapping this for an
// RPC client changes nothing upstream.
type PostgresDirectory struct {
	db *postgres.Postgres
}

func NewPostgresDirectory(db *postgres.Postgres) domain.UserDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) GetUserByID(ctx context.Context, id domain.UserID) (*domain.UserProfile, error) {
	query := `
		SELECT u.id, p.display_name, COALESCE(p.avatar_url, '')
		FROM users u
		JOIN user_profiles p ON p.user_id = u.id
		WHERE u.id = $1 AND u.status = 'active'`

	var profile domain.UserProfile
	err := d.db.GetClient().QueryRowContext(ctx, query, id).Scan(
		&profile.ID, &profile.DisplayName, &profile.AvatarURL,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewDatabaseError("get_user_by_id", err)
	}
	return &profile, nil
}

func (d *PostgresDirectory) CheckUserExists(ctx context.Context, id domain.UserID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND status = 'active')`

	var exists bool
	if err := d.db.GetClient().QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, domain.NewDatabaseError("check_user_exists", err)
	}
	return exists, nil
}

func (d *PostgresDirectory) SearchUsers(ctx context.Context, query string, limit int) ([]*domain.UserProfile, error) {
	sqlQuery := `
		SELECT u.id, p.display_name, COALESCE(p.avatar_url, '')
		FROM users u
		JOIN user_profiles p ON p.user_id = u.id
		WHERE u.status = 'active' AND p.display_name ILIKE '%' || $1 || '%'
		ORDER BY p.display_name
		LIMIT $2`

	rows, err := d.db.GetClient().QueryContext(ctx, sqlQuery, query, limit)
	if err != nil {
		return nil, domain.NewDatabaseError("search_users", err)
	}
	defer rows.Close()

	var profiles []*domain.UserProfile
	for rows.Next() {
		var profile domain.UserProfile
		if err := rows.Scan(&profile.ID, &profile.DisplayName, &profile.AvatarURL); err != nil {
			return nil, domain.NewDatabaseError("search_users", err)
		}
		profiles = append(profiles, &profile)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewDatabaseError("search_users", err)
	}
	return profiles, nil
}
