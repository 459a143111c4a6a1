package repository

import (
	"context"
	"database/sql"

	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/domain"
	"github.com/MindFlowInteractive/quest-social-api/shared/postgres"
)

type PrivacySettingsRepository struct {
	db *postgres.Postgres
}

func NewPrivacySettingsRepository(db *postgres.Postgres) domain.PrivacySettingsRepository {
	return &PrivacySettingsRepository{db: db}
}

func (r *PrivacySettingsRepository) Get(ctx context.Context, userID domain.UserID) (*domain.PrivacySettings, error) {
	query := `
		SELECT user_id, profile_visibility, show_activity_to, leaderboard_visibility, created_at, updated_at
		FROM privacy_settings
		WHERE user_id = $1`

	var settings domain.PrivacySettings
	var profile, activity, leaderboard string

	err := r.db.GetClient().QueryRowContext(ctx, query, userID).Scan(
		&settings.UserID, &profile, &activity, &leaderboard,
		&settings.CreatedAt, &settings.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrPrivacySettingsNotFound
	}
	if err != nil {
		return nil, domain.NewDatabaseError("get_privacy_settings", err)
	}

	settings.ProfileVisibility = domain.PrivacyLevel(profile)
	settings.ShowActivityTo = domain.PrivacyLevel(activity)
	settings.LeaderboardVisibility = domain.PrivacyLevel(leaderboard)
	return &settings, nil
}

func (r *PrivacySettingsRepository) Upsert(ctx context.Context, settings *domain.PrivacySettings) error {
	query := `
		INSERT INTO privacy_settings (user_id, profile_visibility, show_activity_to, leaderboard_visibility, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET profile_visibility = EXCLUDED.profile_visibility,
		    show_activity_to = EXCLUDED.show_activity_to,
		    leaderboard_visibility = EXCLUDED.leaderboard_visibility,
		    updated_at = EXCLUDED.updated_at`

	_, err := r.db.GetClient().ExecContext(ctx, query,
		settings.UserID, string(settings.ProfileVisibility), string(settings.ShowActivityTo),
		string(settings.LeaderboardVisibility), settings.CreatedAt, settings.UpdatedAt,
	)
	if err != nil {
		return domain.NewDatabaseError("upsert_privacy_settings", err)
	}
	return nil
}
