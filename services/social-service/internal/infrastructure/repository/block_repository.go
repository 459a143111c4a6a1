package repository

import (
	"context"

	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/domain"
	"github.com/MindFlowInteractive/quest-social-api/shared/postgres"
)

type BlockRepository struct {
	db *postgres.Postgres
}

func NewBlockRepository(db *postgres.Postgres) domain.BlockRepository {
	return &BlockRepository{db: db}
}

func (r *BlockRepository) Create(ctx context.Context, block *domain.UserBlock) error {
	query := `
		INSERT INTO user_blocks (id, blocker_id, blocked_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (blocker_id, blocked_id) DO NOTHING`

	_, err := r.db.GetClient().ExecContext(ctx, query,
		block.ID, block.BlockerID, block.BlockedID, block.CreatedAt,
	)
	if err != nil {
		return domain.NewDatabaseError("create_user_block", err)
	}
	return nil
}

func (r *BlockRepository) Delete(ctx context.Context, blockerID, blockedID domain.UserID) error {
	query := `DELETE FROM user_blocks WHERE blocker_id = $1 AND blocked_id = $2`

	_, err := r.db.GetClient().ExecContext(ctx, query, blockerID, blockedID)
	if err != nil {
		return domain.NewDatabaseError("delete_user_block", err)
	}
	return nil
}

func (r *BlockRepository) IsBlocked(ctx context.Context, blockerID, blockedID domain.UserID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM user_blocks
			WHERE blocker_id = $1 AND blocked_id = $2
		)`

	var exists bool
	if err := r.db.GetClient().QueryRowContext(ctx, query, blockerID, blockedID).Scan(&exists); err != nil {
		return false, domain.NewDatabaseError("is_blocked", err)
	}
	return exists, nil
}
