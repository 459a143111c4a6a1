package repository

import (
	"context"

	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/domain"
	"github.com/MindFlowInteractive/quest-social-api/shared/postgres"
	"github.com/lib/pq"
)

type FriendshipRepository struct {
	db *postgres.Postgres
}

func NewFriendshipRepository(db *postgres.Postgres) domain.FriendshipRepository {
	return &FriendshipRepository{db: db}
}

func (r *FriendshipRepository) CreatePair(ctx context.Context, edges []*domain.Friendship) error {
	tx, err := r.db.GetClient().BeginTx(ctx, nil)
	if err != nil {
		return domain.NewDatabaseError("begin_tx", err)
	}
	defer tx.Rollback()

	for _, edge := range edges {
		query := `
			INSERT INTO friendships (id, user_id, friend_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id, friend_id) DO UPDATE
			SET deleted_at = NULL, updated_at = EXCLUDED.updated_at`

		if _, err := tx.ExecContext(ctx, query,
			edge.ID, edge.UserID, edge.FriendID, edge.CreatedAt, edge.UpdatedAt,
		); err != nil {
			return domain.NewDatabaseError("create_friendship", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.NewDatabaseError("commit_tx", err)
	}
	return nil
}

func (r *FriendshipRepository) DeletePair(ctx context.Context, userID, friendID domain.UserID) (int, error) {
	query := `
		UPDATE friendships
		SET deleted_at = now(), updated_at = now()
		WHERE deleted_at IS NULL
		  AND ((user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1))`

	result, err := r.db.GetClient().ExecContext(ctx, query, userID, friendID)
	if err != nil {
		return 0, domain.NewDatabaseError("delete_friendship_pair", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, domain.NewDatabaseError("delete_friendship_pair", err)
	}
	return int(affected), nil
}

func (r *FriendshipRepository) IsFriend(ctx context.Context, userID, friendID domain.UserID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM friendships
			WHERE user_id = $1 AND friend_id = $2 AND deleted_at IS NULL
		)`

	var exists bool
	if err := r.db.GetClient().QueryRowContext(ctx, query, userID, friendID).Scan(&exists); err != nil {
		return false, domain.NewDatabaseError("is_friend", err)
	}
	return exists, nil
}

func (r *FriendshipRepository) ListFriends(ctx context.Context, userID domain.UserID, limit, offset int) ([]*domain.Friendship, error) {
	query := `
		SELECT id, user_id, friend_id, created_at, updated_at, deleted_at
		FROM friendships
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.GetClient().QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, domain.NewDatabaseError("list_friends", err)
	}
	defer rows.Close()

	var friendships []*domain.Friendship
	for rows.Next() {
		var f domain.Friendship
		if err := rows.Scan(&f.ID, &f.UserID, &f.FriendID, &f.CreatedAt, &f.UpdatedAt, &f.DeletedAt); err != nil {
			return nil, domain.NewDatabaseError("list_friends", err)
		}
		friendships = append(friendships, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewDatabaseError("list_friends", err)
	}
	return friendships, nil
}

func (r *FriendshipRepository) ListFriendIDs(ctx context.Context, userID domain.UserID) ([]domain.UserID, error) {
	query := `
		SELECT friend_id FROM friendships
		WHERE user_id = $1 AND deleted_at IS NULL`

	rows, err := r.db.GetClient().QueryContext(ctx, query, userID)
	if err != nil {
		return nil, domain.NewDatabaseError("list_friend_ids", err)
	}
	defer rows.Close()

	var ids []domain.UserID
	for rows.Next() {
		var id domain.UserID
		if err := rows.Scan(&id); err != nil {
			return nil, domain.NewDatabaseError("list_friend_ids", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewDatabaseError("list_friend_ids", err)
	}
	return ids, nil
}

func (r *FriendshipRepository) ListFriendIDsBatch(ctx context.Context, userIDs []domain.UserID) (map[domain.UserID][]domain.UserID, error) {
	result := make(map[domain.UserID][]domain.UserID, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT user_id, friend_id FROM friendships
		WHERE user_id = ANY($1) AND deleted_at IS NULL`

	rows, err := r.db.GetClient().QueryContext(ctx, query, pq.Array(userIDs))
	if err != nil {
		return nil, domain.NewDatabaseError("list_friend_ids_batch", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID, friendID domain.UserID
		if err := rows.Scan(&userID, &friendID); err != nil {
			return nil, domain.NewDatabaseError("list_friend_ids_batch", err)
		}
		result[userID] = append(result[userID], friendID)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewDatabaseError("list_friend_ids_batch", err)
	}
	return result, nil
}

// Mutual friends are computed with a self-join on the edge relation rather
// than intersecting id lists in application code.
func (r *FriendshipRepository) CountMutualFriends(ctx context.Context, userID1, userID2 domain.UserID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM friendships f1
		JOIN friendships f2 ON f1.friend_id = f2.user_id
		WHERE f1.user_id = $1 AND f2.friend_id = $2
		  AND f1.deleted_at IS NULL AND f2.deleted_at IS NULL`

	var count int
	if err := r.db.GetClient().QueryRowContext(ctx, query, userID1, userID2).Scan(&count); err != nil {
		return 0, domain.NewDatabaseError("count_mutual_friends", err)
	}
	return count, nil
}

func (r *FriendshipRepository) ListMutualFriendIDs(ctx context.Context, userID1, userID2 domain.UserID, limit int) ([]domain.UserID, error) {
	query := `
		SELECT f1.friend_id
		FROM friendships f1
		JOIN friendships f2 ON f1.friend_id = f2.user_id
		WHERE f1.user_id = $1 AND f2.friend_id = $2
		  AND f1.deleted_at IS NULL AND f2.deleted_at IS NULL
		LIMIT $3`

	rows, err := r.db.GetClient().QueryContext(ctx, query, userID1, userID2, limit)
	if err != nil {
		return nil, domain.NewDatabaseError("list_mutual_friend_ids", err)
	}
	defer rows.Close()

	var ids []domain.UserID
	for rows.Next() {
		var id domain.UserID
		if err := rows.Scan(&id); err != nil {
			return nil, domain.NewDatabaseError("list_mutual_friend_ids", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewDatabaseError("list_mutual_friend_ids", err)
	}
	return ids, nil
}
