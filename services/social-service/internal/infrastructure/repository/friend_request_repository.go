package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/domain"
	"github.com/MindFlowInteractive/quest-social-api/shared/postgres"
)

type FriendRequestRepository struct {
	db *postgres.Postgres
}

func NewFriendRequestRepository(db *postgres.Postgres) domain.FriendRequestRepository {
	return &FriendRequestRepository{db: db}
}

const friendRequestColumns = `id, from_user_id, to_user_id, state, message, created_at, updated_at, responded_at, expires_at`

func (r *FriendRequestRepository) Create(ctx context.Context, request *domain.FriendRequest) error {
	query := `
		INSERT INTO friend_requests (id, from_user_id, to_user_id, state, message, created_at, updated_at, responded_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.GetClient().ExecContext(ctx, query,
		request.ID, request.FromUserID, request.ToUserID, string(request.State),
		nullString(request.Message), request.CreatedAt, request.UpdatedAt,
		request.RespondedAt, request.ExpiresAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, "friend_requests_pending_pair") {
			return domain.ErrFriendRequestAlreadyExists
		}
		return domain.NewDatabaseError("create_friend_request", err)
	}
	return nil
}

func (r *FriendRequestRepository) Update(ctx context.Context, request *domain.FriendRequest) error {
	query := `
		UPDATE friend_requests
		SET state = $2, updated_at = $3, responded_at = $4
		WHERE id = $1`

	result, err := r.db.GetClient().ExecContext(ctx, query,
		request.ID, string(request.State), request.UpdatedAt, request.RespondedAt,
	)
	if err != nil {
		return domain.NewDatabaseError("update_friend_request", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.NewDatabaseError("update_friend_request", err)
	}
	if affected == 0 {
		return domain.ErrFriendRequestNotFound
	}
	return nil
}

func (r *FriendRequestRepository) GetByID(ctx context.Context, id string) (*domain.FriendRequest, error) {
	query := `SELECT ` + friendRequestColumns + ` FROM friend_requests WHERE id = $1`

	request, err := scanFriendRequest(r.db.GetClient().QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrFriendRequestNotFound
	}
	if err != nil {
		return nil, domain.NewDatabaseError("get_friend_request", err)
	}
	return request, nil
}

func (r *FriendRequestRepository) FindPendingByPair(ctx context.Context, fromUserID, toUserID domain.UserID) (*domain.FriendRequest, error) {
	query := `
		SELECT ` + friendRequestColumns + `
		FROM friend_requests
		WHERE from_user_id = $1 AND to_user_id = $2 AND state = $3
		ORDER BY created_at DESC
		LIMIT 1`

	request, err := scanFriendRequest(r.db.GetClient().QueryRowContext(ctx, query,
		fromUserID, toUserID, string(domain.RequestStatePending)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewDatabaseError("find_pending_by_pair", err)
	}
	return request, nil
}

func (r *FriendRequestRepository) ListInbound(ctx context.Context, userID domain.UserID, limit, offset int) ([]*domain.FriendRequest, error) {
	query := `
		SELECT ` + friendRequestColumns + `
		FROM friend_requests
		WHERE to_user_id = $1 AND state = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	return r.list(ctx, "list_inbound_requests", query, userID, string(domain.RequestStatePending), limit, offset)
}

func (r *FriendRequestRepository) ListOutbound(ctx context.Context, userID domain.UserID, limit, offset int) ([]*domain.FriendRequest, error) {
	query := `
		SELECT ` + friendRequestColumns + `
		FROM friend_requests
		WHERE from_user_id = $1 AND state = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	return r.list(ctx, "list_outbound_requests", query, userID, string(domain.RequestStatePending), limit, offset)
}

func (r *FriendRequestRepository) CountPendingOutbound(ctx context.Context, userID domain.UserID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM friend_requests
		WHERE from_user_id = $1 AND state = $2
		  AND (expires_at IS NULL OR expires_at > now())`

	var count int
	err := r.db.GetClient().QueryRowContext(ctx, query, userID, string(domain.RequestStatePending)).Scan(&count)
	if err != nil {
		return 0, domain.NewDatabaseError("count_pending_outbound", err)
	}
	return count, nil
}

func (r *FriendRequestRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE friend_requests
		SET state = $1, updated_at = $2
		WHERE state = $3 AND expires_at <= $2`

	result, err := r.db.GetClient().ExecContext(ctx, query,
		string(domain.RequestStateExpired), now, string(domain.RequestStatePending))
	if err != nil {
		return 0, domain.NewDatabaseError("expire_stale_requests", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, domain.NewDatabaseError("expire_stale_requests", err)
	}
	return affected, nil
}

// AcceptWithFriendships persists accepted requests and both directed edges
// in one transaction so readers never observe a half-created friendship.
func (r *FriendRequestRepository) AcceptWithFriendships(ctx context.Context, requests []*domain.FriendRequest, edges []*domain.Friendship) error {
	tx, err := r.db.GetClient().BeginTx(ctx, nil)
	if err != nil {
		return domain.NewDatabaseError("begin_tx", err)
	}
	defer tx.Rollback()

	for _, request := range requests {
		upsert := `
			INSERT INTO friend_requests (id, from_user_id, to_user_id, state, message, created_at, updated_at, responded_at, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE
			SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at, responded_at = EXCLUDED.responded_at`

		if _, err := tx.ExecContext(ctx, upsert,
			request.ID, request.FromUserID, request.ToUserID, string(request.State),
			nullString(request.Message), request.CreatedAt, request.UpdatedAt,
			request.RespondedAt, request.ExpiresAt,
		); err != nil {
			return domain.NewDatabaseError("upsert_friend_request", err)
		}
	}

	for _, edge := range edges {
		insert := `
			INSERT INTO friendships (id, user_id, friend_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id, friend_id) DO UPDATE
			SET deleted_at = NULL, updated_at = EXCLUDED.updated_at`

		if _, err := tx.ExecContext(ctx, insert,
			edge.ID, edge.UserID, edge.FriendID, edge.CreatedAt, edge.UpdatedAt,
		); err != nil {
			return domain.NewDatabaseError("insert_friendship", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.NewDatabaseError("commit_tx", err)
	}
	return nil
}

func (r *FriendRequestRepository) list(ctx context.Context, operation, query string, args ...interface{}) ([]*domain.FriendRequest, error) {
	rows, err := r.db.GetClient().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.NewDatabaseError(operation, err)
	}
	defer rows.Close()

	var requests []*domain.FriendRequest
	for rows.Next() {
		request, err := scanFriendRequest(rows)
		if err != nil {
			return nil, domain.NewDatabaseError(operation, err)
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewDatabaseError(operation, err)
	}
	return requests, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFriendRequest(row rowScanner) (*domain.FriendRequest, error) {
	var request domain.FriendRequest
	var state string
	var message sql.NullString

	err := row.Scan(
		&request.ID, &request.FromUserID, &request.ToUserID, &state, &message,
		&request.CreatedAt, &request.UpdatedAt, &request.RespondedAt, &request.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	request.State = domain.RequestState(state)
	request.Message = message.String
	return &request, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
