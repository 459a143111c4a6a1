package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/MindFlowInteractive/quest-social-api/services/social-service/internal/domain"
	"github.com/MindFlowInteractive/quest-social-api/shared/postgres"
	"github.com/lib/pq"
)

type ActivityEventRepository struct {
	db *postgres.Postgres
}

func NewActivityEventRepository(db *postgres.Postgres) domain.ActivityEventRepository {
	return &ActivityEventRepository{db: db}
}

const activityColumns = `id, actor_user_id, event_type, payload, visibility, created_at, deleted_at`

func (r *ActivityEventRepository) Create(ctx context.Context, event *domain.ActivityEvent) error {
	query := `
		INSERT INTO activity_events (id, actor_user_id, event_type, payload, visibility, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	payload := event.Payload
	if payload == nil {
		payload = json.RawMessage(`{}`)
	}

	_, err := r.db.GetClient().ExecContext(ctx, query,
		event.ID, event.ActorUserID, string(event.EventType), []byte(payload),
		string(event.Visibility), event.CreatedAt,
	)
	if err != nil {
		return domain.NewDatabaseError("create_activity_event", err)
	}
	return nil
}

func (r *ActivityEventRepository) GetByID(ctx context.Context, id string) (*domain.ActivityEvent, error) {
	query := `SELECT ` + activityColumns + ` FROM activity_events WHERE id = $1`

	event, err := scanActivityEvent(r.db.GetClient().QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrActivityEventNotFound
	}
	if err != nil {
		return nil, domain.NewDatabaseError("get_activity_event", err)
	}
	return event, nil
}

func (r *ActivityEventRepository) SoftDelete(ctx context.Context, id string, actorUserID domain.UserID) error {
	query := `
		UPDATE activity_events
		SET deleted_at = now()
		WHERE id = $1 AND actor_user_id = $2 AND deleted_at IS NULL`

	result, err := r.db.GetClient().ExecContext(ctx, query, id, actorUserID)
	if err != nil {
		return domain.NewDatabaseError("soft_delete_activity_event", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.NewDatabaseError("soft_delete_activity_event", err)
	}
	if affected == 0 {
		return domain.ErrActivityEventNotFound
	}
	return nil
}

func (r *ActivityEventRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.ActivityEvent, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + activityColumns + ` FROM activity_events WHERE id = ANY($1)`

	return r.list(ctx, "list_by_ids", query, pq.Array(ids))
}

func (r *ActivityEventRepository) ListByActor(ctx context.Context, actorUserID domain.UserID, limit, offset int) ([]*domain.ActivityEvent, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activity_events
		WHERE actor_user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	return r.list(ctx, "list_by_actor", query, actorUserID, limit, offset)
}

func (r *ActivityEventRepository) ListRecentByActors(ctx context.Context, actorIDs []domain.UserID, limit int) ([]*domain.ActivityEvent, error) {
	if len(actorIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + activityColumns + `
		FROM activity_events
		WHERE actor_user_id = ANY($1) AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2`

	return r.list(ctx, "list_recent_by_actors", query, pq.Array(actorIDs), limit)
}

func (r *ActivityEventRepository) CountByActor(ctx context.Context, actorUserID domain.UserID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM activity_events
		WHERE actor_user_id = $1 AND deleted_at IS NULL`

	var count int
	if err := r.db.GetClient().QueryRowContext(ctx, query, actorUserID).Scan(&count); err != nil {
		return 0, domain.NewDatabaseError("count_by_actor", err)
	}
	return count, nil
}

func (r *ActivityEventRepository) list(ctx context.Context, operation, query string, args ...interface{}) ([]*domain.ActivityEvent, error) {
	rows, err := r.db.GetClient().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.NewDatabaseError(operation, err)
	}
	defer rows.Close()

	var events []*domain.ActivityEvent
	for rows.Next() {
		event, err := scanActivityEvent(rows)
		if err != nil {
			return nil, domain.NewDatabaseError(operation, err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewDatabaseError(operation, err)
	}
	return events, nil
}

func scanActivityEvent(row rowScanner) (*domain.ActivityEvent, error) {
	var event domain.ActivityEvent
	var eventType, visibility string
	var payload []byte

	err := row.Scan(
		&event.ID, &event.ActorUserID, &eventType, &payload, &visibility,
		&event.CreatedAt, &event.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	event.EventType = domain.ActivityEventType(eventType)
	event.Visibility = domain.PrivacyLevel(visibility)
	event.Payload = json.RawMessage(payload)
	return &event, nil
}
