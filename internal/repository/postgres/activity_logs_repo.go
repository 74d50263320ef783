package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mshami/kwikship-backend/internal/models"
)

type activityLogsRepo struct{ pool *pgxpool.Pool }

func (r *activityLogsRepo) Create(ctx context.Context, l models.ActivityLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO activity_logs(id, user_id, action, category, description, target_id, target_model)
		 VALUES($1,$2,$3,$4,$5,$6,$7)`,
		l.ID, l.UserID, l.Action, l.Category, l.Description, l.TargetID, l.TargetModel,
	)
	return err
}

func (r *activityLogsRepo) List(ctx context.Context, action, category, userID string, limit, offset int) ([]models.ActivityLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, action, category, description, target_id, target_model, created_at
		   FROM activity_logs
		  WHERE ($1 = '' OR action = $1)
		    AND ($2 = '' OR category = $2)
		    AND ($3 = '' OR user_id::text = $3)
		  ORDER BY created_at DESC
		  LIMIT $4 OFFSET $5`,
		action, category, userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.ActivityLog{}
	for rows.Next() {
		var l models.ActivityLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Action, &l.Category, &l.Description,
			&l.TargetID, &l.TargetModel, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
