package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mshami/kwikship-backend/internal/models"
	repo "github.com/mshami/kwikship-backend/internal/repository"
)

type walletsRepo struct{ pool *pgxpool.Pool }

func (r *walletsRepo) GetOrCreate(ctx context.Context, userID string, cur models.Currency) (models.Balance, error) {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO wallet_balances(user_id, currency, amount, last_updated_at)
		 VALUES($1, $2, 0, now())
		 ON CONFLICT (user_id, currency) DO NOTHING`,
		userID, cur,
	)
	if err != nil {
		return models.Balance{}, err
	}
	return r.Get(ctx, userID, cur)
}

func (r *walletsRepo) Get(ctx context.Context, userID string, cur models.Currency) (models.Balance, error) {
	var b models.Balance
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, currency, amount, last_updated_at
		   FROM wallet_balances
		  WHERE user_id=$1 AND currency=$2`,
		userID, cur,
	).Scan(&b.UserID, &b.Currency, &b.Amount, &b.LastUpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Balance{}, repo.ErrNotFound
	}
	return b, err
}

func (r *walletsRepo) All(ctx context.Context, userID string) (map[models.Currency]decimal.Decimal, error) {
	out := make(map[models.Currency]decimal.Decimal, len(models.Currencies()))
	for _, c := range models.Currencies() {
		out[c] = decimal.Zero
	}

	rows, err := r.pool.Query(ctx,
		`SELECT currency, amount FROM wallet_balances WHERE user_id=$1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var cur models.Currency
		var amt decimal.Decimal
		if err := rows.Scan(&cur, &amt); err != nil {
			return nil, err
		}
		out[cur] = amt
	}
	return out, rows.Err()
}
