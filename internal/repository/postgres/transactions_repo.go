package postgres

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mshami/kwikship-backend/internal/models"
	repo "github.com/mshami/kwikship-backend/internal/repository"
)

type transactionsRepo struct{ pool *pgxpool.Pool }

// Apply runs the ledger pair inside one DB transaction: conditional balance
// update first, then the transaction insert. The debit condition
// (amount >= X) is the serialization point for concurrent operations on the
// same (user, currency) row; the row lock taken by UPDATE orders them and
// the loser of a race sees the winner's balance.
func (r *transactionsRepo) Apply(ctx context.Context, txn models.Transaction) (models.Transaction, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadWrite})
	if err != nil {
		return models.Transaction{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Wallet row must exist before the conditional update so "no row
	// matched" can only mean insufficient funds.
	if _, err := tx.Exec(ctx,
		`INSERT INTO wallet_balances(user_id, currency, amount, last_updated_at)
		 VALUES($1, $2, 0, now())
		 ON CONFLICT (user_id, currency) DO NOTHING`,
		txn.UserID, txn.Currency,
	); err != nil {
		return models.Transaction{}, err
	}

	var after decimal.Decimal
	if txn.Type.IsCredit() {
		err = tx.QueryRow(ctx,
			`UPDATE wallet_balances
			    SET amount = amount + $3, last_updated_at = now()
			  WHERE user_id = $1 AND currency = $2
			  RETURNING amount`,
			txn.UserID, txn.Currency, txn.Amount,
		).Scan(&after)
	} else {
		err = tx.QueryRow(ctx,
			`UPDATE wallet_balances
			    SET amount = amount - $3, last_updated_at = now()
			  WHERE user_id = $1 AND currency = $2 AND amount >= $3
			  RETURNING amount`,
			txn.UserID, txn.Currency, txn.Amount,
		).Scan(&after)
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Transaction{}, repo.ErrInsufficientFunds
		}
	}
	if err != nil {
		return models.Transaction{}, err
	}

	if txn.Type.IsCredit() {
		txn.BalanceBefore = after.Sub(txn.Amount)
	} else {
		txn.BalanceBefore = after.Add(txn.Amount)
	}
	txn.BalanceAfter = after

	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	if txn.Reference == "" {
		txn.Reference = models.NewTransactionReference()
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO transactions(
		   id, user_id, type, amount, currency, status, method, reference,
		   related_shipment, description, balance_before, balance_after,
		   processed_by, processed_at
		 ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		 RETURNING created_at`,
		txn.ID, txn.UserID, txn.Type, txn.Amount, txn.Currency, txn.Status,
		txn.Method, txn.Reference, txn.RelatedShipmentID, txn.Description,
		txn.BalanceBefore, txn.BalanceAfter, txn.ProcessedBy, txn.ProcessedAt,
	).Scan(&txn.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "uniq_refund_per_shipment" {
			return models.Transaction{}, repo.ErrRefundExists
		}
		return models.Transaction{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Transaction{}, err
	}
	return txn, nil
}

const txnColumns = `id, user_id, type, amount, currency, status, method, reference,
related_shipment, description, balance_before, balance_after, processed_by, processed_at, created_at`

func scanTxn(row pgx.Row) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Currency, &t.Status,
		&t.Method, &t.Reference, &t.RelatedShipmentID, &t.Description,
		&t.BalanceBefore, &t.BalanceAfter, &t.ProcessedBy, &t.ProcessedAt, &t.CreatedAt)
	return t, err
}

func (r *transactionsRepo) GetByID(ctx context.Context, id string) (models.Transaction, error) {
	t, err := scanTxn(r.pool.QueryRow(ctx,
		`SELECT `+txnColumns+` FROM transactions WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Transaction{}, repo.ErrNotFound
	}
	return t, err
}

func buildTxnFilter(f repo.TransactionFilter) (string, []any) {
	where := " WHERE 1=1"
	args := []any{}
	add := func(cond string, v any) {
		args = append(args, v)
		where += " AND " + cond + "$" + strconv.Itoa(len(args))
	}
	if f.UserID != "" {
		add("user_id=", f.UserID)
	}
	if f.Type != "" {
		add("type=", f.Type)
	}
	if f.Status != "" {
		add("status=", f.Status)
	}
	if f.Currency != "" {
		add("currency=", f.Currency)
	}
	if f.From != nil {
		add("created_at>=", *f.From)
	}
	if f.To != nil {
		add("created_at<=", *f.To)
	}
	return where, args
}

func (r *transactionsRepo) List(ctx context.Context, f repo.TransactionFilter) ([]models.Transaction, error) {
	where, args := buildTxnFilter(f)
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, f.Offset)
	q := `SELECT ` + txnColumns + ` FROM transactions` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Transaction{}
	for rows.Next() {
		t, err := scanTxn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *transactionsRepo) Count(ctx context.Context, f repo.TransactionFilter) (int, error) {
	where, args := buildTxnFilter(f)
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM transactions`+where, args...).Scan(&n)
	return n, err
}

func (r *transactionsRepo) SumCompleted(ctx context.Context, typ models.TransactionType, since time.Time) (map[models.Currency]decimal.Decimal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT currency, COALESCE(sum(amount), 0)
		   FROM transactions
		  WHERE type=$1 AND status='completed' AND created_at >= $2
		  GROUP BY currency`,
		typ, since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[models.Currency]decimal.Decimal, len(models.Currencies()))
	for _, c := range models.Currencies() {
		out[c] = decimal.Zero
	}
	for rows.Next() {
		var cur models.Currency
		var sum decimal.Decimal
		if err := rows.Scan(&cur, &sum); err != nil {
			return nil, err
		}
		out[cur] = sum
	}
	return out, rows.Err()
}
