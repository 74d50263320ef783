package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mshami/kwikship-backend/internal/models"
	repo "github.com/mshami/kwikship-backend/internal/repository"
)

type shipmentsRepo struct{ pool *pgxpool.Pool }

func (r *shipmentsRepo) Create(ctx context.Context, s models.Shipment) (models.Shipment, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.TrackingNumber == "" {
		s.TrackingNumber = models.NewTrackingNumber()
	}
	if s.Status == "" {
		s.Status = models.ShipmentPending
	}

	sender, _ := json.Marshal(s.Sender)
	receiver, _ := json.Marshal(s.Receiver)
	pkg, _ := json.Marshal(s.Package)
	svc, _ := json.Marshal(s.Service)

	err := r.pool.QueryRow(ctx,
		`INSERT INTO shipments(
		   id, tracking_number, user_id, sender, receiver, package, service,
		   cost_amount, cost_currency, payment_method, is_paid, status, notes,
		   estimated_delivery
		 ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		 RETURNING created_at, updated_at`,
		s.ID, s.TrackingNumber, s.UserID, sender, receiver, pkg, svc,
		s.Cost.Amount, s.Cost.Currency, s.Cost.PaymentMethod, s.Cost.IsPaid,
		s.Status, s.Notes, s.EstimatedDelivery,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return models.Shipment{}, err
	}

	// Seed the history with the initial status.
	ev := models.StatusEvent{Status: s.Status, Timestamp: s.CreatedAt}
	if _, err := r.pool.Exec(ctx,
		`INSERT INTO shipment_status_history(shipment_id, status, note, location, updated_by)
		 VALUES($1,$2,$3,$4,$5)`,
		s.ID, ev.Status, ev.Note, ev.Location, ev.UpdatedBy,
	); err != nil {
		return models.Shipment{}, err
	}
	s.StatusHistory = []models.StatusEvent{ev}
	return s, nil
}

const shipmentColumns = `id, tracking_number, user_id, sender, receiver, package, service,
cost_amount, cost_currency, payment_method, is_paid, status, notes,
estimated_delivery, actual_delivery, created_at, updated_at`

func scanShipment(row pgx.Row) (models.Shipment, error) {
	var s models.Shipment
	var sender, receiver, pkg, svc []byte
	err := row.Scan(&s.ID, &s.TrackingNumber, &s.UserID, &sender, &receiver, &pkg, &svc,
		&s.Cost.Amount, &s.Cost.Currency, &s.Cost.PaymentMethod, &s.Cost.IsPaid,
		&s.Status, &s.Notes, &s.EstimatedDelivery, &s.ActualDelivery,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return models.Shipment{}, err
	}
	_ = json.Unmarshal(sender, &s.Sender)
	_ = json.Unmarshal(receiver, &s.Receiver)
	_ = json.Unmarshal(pkg, &s.Package)
	_ = json.Unmarshal(svc, &s.Service)
	return s, nil
}

func (r *shipmentsRepo) history(ctx context.Context, shipmentID string) ([]models.StatusEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT status, note, location, updated_by, created_at
		   FROM shipment_status_history
		  WHERE shipment_id=$1
		  ORDER BY created_at, id`,
		shipmentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.StatusEvent
	for rows.Next() {
		var ev models.StatusEvent
		if err := rows.Scan(&ev.Status, &ev.Note, &ev.Location, &ev.UpdatedBy, &ev.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (r *shipmentsRepo) getBy(ctx context.Context, cond string, arg any) (models.Shipment, error) {
	s, err := scanShipment(r.pool.QueryRow(ctx,
		`SELECT `+shipmentColumns+` FROM shipments WHERE `+cond, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Shipment{}, repo.ErrNotFound
	}
	if err != nil {
		return models.Shipment{}, err
	}
	s.StatusHistory, err = r.history(ctx, s.ID)
	return s, err
}

func (r *shipmentsRepo) GetByID(ctx context.Context, id string) (models.Shipment, error) {
	return r.getBy(ctx, `id=$1`, id)
}

func (r *shipmentsRepo) GetByTrackingNumber(ctx context.Context, tn string) (models.Shipment, error) {
	return r.getBy(ctx, `tracking_number=$1`, tn)
}

func (r *shipmentsRepo) List(ctx context.Context, f repo.ShipmentFilter) ([]models.Shipment, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+shipmentColumns+` FROM shipments
		  WHERE ($1 = '' OR user_id::text = $1)
		    AND ($2 = '' OR status = $2)
		  ORDER BY created_at DESC
		  LIMIT $3 OFFSET $4`,
		f.UserID, string(f.Status), limit, f.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Shipment{}
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *shipmentsRepo) Count(ctx context.Context, f repo.ShipmentFilter) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM shipments
		  WHERE ($1 = '' OR user_id::text = $1)
		    AND ($2 = '' OR status = $2)`,
		f.UserID, string(f.Status),
	).Scan(&n)
	return n, err
}

func (r *shipmentsRepo) CountByStatus(ctx context.Context) (map[models.ShipmentStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, count(*) FROM shipments GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[models.ShipmentStatus]int{}
	for rows.Next() {
		var st models.ShipmentStatus
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		out[st] = n
	}
	return out, rows.Err()
}

func (r *shipmentsRepo) SetPaid(ctx context.Context, id string, paid bool) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE shipments SET is_paid=$2, updated_at=now() WHERE id=$1`, id, paid)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *shipmentsRepo) UpdateStatus(ctx context.Context, id string, status models.ShipmentStatus, ev models.StatusEvent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	q := `UPDATE shipments SET status=$2, updated_at=now() WHERE id=$1`
	if status == models.ShipmentDelivered {
		q = `UPDATE shipments SET status=$2, actual_delivery=now(), updated_at=now() WHERE id=$1`
	}
	ct, err := tx.Exec(ctx, q, id, status)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO shipment_status_history(shipment_id, status, note, location, updated_by)
		 VALUES($1,$2,$3,$4,$5)`,
		id, status, ev.Note, ev.Location, ev.UpdatedBy,
	); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *shipmentsRepo) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM shipments WHERE id=$1`, id)
	return err
}
