package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mshami/kwikship-backend/internal/metrics"
	"github.com/mshami/kwikship-backend/internal/models"
	"github.com/mshami/kwikship-backend/internal/notify"
	repo "github.com/mshami/kwikship-backend/internal/repository"
	"github.com/mshami/kwikship-backend/internal/worker"
)

// ShipmentService orchestrates the shipment payment state machine. It owns
// no balance data; wallet money only moves through the LedgerService it
// holds. cost.isPaid is flipped in exactly two places: after a successful
// payment debit on create, and after a successful refund credit on cancel.
type ShipmentService struct {
	shp    repo.Shipments
	ledger *LedgerService
	log    repo.ActivityLogs
	wp     *worker.Pool
	nt     notify.Notifier
}

func NewShipmentService(shp repo.Shipments, ledger *LedgerService, log repo.ActivityLogs, wp *worker.Pool, nt notify.Notifier) *ShipmentService {
	if nt == nil {
		nt = notify.Nop{}
	}
	return &ShipmentService{shp: shp, ledger: ledger, log: log, wp: wp, nt: nt}
}

func validateNewShipment(s models.Shipment) error {
	if !s.Cost.Amount.IsPositive() {
		return fmt.Errorf("%w: cost amount must be positive", ErrBadRequest)
	}
	if !s.Cost.Currency.Valid() {
		return fmt.Errorf("%w: currency %q", ErrBadRequest, s.Cost.Currency)
	}
	switch s.Cost.PaymentMethod {
	case models.MethodWallet, models.MethodCash, models.MethodCard:
	default:
		return fmt.Errorf("%w: payment method %q", ErrBadRequest, s.Cost.PaymentMethod)
	}
	return nil
}

// Create persists the shipment and, for wallet payment, settles it
// synchronously. Creation and payment are one unit: if the debit fails the
// shipment row is deleted and the ledger error is returned. Cash/card
// shipments are left unpaid and settled out of band.
func (s *ShipmentService) Create(ctx context.Context, shipment models.Shipment) (models.Shipment, error) {
	if err := validateNewShipment(shipment); err != nil {
		return models.Shipment{}, err
	}
	shipment.Cost.IsPaid = false
	shipment.Status = models.ShipmentPending

	created, err := s.shp.Create(ctx, shipment)
	if err != nil {
		return models.Shipment{}, err
	}

	if created.Cost.PaymentMethod == models.MethodWallet {
		sid := created.ID
		_, err := s.ledger.Debit(ctx, LedgerOp{
			UserID:            created.UserID,
			Currency:          created.Cost.Currency,
			Amount:            created.Cost.Amount,
			Type:              models.TxnPayment,
			Method:            models.MethodWallet,
			RelatedShipmentID: &sid,
			Description:       fmt.Sprintf("Payment for shipment %s", created.TrackingNumber),
		})
		if err != nil {
			if derr := s.shp.Delete(ctx, created.ID); derr != nil {
				slog.Error("rollback shipment after failed payment", "shipment", created.ID, "err", derr)
			}
			return models.Shipment{}, err
		}
		if err := s.shp.SetPaid(ctx, created.ID, true); err != nil {
			return models.Shipment{}, err
		}
		created.Cost.IsPaid = true
	}
	metrics.ShipmentsCreated.Inc()

	s.audit(created.UserID, "create-shipment", "shipment",
		fmt.Sprintf("Created shipment %s", created.TrackingNumber), created.ID)
	s.publish(notify.Event{Name: notify.EventNewShipment, UserID: created.UserID, Payload: created})

	return created, nil
}

func (s *ShipmentService) Get(ctx context.Context, id, requesterID, requesterRole string) (models.Shipment, error) {
	sh, err := s.shp.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return models.Shipment{}, ErrNotFound
	}
	if err != nil {
		return models.Shipment{}, err
	}
	if sh.UserID != requesterID && !models.IsAdminRole(requesterRole) {
		return models.Shipment{}, ErrForbidden
	}
	return sh, nil
}

// Track is the public lookup; the handler strips owner-only fields.
func (s *ShipmentService) Track(ctx context.Context, trackingNumber string) (models.Shipment, error) {
	sh, err := s.shp.GetByTrackingNumber(ctx, trackingNumber)
	if errors.Is(err, repo.ErrNotFound) {
		return models.Shipment{}, ErrNotFound
	}
	return sh, err
}

func (s *ShipmentService) List(ctx context.Context, f repo.ShipmentFilter) ([]models.Shipment, int, error) {
	out, err := s.shp.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.shp.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Cancel is the user-facing cancellation: ownership check, then the
// cancelled transition.
func (s *ShipmentService) Cancel(ctx context.Context, id, requesterID string) (models.Shipment, error) {
	sh, err := s.shp.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return models.Shipment{}, ErrNotFound
	}
	if err != nil {
		return models.Shipment{}, err
	}
	if sh.UserID != requesterID {
		return models.Shipment{}, ErrForbidden
	}
	return s.transition(ctx, sh, models.ShipmentCancelled, "Cancelled by user", "", &requesterID)
}

// UpdateStatus is the admin transition entry point. The status graph is
// deliberately permissive: any non-terminal status may move to any other;
// only the terminal guard is enforced.
func (s *ShipmentService) UpdateStatus(ctx context.Context, id string, newStatus models.ShipmentStatus, note, location string, actorID string) (models.Shipment, error) {
	if !newStatus.Valid() {
		return models.Shipment{}, fmt.Errorf("%w: status %q", ErrBadRequest, newStatus)
	}
	sh, err := s.shp.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return models.Shipment{}, ErrNotFound
	}
	if err != nil {
		return models.Shipment{}, err
	}
	return s.transition(ctx, sh, newStatus, note, location, &actorID)
}

func (s *ShipmentService) transition(ctx context.Context, sh models.Shipment, newStatus models.ShipmentStatus, note, location string, actor *string) (models.Shipment, error) {
	if sh.Status.Terminal() {
		return models.Shipment{}, fmt.Errorf("%w: %s", ErrTerminalStatus, sh.Status)
	}

	// Refund before flipping status: if the refund fails the shipment stays
	// cancellable and the caller can retry the whole transition.
	if newStatus == models.ShipmentCancelled {
		if err := s.refund(ctx, &sh); err != nil {
			return models.Shipment{}, err
		}
	}

	ev := models.StatusEvent{Status: newStatus, Note: note, Location: location, UpdatedBy: actor}
	if err := s.shp.UpdateStatus(ctx, sh.ID, newStatus, ev); err != nil {
		return models.Shipment{}, err
	}

	updated, err := s.shp.GetByID(ctx, sh.ID)
	if err != nil {
		return models.Shipment{}, err
	}

	who := ""
	if actor != nil {
		who = *actor
	}
	s.audit(who, "update-shipment-status", "shipment",
		fmt.Sprintf("Shipment %s status -> %s", sh.TrackingNumber, newStatus), sh.ID)
	s.publish(notify.Event{Name: notify.EventShipmentUpdate, UserID: sh.UserID, Payload: updated})

	return updated, nil
}

// refund compensates a wallet payment. The transactions table carries a
// uniqueness rule of one refund per shipment, so a second cancellation
// racing this one loses at the storage layer, not on a stale isPaid read.
func (s *ShipmentService) refund(ctx context.Context, sh *models.Shipment) error {
	if !sh.Cost.IsPaid || sh.Cost.PaymentMethod != models.MethodWallet {
		return nil
	}
	sid := sh.ID
	_, err := s.ledger.Credit(ctx, LedgerOp{
		UserID:            sh.UserID,
		Currency:          sh.Cost.Currency,
		Amount:            sh.Cost.Amount,
		Type:              models.TxnRefund,
		Method:            models.MethodWallet,
		RelatedShipmentID: &sid,
		Description:       fmt.Sprintf("Refund for cancelled shipment %s", sh.TrackingNumber),
	})
	if errors.Is(err, repo.ErrRefundExists) {
		return ErrAlreadyRefunded
	}
	if err != nil {
		return err
	}
	if err := s.shp.SetPaid(ctx, sh.ID, false); err != nil {
		return err
	}
	sh.Cost.IsPaid = false
	return nil
}

func (s *ShipmentService) audit(userID, action, category, description, targetID string) {
	var uid *string
	if userID != "" {
		uid = &userID
	}
	tid := targetID
	_ = s.log.Create(context.Background(), models.ActivityLog{
		UserID:      uid,
		Action:      action,
		Category:    category,
		Description: description,
		TargetID:    &tid,
		TargetModel: "Shipment",
	})
}

func (s *ShipmentService) publish(ev notify.Event) {
	if s.wp == nil {
		s.nt.Publish(ev)
		return
	}
	s.wp.Submit(func() { s.nt.Publish(ev) })
}
