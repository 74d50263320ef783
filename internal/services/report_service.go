package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mshami/kwikship-backend/internal/models"
	repo "github.com/mshami/kwikship-backend/internal/repository"
)

// ReportService backs the admin dashboard. Read-only: it never touches the
// ledger write path.
type ReportService struct {
	shp repo.Shipments
	trx repo.Transactions
	log repo.ActivityLogs
}

func NewReportService(shp repo.Shipments, trx repo.Transactions, log repo.ActivityLogs) *ReportService {
	return &ReportService{shp: shp, trx: trx, log: log}
}

type DashboardStats struct {
	Shipments struct {
		Total     int `json:"total"`
		Pending   int `json:"pending"`
		InTransit int `json:"in_transit"`
		Delivered int `json:"delivered"`
		Cancelled int `json:"cancelled"`
	} `json:"shipments"`
	Revenue          map[models.Currency]decimal.Decimal `json:"revenue"`
	RecentActivities []models.ActivityLog                `json:"recent_activities"`
}

// Stats aggregates over the given trailing window. Revenue is the sum of
// completed payment transactions per currency.
func (s *ReportService) Stats(ctx context.Context, periodDays int) (DashboardStats, error) {
	if periodDays <= 0 {
		periodDays = 30
	}
	since := time.Now().AddDate(0, 0, -periodDays)

	var out DashboardStats

	counts, err := s.shp.CountByStatus(ctx)
	if err != nil {
		return out, err
	}
	for st, n := range counts {
		out.Shipments.Total += n
		switch st {
		case models.ShipmentPending:
			out.Shipments.Pending = n
		case models.ShipmentInTransit:
			out.Shipments.InTransit = n
		case models.ShipmentDelivered:
			out.Shipments.Delivered = n
		case models.ShipmentCancelled:
			out.Shipments.Cancelled = n
		}
	}

	out.Revenue, err = s.trx.SumCompleted(ctx, models.TxnPayment, since)
	if err != nil {
		return out, err
	}

	out.RecentActivities, err = s.log.List(ctx, "", "", "", 10, 0)
	if err != nil {
		return out, err
	}
	return out, nil
}

func (s *ReportService) ActivityLogs(ctx context.Context, action, category, userID string, limit, offset int) ([]models.ActivityLog, error) {
	return s.log.List(ctx, action, category, userID, limit, offset)
}
