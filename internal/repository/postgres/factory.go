package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	repo "github.com/mshami/kwikship-backend/internal/repository"
)

type Repositories struct {
	Users        repo.Users
	Wallets      repo.Wallets
	Transactions repo.Transactions
	Shipments    repo.Shipments
	ActivityLogs repo.ActivityLogs
}

func NewRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Users:        &usersRepo{pool},
		Wallets:      &walletsRepo{pool},
		Transactions: &transactionsRepo{pool},
		Shipments:    &shipmentsRepo{pool},
		ActivityLogs: &activityLogsRepo{pool},
	}
}
