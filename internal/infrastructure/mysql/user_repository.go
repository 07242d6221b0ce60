package mysql

import (
	"context"
	"database/sql"
	"errors"

	"auction-marketplace/internal/domain"
)

// MySQLUserRepository reads the parts of user and seller profiles that
// bidding depends on. Profile management lives elsewhere.
type MySQLUserRepository struct {
	db *sql.DB
}

func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}

func (r *MySQLUserRepository) GetBidderEligibility(ctx context.Context, userID int64) (domain.BidderEligibility, error) {
	var isClientBidder bool
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT is_client_bidder FROM client_profiles WHERE user_id = ?`, userID).Scan(&isClientBidder)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BidderEligibility{}, nil
	}
	if err != nil {
		return domain.BidderEligibility{}, mapError(err)
	}
	return domain.BidderEligibility{Exists: true, IsClientBidder: isClientBidder}, nil
}

func (r *MySQLUserRepository) SellerExists(ctx context.Context, sellerID int64) (bool, error) {
	var one int
	err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT 1 FROM sellers WHERE id = ?`, sellerID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, mapError(err)
	}
	return true, nil
}
