package mysql

import (
	"context"
	"database/sql"
	"errors"

	"auction-marketplace/internal/domain"
)

const bidColumns = `id, auction_id, item_id, user_id, amount, created_at`

type MySQLBidRepository struct {
	db *sql.DB
}

func NewMySQLBidRepository(db *sql.DB) *MySQLBidRepository {
	return &MySQLBidRepository{db: db}
}

func scanBid(row rowScanner) (*domain.Bid, error) {
	var b domain.Bid
	if err := row.Scan(&b.ID, &b.AuctionID, &b.ItemID, &b.UserID, &b.Amount, &b.Timestamp); err != nil {
		return nil, err
	}
	b.Timestamp = b.Timestamp.UTC()
	return &b, nil
}

// InsertBid relies on the (auction_id, item_id) foreign key to reject bids
// for lots that do not exist.
func (r *MySQLBidRepository) InsertBid(ctx context.Context, bid *domain.Bid) error {
	query := `INSERT INTO bids (auction_id, item_id, user_id, amount, created_at) VALUES (?, ?, ?, ?, ?)`
	res, err := conn(ctx, r.db).ExecContext(ctx, query,
		bid.AuctionID, bid.ItemID, bid.UserID, bid.Amount, bid.Timestamp.UTC())
	if err != nil {
		return mapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return mapError(err)
	}
	bid.ID = id
	return nil
}

func (r *MySQLBidRepository) queryOne(ctx context.Context, query string, args ...interface{}) (*domain.Bid, error) {
	b, err := scanBid(conn(ctx, r.db).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	return b, nil
}

func (r *MySQLBidRepository) LastBid(ctx context.Context, auctionID, itemID int64) (*domain.Bid, error) {
	query := `
        SELECT ` + bidColumns + ` FROM bids
        WHERE auction_id = ? AND item_id = ?
        ORDER BY created_at DESC, id DESC
        LIMIT 1
    `
	return r.queryOne(ctx, query, auctionID, itemID)
}

func (r *MySQLBidRepository) HighestBid(ctx context.Context, auctionID, itemID int64) (*domain.Bid, error) {
	query := `
        SELECT ` + bidColumns + ` FROM bids
        WHERE auction_id = ? AND item_id = ?
        ORDER BY amount DESC, created_at ASC, id ASC
        LIMIT 1
    `
	return r.queryOne(ctx, query, auctionID, itemID)
}

func (r *MySQLBidRepository) LastUserBid(ctx context.Context, auctionID, itemID, userID int64) (*domain.Bid, error) {
	query := `
        SELECT ` + bidColumns + ` FROM bids
        WHERE auction_id = ? AND item_id = ? AND user_id = ?
        ORDER BY created_at DESC, id DESC
        LIMIT 1
    `
	return r.queryOne(ctx, query, auctionID, itemID, userID)
}

func (r *MySQLBidRepository) ListBids(ctx context.Context, auctionID, itemID int64) ([]*domain.Bid, error) {
	query := `
        SELECT ` + bidColumns + ` FROM bids
        WHERE auction_id = ? AND item_id = ?
        ORDER BY created_at ASC, id ASC
    `
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, auctionID, itemID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, mapError(err)
		}
		bids = append(bids, b)
	}
	return bids, mapError(rows.Err())
}
