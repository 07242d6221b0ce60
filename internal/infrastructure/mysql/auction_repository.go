package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"auction-marketplace/internal/domain"

	_ "github.com/go-sql-driver/mysql"
)

const auctionColumns = `id, register_id, seller_id, name, title, description, cover_image_url,
        venue_address, location, terms_and_conditions, important_information,
        bidding_start, live_start, closing, is_verified, is_active, is_closed, created_at, updated_at`

const lotItemColumns = `id, auction_id, field_id, category_id, sub_category_id, name, description,
        image_url, item_condition, estimate_bid_start_price, estimate_bid_end_price,
        additional_fees, shipping_cost, bid_interval, is_bidding_active, is_sold,
        winning_bidder_id, created_at, updated_at`

type MySQLAuctionRepository struct {
	db *sql.DB
}

func NewMySQLAuctionRepository(db *sql.DB) *MySQLAuctionRepository {
	return &MySQLAuctionRepository{db: db}
}

func (r *MySQLAuctionRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.db, fn)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAuction(row rowScanner) (*domain.Auction, error) {
	var a domain.Auction
	var description, terms, importantInfo sql.NullString
	err := row.Scan(&a.ID, &a.RegisterID, &a.SellerID, &a.Name, &a.Title, &description, &a.CoverImageURL,
		&a.VenueAddress, &a.Location, &terms, &importantInfo,
		&a.BiddingStart, &a.LiveStart, &a.Closing, &a.IsVerified, &a.IsActive, &a.IsClosed,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Description = description.String
	a.TermsAndConditions = terms.String
	a.ImportantInformation = importantInfo.String
	a.BiddingStart = a.BiddingStart.UTC()
	a.LiveStart = a.LiveStart.UTC()
	a.Closing = a.Closing.UTC()
	return &a, nil
}

func (r *MySQLAuctionRepository) queryAuctions(ctx context.Context, query string, args ...interface{}) ([]*domain.Auction, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var auctions []*domain.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, mapError(err)
		}
		auctions = append(auctions, a)
	}
	return auctions, mapError(rows.Err())
}

func (r *MySQLAuctionRepository) CreateAuction(ctx context.Context, auction *domain.Auction) error {
	query := `
        INSERT INTO auctions (register_id, seller_id, name, title, description, cover_image_url,
            venue_address, location, terms_and_conditions, important_information,
            bidding_start, live_start, closing, is_verified, is_active, is_closed, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	res, err := conn(ctx, r.db).ExecContext(ctx, query,
		auction.RegisterID, auction.SellerID, auction.Name, auction.Title, auction.Description,
		auction.CoverImageURL, auction.VenueAddress, auction.Location, auction.TermsAndConditions,
		auction.ImportantInformation, auction.BiddingStart.UTC(), auction.LiveStart.UTC(), auction.Closing.UTC(),
		auction.IsVerified, auction.IsActive, auction.IsClosed, auction.CreatedAt.UTC(), auction.UpdatedAt.UTC())
	if err != nil {
		return mapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return mapError(err)
	}
	auction.ID = id
	return nil
}

func (r *MySQLAuctionRepository) GetAuction(ctx context.Context, auctionID int64) (*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = ?`
	a, err := scanAuction(conn(ctx, r.db).QueryRowContext(ctx, query, auctionID))
	if err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("auction %d", auctionID))
	}
	return a, nil
}

func (r *MySQLAuctionRepository) UpdateAuction(ctx context.Context, auction *domain.Auction) error {
	query := `
        UPDATE auctions SET register_id = ?, name = ?, title = ?, description = ?, cover_image_url = ?,
            venue_address = ?, location = ?, terms_and_conditions = ?, important_information = ?,
            bidding_start = ?, live_start = ?, closing = ?, is_verified = ?, updated_at = ?
        WHERE id = ?
    `
	res, err := conn(ctx, r.db).ExecContext(ctx, query,
		auction.RegisterID, auction.Name, auction.Title, auction.Description, auction.CoverImageURL,
		auction.VenueAddress, auction.Location, auction.TermsAndConditions, auction.ImportantInformation,
		auction.BiddingStart.UTC(), auction.LiveStart.UTC(), auction.Closing.UTC(), auction.IsVerified,
		auction.UpdatedAt.UTC(), auction.ID)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res, fmt.Sprintf("auction %d", auction.ID))
}

func (r *MySQLAuctionRepository) DeleteAuction(ctx context.Context, auctionID int64) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM auctions WHERE id = ?`, auctionID)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res, fmt.Sprintf("auction %d", auctionID))
}

func (r *MySQLAuctionRepository) SetAuctionFlags(ctx context.Context, auctionID int64, isActive, isClosed bool, updatedAt time.Time) error {
	query := `UPDATE auctions SET is_active = ?, is_closed = ?, updated_at = ? WHERE id = ?`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, isActive, isClosed, updatedAt.UTC(), auctionID)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res, fmt.Sprintf("auction %d", auctionID))
}

func (r *MySQLAuctionRepository) ListAuctionsBySeller(ctx context.Context, sellerID int64) ([]*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE seller_id = ? ORDER BY live_start DESC, id DESC`
	return r.queryAuctions(ctx, query, sellerID)
}

func (r *MySQLAuctionRepository) ListUpcomingAuctions(ctx context.Context, now time.Time, limit int) ([]*domain.Auction, error) {
	query := `
        SELECT ` + auctionColumns + `
        FROM auctions
        WHERE is_closed = FALSE AND live_start > ?
        ORDER BY live_start ASC, id ASC
        LIMIT ?
    `
	return r.queryAuctions(ctx, query, now.UTC(), limit)
}

func (r *MySQLAuctionRepository) ListLiveAuctions(ctx context.Context, now time.Time, limit int) ([]*domain.Auction, error) {
	query := `
        SELECT ` + auctionColumns + `
        FROM auctions
        WHERE is_closed = FALSE AND live_start <= ? AND closing >= ?
        ORDER BY closing ASC, id ASC
        LIMIT ?
    `
	return r.queryAuctions(ctx, query, now.UTC(), now.UTC(), limit)
}

func (r *MySQLAuctionRepository) ListOpenAuctions(ctx context.Context) ([]*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE is_closed = FALSE ORDER BY live_start ASC, id ASC`
	return r.queryAuctions(ctx, query)
}

func scanLotItem(row rowScanner) (*domain.LotItem, error) {
	var (
		l           domain.LotItem
		description sql.NullString
		winner      sql.NullInt64
	)
	err := row.Scan(&l.ID, &l.AuctionID, &l.FieldID, &l.CategoryID, &l.SubCategoryID, &l.Name, &description,
		&l.ImageURL, &l.Condition, &l.EstimateBidStartPrice, &l.EstimateBidEndPrice,
		&l.AdditionalFees, &l.ShippingCost, &l.BidInterval, &l.IsBiddingActive, &l.IsSold,
		&winner, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.Description = description.String
	if winner.Valid {
		id := winner.Int64
		l.WinningBidderID = &id
	}
	return &l, nil
}

func (r *MySQLAuctionRepository) CreateLotItem(ctx context.Context, item *domain.LotItem) error {
	query := `
        INSERT INTO lot_items (auction_id, field_id, category_id, sub_category_id, name, description,
            image_url, item_condition, estimate_bid_start_price, estimate_bid_end_price,
            additional_fees, shipping_cost, bid_interval, is_bidding_active, is_sold,
            winning_bidder_id, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	res, err := conn(ctx, r.db).ExecContext(ctx, query,
		item.AuctionID, item.FieldID, item.CategoryID, item.SubCategoryID, item.Name, item.Description,
		item.ImageURL, item.Condition, item.EstimateBidStartPrice, item.EstimateBidEndPrice,
		item.AdditionalFees, item.ShippingCost, item.BidInterval, item.IsBiddingActive, item.IsSold,
		nullableID(item.WinningBidderID), item.CreatedAt.UTC(), item.UpdatedAt.UTC())
	if err != nil {
		return mapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return mapError(err)
	}
	item.ID = id
	return nil
}

func (r *MySQLAuctionRepository) GetLotItem(ctx context.Context, auctionID, itemID int64) (*domain.LotItem, error) {
	query := `SELECT ` + lotItemColumns + ` FROM lot_items WHERE auction_id = ? AND id = ?`
	l, err := scanLotItem(conn(ctx, r.db).QueryRowContext(ctx, query, auctionID, itemID))
	if err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("lot item %d of auction %d", itemID, auctionID))
	}
	return l, nil
}

func (r *MySQLAuctionRepository) GetLotItemForUpdate(ctx context.Context, auctionID, itemID int64) (*domain.LotItem, error) {
	if txFromContext(ctx) == nil {
		return nil, fmt.Errorf("GetLotItemForUpdate requires a transaction")
	}
	query := `SELECT ` + lotItemColumns + ` FROM lot_items WHERE auction_id = ? AND id = ? FOR UPDATE`
	l, err := scanLotItem(conn(ctx, r.db).QueryRowContext(ctx, query, auctionID, itemID))
	if err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("lot item %d of auction %d", itemID, auctionID))
	}
	return l, nil
}

func (r *MySQLAuctionRepository) ListLotItems(ctx context.Context, auctionID int64) ([]*domain.LotItem, error) {
	query := `SELECT ` + lotItemColumns + ` FROM lot_items WHERE auction_id = ? ORDER BY id ASC`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, auctionID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var items []*domain.LotItem
	for rows.Next() {
		l, err := scanLotItem(rows)
		if err != nil {
			return nil, mapError(err)
		}
		items = append(items, l)
	}
	return items, mapError(rows.Err())
}

// UpdateLotItemDetails never touches the bidding columns.
func (r *MySQLAuctionRepository) UpdateLotItemDetails(ctx context.Context, item *domain.LotItem) error {
	query := `
        UPDATE lot_items SET field_id = ?, category_id = ?, sub_category_id = ?, name = ?, description = ?,
            image_url = ?, item_condition = ?, estimate_bid_start_price = ?, estimate_bid_end_price = ?,
            additional_fees = ?, shipping_cost = ?, bid_interval = ?, updated_at = ?
        WHERE auction_id = ? AND id = ?
    `
	res, err := conn(ctx, r.db).ExecContext(ctx, query,
		item.FieldID, item.CategoryID, item.SubCategoryID, item.Name, item.Description,
		item.ImageURL, item.Condition, item.EstimateBidStartPrice, item.EstimateBidEndPrice,
		item.AdditionalFees, item.ShippingCost, item.BidInterval, item.UpdatedAt.UTC(),
		item.AuctionID, item.ID)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res, fmt.Sprintf("lot item %d of auction %d", item.ID, item.AuctionID))
}

func (r *MySQLAuctionRepository) UpdateLotItemOutcome(ctx context.Context, item *domain.LotItem) error {
	query := `
        UPDATE lot_items SET is_bidding_active = ?, is_sold = ?, winning_bidder_id = ?, updated_at = ?
        WHERE auction_id = ? AND id = ?
    `
	res, err := conn(ctx, r.db).ExecContext(ctx, query,
		item.IsBiddingActive, item.IsSold, nullableID(item.WinningBidderID), item.UpdatedAt.UTC(),
		item.AuctionID, item.ID)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res, fmt.Sprintf("lot item %d of auction %d", item.ID, item.AuctionID))
}

func (r *MySQLAuctionRepository) DeleteLotItem(ctx context.Context, auctionID, itemID int64) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM lot_items WHERE auction_id = ? AND id = ?`, auctionID, itemID)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res, fmt.Sprintf("lot item %d of auction %d", itemID, auctionID))
}

func (r *MySQLAuctionRepository) DeleteAllLotItems(ctx context.Context, auctionID int64) (int64, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM lot_items WHERE auction_id = ?`, auctionID)
	if err != nil {
		return 0, mapError(err)
	}
	n, err := res.RowsAffected()
	return n, mapError(err)
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}
