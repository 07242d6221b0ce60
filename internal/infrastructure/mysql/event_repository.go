package mysql

import (
	"context"
	"database/sql"
	"time"

	"auction-marketplace/internal/domain"
)

type MySQLEventRepository struct {
	db *sql.DB
}

func NewMySQLEventRepository(db *sql.DB) *MySQLEventRepository {
	return &MySQLEventRepository{db: db}
}

func (r *MySQLEventRepository) SaveBidEvent(ctx context.Context, event *domain.BidEvent) error {
	query := `
        INSERT INTO bid_events (event_type, auction_id, item_id, user_id, amount, reason, occurred_at, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		string(event.Type), event.AuctionID, event.ItemID, event.UserID, event.Amount,
		truncate(event.Reason, 512), event.Timestamp.UTC(), time.Now().UTC())
	return mapError(err)
}

func (r *MySQLEventRepository) ListEvents(ctx context.Context, auctionID int64) ([]*domain.BidEvent, error) {
	query := `
        SELECT event_type, auction_id, item_id, user_id, amount, reason, occurred_at
        FROM bid_events
        WHERE auction_id = ?
        ORDER BY occurred_at ASC, id ASC
    `
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, auctionID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var events []*domain.BidEvent
	for rows.Next() {
		var event domain.BidEvent
		var eventType string

		err := rows.Scan(&eventType, &event.AuctionID, &event.ItemID, &event.UserID,
			&event.Amount, &event.Reason, &event.Timestamp)
		if err != nil {
			return nil, mapError(err)
		}

		event.Type = domain.BidEventType(eventType)
		event.Timestamp = event.Timestamp.UTC()
		events = append(events, &event)
	}
	return events, mapError(rows.Err())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
