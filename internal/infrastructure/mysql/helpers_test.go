package mysql

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

const defaultTestDSN = "auction_user:auction_pass@tcp(localhost:3306)/auction_test?parseTime=true&loc=UTC&multiStatements=true"

// newTestDB connects to TEST_MYSQL_DSN, migrates it and empties every table.
// The test is skipped when no server is reachable.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		dsn = defaultTestDSN
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open mysql: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		t.Skipf("skipping MySQL integration tests: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := Migrate(dsn); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}
	truncateAll(t, db)
	return db
}

func truncateAll(t *testing.T, db *sql.DB) {
	t.Helper()
	stmts := []string{
		"SET FOREIGN_KEY_CHECKS = 0",
		"TRUNCATE TABLE bid_events",
		"TRUNCATE TABLE scheduled_jobs",
		"TRUNCATE TABLE bids",
		"TRUNCATE TABLE lot_items",
		"TRUNCATE TABLE auctions",
		"TRUNCATE TABLE client_profiles",
		"TRUNCATE TABLE sellers",
		"SET FOREIGN_KEY_CHECKS = 1",
	}
	conn, err := db.Conn(context.Background())
	if err != nil {
		t.Fatalf("failed to get connection: %v", err)
	}
	defer conn.Close()
	for _, stmt := range stmts {
		if _, err := conn.ExecContext(context.Background(), stmt); err != nil {
			t.Fatalf("%s: %v", stmt, err)
		}
	}
}

func insertSeller(t *testing.T, db *sql.DB, name string) int64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO sellers (name) VALUES (?)`, name)
	if err != nil {
		t.Fatalf("insert seller: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

func insertClient(t *testing.T, db *sql.DB, userID int64, isClientBidder bool) {
	t.Helper()
	if _, err := db.Exec(`INSERT INTO client_profiles (user_id, is_client_bidder) VALUES (?, ?)`, userID, isClientBidder); err != nil {
		t.Fatalf("insert client profile: %v", err)
	}
}
