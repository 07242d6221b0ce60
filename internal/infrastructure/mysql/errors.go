package mysql

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"auction-marketplace/internal/domain"

	mysqldrv "github.com/go-sql-driver/mysql"
)

const (
	erTooManyConnections = 1040
	erLockWaitTimeout    = 1205
	erLockDeadlock       = 1213
	erNoReferencedRow    = 1452
)

// mapError translates driver failures into domain errors. Connection level
// problems become ErrStorageUnavailable, broken references ErrNotFound.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrStorageUnavailable) || errors.Is(err, domain.ErrNotFound) {
		return err
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, mysqldrv.ErrInvalidConn) {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}

	var myErr *mysqldrv.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case erTooManyConnections, erLockWaitTimeout, erLockDeadlock:
			return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
		case erNoReferencedRow:
			return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
		}
	}
	return err
}

func notFoundOr(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return mapError(err)
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}
