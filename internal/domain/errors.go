package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrBiddingClosed      = errors.New("bidding closed")
	ErrNotEligible        = errors.New("user is not allowed to bid")
	ErrBidTooLow          = errors.New("bid too low")
	ErrAlreadyFinalized   = errors.New("lot already finalized")
	ErrStorageUnavailable = errors.New("storage unavailable")

	ErrInvalidSchedule = errors.New("invalid auction schedule")
	ErrInvalidLotItem  = errors.New("invalid lot item")
	ErrInvalidAmount   = errors.New("invalid bid amount")
	ErrBadRequest      = errors.New("bad request")
	ErrNotDue          = errors.New("auction cannot change state at this time")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
)

// BidTooLowError carries the floor the rejected amount was compared against.
type BidTooLowError struct {
	Amount decimal.Decimal
	Floor  decimal.Decimal
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid amount %s is below the minimum of %s", e.Amount.String(), e.Floor.String())
}

func (e *BidTooLowError) Is(target error) bool {
	return target == ErrBidTooLow
}

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrStorageUnavailable, "storage_unavailable"},
	{ErrNotFound, "not_found"},
	{ErrBiddingClosed, "bidding_closed"},
	{ErrNotEligible, "not_eligible"},
	{ErrBidTooLow, "bid_too_low"},
	{ErrAlreadyFinalized, "already_finalized"},
	{ErrInvalidSchedule, "invalid_schedule"},
	{ErrInvalidLotItem, "invalid_lot_item"},
	{ErrInvalidAmount, "invalid_amount"},
	{ErrNotDue, "not_due"},
	{ErrBadRequest, "bad_request"},
	{ErrUnauthorized, "unauthorized"},
	{ErrForbidden, "forbidden"},
}

// ErrorCode returns the stable client-facing code for err, or "internal".
func ErrorCode(err error) string {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal"
}
