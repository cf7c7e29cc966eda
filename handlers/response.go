package handlers

import (
	"net/http"
	"strconv"

	"ticket-ledger/internal/status"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// ledgerError translates a ledger error into an API error carrying the
// machine-readable kind, so clients never have to sniff message strings.
func ledgerError(err error) error {
	kind := status.Kind(err)
	data := map[string]any{"kind": kind}

	switch kind {
	case status.KindNotFound:
		return apis.NewNotFoundError(err.Error(), data)
	case status.KindUnauthorized:
		return apis.NewForbiddenError(err.Error(), data)
	case status.KindInsufficientFunds, status.KindInternal:
		return apis.NewApiError(http.StatusInternalServerError, err.Error(), data)
	default:
		return apis.NewBadRequestError(err.Error(), data)
	}
}

func pathID(e *core.RequestEvent, name string) (uint64, error) {
	id, err := strconv.ParseUint(e.Request.PathValue(name), 10, 64)
	if err != nil {
		return 0, apis.NewBadRequestError("Invalid "+name, err)
	}
	return id, nil
}

// amountToUnits converts a boundary decimal into ledger base units. The
// ledger accounts in whole units, so fractional or out-of-range amounts are
// rejected here and can never reach the exact-match check.
func amountToUnits(d decimal.Decimal) (int64, bool) {
	if !d.IsInteger() {
		return 0, false
	}
	bi := d.BigInt()
	if !bi.IsInt64() {
		return 0, false
	}
	return bi.Int64(), true
}
