package status

import "errors"

var (
	ErrEventNotFound  = errors.New("ledger: event not found")
	ErrTicketNotFound = errors.New("ledger: ticket not found")

	ErrNotOrganizer   = errors.New("ledger: caller is not the event organizer")
	ErrNotTicketOwner = errors.New("ledger: caller is not the ticket owner")

	ErrEventCancelled    = errors.New("ledger: event is cancelled")
	ErrEventCompleted    = errors.New("ledger: event is completed")
	ErrEventNotCancelled = errors.New("ledger: event is not cancelled")
	ErrEventNotCompleted = errors.New("ledger: event is not completed")
	ErrTicketUsed        = errors.New("ledger: ticket already used")
	ErrTicketRefunded    = errors.New("ledger: ticket already refunded")
	ErrNothingToWithdraw = errors.New("ledger: nothing to withdraw")

	ErrSoldOut = errors.New("ledger: event is sold out")

	ErrInsufficientPayment = errors.New("ledger: payment does not match ticket price")

	ErrInsufficientEscrow = errors.New("ledger: escrowed balance too low")

	ErrInvalidInput   = errors.New("ledger: invalid input")
	ErrTooManyTickets = errors.New("ledger: holder ticket limit reached")
)

// Error kinds surfaced to API callers.
const (
	KindNotFound          = "not_found"
	KindUnauthorized      = "unauthorized"
	KindInvalidState      = "invalid_state"
	KindCapacityExceeded  = "capacity_exceeded"
	KindPaymentMismatch   = "payment_mismatch"
	KindInsufficientFunds = "insufficient_funds"
	KindInvalidInput      = "invalid_input"
	KindInternal          = "internal"
)

// Kind maps a ledger error to its caller-facing error kind. Unknown errors
// map to KindInternal.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrEventNotFound), errors.Is(err, ErrTicketNotFound):
		return KindNotFound
	case errors.Is(err, ErrNotOrganizer), errors.Is(err, ErrNotTicketOwner):
		return KindUnauthorized
	case errors.Is(err, ErrEventCancelled), errors.Is(err, ErrEventCompleted),
		errors.Is(err, ErrEventNotCancelled), errors.Is(err, ErrEventNotCompleted),
		errors.Is(err, ErrTicketUsed), errors.Is(err, ErrTicketRefunded),
		errors.Is(err, ErrNothingToWithdraw):
		return KindInvalidState
	case errors.Is(err, ErrSoldOut), errors.Is(err, ErrTooManyTickets):
		return KindCapacityExceeded
	case errors.Is(err, ErrInsufficientPayment):
		return KindPaymentMismatch
	case errors.Is(err, ErrInsufficientEscrow):
		return KindInsufficientFunds
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	default:
		return KindInternal
	}
}
