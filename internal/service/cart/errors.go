package cart

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"eato/internal/domain"
)

// maxQuantity is the largest value the order_lines.quantity column holds.
const maxQuantity = math.MaxInt32

var (
	// ErrEmptyCart is returned by Checkout when the user has no pending lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidQuantity rejects negative or oversized quantities.
	ErrInvalidQuantity = fmt.Errorf("%w: quantity must be between 0 and %d", domain.ErrInvalidInput, maxQuantity)
)

func validQuantity(q int) bool {
	return q >= 0 && int64(q) <= maxQuantity
}

// PartialDeleteFailure reports the lines that survived an item removal.
// The entry is still considered removed from the client's view.
type PartialDeleteFailure struct {
	FailedLineIDs []string
	Err           error
}

func (e *PartialDeleteFailure) Error() string {
	return fmt.Sprintf("remove entry: %d line(s) not deleted: %s", len(e.FailedLineIDs), strings.Join(e.FailedLineIDs, ","))
}

func (e *PartialDeleteFailure) Unwrap() error { return e.Err }

// CheckoutIncomplete is returned when the order was written but some lines
// could not be flipped to placed. The order stays in the incomplete sync state
// and is finished on a later Load.
type CheckoutIncomplete struct {
	OrderID         string
	UnplacedLineIDs []string
	Err             error
}

func (e *CheckoutIncomplete) Error() string {
	return fmt.Sprintf("checkout: order %s written but %d line(s) not placed", e.OrderID, len(e.UnplacedLineIDs))
}

func (e *CheckoutIncomplete) Unwrap() error { return e.Err }

// unavailable tags a store failure. Not-found results are passed through untouched.
func unavailable(err error) error {
	if err == nil || errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}
