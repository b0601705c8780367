// Package repository implements the reservation ledger.  The MySQL
// ledger is the production store; the memory ledger honours the same
// contract and backs the service and handler tests.
package repository

import (
    "context"
    "errors"
    "fmt"
)

// storageErr wraps an unexpected failure with the operation that hit
// it.  Context errors pass through unwrapped so callers can tell a
// timeout from a broken database.
func storageErr(op string, err error) error {
    if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
        return err
    }
    return fmt.Errorf("%s: %w", op, err)
}
