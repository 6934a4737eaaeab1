// Package repository is the MySQL persistence of events and reservations.
// Driver errors are translated into the guestlist package's sentinels so
// higher layers never inspect MySQL error numbers.
package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/guestlist/internal/guestlist"
)

// MySQL server error numbers.
const (
	errDupEntry        = 1062
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

// activeKeyIndex is the unique index enforcing one non-cancelled
// reservation per (event, patron).
const activeKeyIndex = "uq_reservations_active"

// translate maps retryable MySQL errors to guestlist.ErrConflict and
// leaves everything else untouched.
func translate(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return err
	}
	switch me.Number {
	case errDeadlock, errLockWaitTimeout:
		return fmt.Errorf("%w: %v", guestlist.ErrConflict, err)
	case errDupEntry:
		if strings.Contains(me.Message, activeKeyIndex) {
			return guestlist.ErrDuplicateReservation
		}
		return fmt.Errorf("%w: %v", guestlist.ErrConflict, err)
	}
	return err
}
