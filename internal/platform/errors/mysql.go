package errors

// MySQL/MariaDB helpers, mirroring pg.go for the Moodle database driver

import (
	"context"
	"database/sql/driver"
	stderrs "errors"

	"github.com/go-sql-driver/mysql"
)

// server error numbers the monitor distinguishes
const (
	myErrAccessDenied     = 1045
	myErrDBAccessDenied   = 1044
	myErrTableAccessDeny  = 1142
	myErrNoSuchTable      = 1146
	myErrBadField         = 1054
	myErrLockWaitTimeout  = 1205
	myErrDeadlock         = 1213
	myErrServerShutdown   = 1053
	myErrTooManyConns     = 1040
	myErrServerGoneAway   = 2006
	myErrServerLostDuring = 2013
)

// ExtractMySQLError returns (*mysql.MySQLError, true) if err wraps one
func ExtractMySQLError(err error) (*mysql.MySQLError, bool) {
	var myErr *mysql.MySQLError
	if stderrs.As(err, &myErr) {
		return myErr, true
	}
	return nil, false
}

// MySQLErrorCode maps a MySQL server error to an ErrorCode with an ok flag
func MySQLErrorCode(err error) (ErrorCode, bool) {
	myErr, ok := ExtractMySQLError(err)
	if !ok {
		return ErrorCodeUnknown, false
	}
	switch myErr.Number {
	case myErrNoSuchTable, myErrBadField:
		return ErrorCodeInvalidArgument, true
	case myErrAccessDenied, myErrDBAccessDenied, myErrTableAccessDeny:
		return ErrorCodeUnauthorized, true
	case myErrServerShutdown, myErrTooManyConns, myErrServerGoneAway, myErrServerLostDuring:
		return ErrorCodeUnavailable, true
	}
	return ErrorCodeDB, true
}

// FromMySQL wraps a mysql error with a mapped ErrorCode and message.
// If err is nil, returns nil
func FromMySQL(err error, msg string) error {
	if err == nil {
		return nil
	}
	if code, ok := MySQLErrorCode(err); ok {
		return Wrap(err, code, msg)
	}
	return Wrap(err, ErrorCodeDB, msg)
}

// IsMySQLRetryable reports whether a MySQL error is transient
func IsMySQLRetryable(err error) bool {
	if err == nil {
		return false
	}
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	if stderrs.Is(err, driver.ErrBadConn) || stderrs.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	if myErr, ok := ExtractMySQLError(err); ok {
		switch myErr.Number {
		case myErrLockWaitTimeout, myErrDeadlock, myErrTooManyConns, myErrServerGoneAway, myErrServerLostDuring:
			return true
		}
	}
	return false
}
