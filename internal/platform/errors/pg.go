package errors

// Postgres-specific helpers for mapping pgx errors to project ErrorCode, used by the pg record sink

import (
	stderrs "errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Common SQLSTATE codes the record sink can hit
const (
	pgErrUniqueViolation           = "23505"
	pgErrNotNullViolation          = "23502"
	pgErrStringDataRightTruncation = "22001"
	pgErrInvalidTextRepresentation = "22P02"
	pgErrCharacterNotInRepertoire  = "22021" // e.g. NUL byte inside a question string
	pgErrUndefinedTable            = "42P01"
	pgErrInsufficientPrivilege     = "42501"
	pgErrReadOnlySQLTransaction    = "25006"
	pgErrCannotConnectNow          = "57P03"
)

// ExtractPgError returns (*pgconn.PgError, true) if the root cause is a PgError.
func ExtractPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if stderrs.As(Root(err), &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsSQLState reports whether the error is a Postgres error with the given SQLSTATE code
func IsSQLState(err error, code string) bool {
	pgErr, ok := ExtractPgError(err)
	return ok && pgErr.Code == code
}

// IsDuplicateKey reports whether the error is a unique constraint violation
func IsDuplicateKey(err error) bool { return IsSQLState(err, pgErrUniqueViolation) }

// IsUndefinedTable reports whether the sink table is missing
func IsUndefinedTable(err error) bool { return IsSQLState(err, pgErrUndefinedTable) }

// DBErrorCode maps a Postgres error to an ErrorCode with an ok flag
// !ok means err wasn't a PgError; caller may fall back to generic handling
func DBErrorCode(err error) (ErrorCode, bool) {
	pgErr, ok := ExtractPgError(err)
	if !ok {
		return ErrorCodeUnknown, false
	}

	switch pgErr.Code {
	case pgErrUniqueViolation:
		return ErrorCodeDuplicateKey, true

	case pgErrNotNullViolation:
		return ErrorCodeValidation, true

	case pgErrStringDataRightTruncation, pgErrInvalidTextRepresentation, pgErrCharacterNotInRepertoire:
		// the record itself cannot be stored as-is
		return ErrorCodeMalformed, true

	case pgErrUndefinedTable, pgErrInsufficientPrivilege:
		return ErrorCodeInvalidArgument, true

	case pgErrReadOnlySQLTransaction, pgErrCannotConnectNow:
		return ErrorCodeUnavailable, true
	}

	return ErrorCodeDB, true
}

// FromPostgres wraps a pg error with a mapped ErrorCode and message.
// If err is nil, returns nil
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	if code, ok := DBErrorCode(err); ok {
		return AttachFieldFromPg(Wrap(err, code, msg))
	}
	return Wrap(err, ErrorCodeDB, msg)
}

// FromPostgresf is the formatted variant of FromPostgres
func FromPostgresf(err error, format string, a ...any) error {
	if err == nil {
		return nil
	}
	return FromPostgres(err, fmt.Sprintf(format, a...))
}

// AttachFieldFromPg tries to enrich an error with the column name reported by Postgres.
// Returns the original error if no field can be inferred
func AttachFieldFromPg(err error) error {
	pgErr, ok := ExtractPgError(err)
	if !ok {
		return err
	}
	if col := strings.TrimSpace(pgErr.ColumnName); col != "" {
		return WithField(err, col)
	}
	return err
}
