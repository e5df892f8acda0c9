package repositories

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

var (
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrVersionConflict is returned when a compare-and-swap update finds the
	// row changed since it was read.
	ErrVersionConflict = errors.New("version conflict")
	// ErrMissingReference is returned when an insert names a related row that
	// does not exist.
	ErrMissingReference = errors.New("referenced record does not exist")
)

const (
	invalidTextRepresentation = "22P02"
	foreignKeyViolation       = "23503"
	uniqueViolation           = "23505"
)

func hasCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}

func isUniqueViolation(err error) bool { return hasCode(err, uniqueViolation) }

func isForeignKeyViolation(err error) bool { return hasCode(err, foreignKeyViolation) }

// isMalformedID reports an id Postgres could not parse as a uuid. No row can
// carry such an id, so lookups treat it as not found.
func isMalformedID(err error) bool { return hasCode(err, invalidTextRepresentation) }

// likePattern builds a case-insensitive substring pattern for ILIKE, escaping
// the LIKE metacharacters in the user-supplied term.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}
