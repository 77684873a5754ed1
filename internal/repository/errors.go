// Package repository holds the MySQL data access layer.  Sentinel errors
// defined here let the service and handler layers tell failure kinds apart
// without inspecting driver errors.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write would violate a uniqueness or state
// constraint.
var ErrConflict = errors.New("conflict")

var (
	ErrUsernameExists = errors.New("username already exists")
	ErrEmailExists    = errors.New("email already exists")
)

// mysqlDuplicateEntry is the server error number for a unique key violation.
const mysqlDuplicateEntry = 1062

// duplicateKey reports whether err is a unique key violation and, if so,
// which key was hit.
func duplicateKey(err error) (key string, ok bool) {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlDuplicateEntry {
		return "", false
	}
	// Message shape: Duplicate entry 'x' for key 'users.uq_users_email'
	msg := me.Message
	if i := strings.LastIndex(msg, "for key '"); i >= 0 {
		key = strings.TrimSuffix(msg[i+len("for key '"):], "'")
	}
	return key, true
}

// likePattern builds a case-insensitive substring pattern for LIKE, escaping
// the wildcard characters of the needle.
func likePattern(needle string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(strings.TrimSpace(needle))) + "%"
}
