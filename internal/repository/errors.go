// Package repository persists users and refresh token records in MySQL and
// keeps the access-token denylist in Redis.  Sentinel errors let the
// service layer tell "not there" and "already there" apart from store
// faults.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when the users.email unique key rejects an
// insert.  Concurrent registrations with one email resolve to this error
// for every writer but the first.
var ErrEmailExists = errors.New("email already exists")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
