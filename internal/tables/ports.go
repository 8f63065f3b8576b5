// Package tables defines the port through which the base tables are read.
//
// A table is returned as a header row followed by data rows, each row a slice
// of raw cell strings. Typing and validation happen in the loader, so every
// source (CSV directory, SQLite database, Google Sheets) only has to produce
// cells.
package tables

import (
	"context"
	"errors"
)

// Name identifies one of the four base tables.
type Name string

const (
	Transactions Name = "transactions"
	Payments     Name = "payments"
	Users        Name = "users"
	Monthly      Name = "monthly"
)

// All lists the base tables in load order.
var All = []Name{Transactions, Payments, Users, Monthly}

// ErrTableNotFound is returned when a source has no data for a table.
var ErrTableNotFound = errors.New("table not found")

// Ports for inbound table sources.
type (
	Reader interface {
		// ReadTable returns the header row followed by the data rows.
		ReadTable(ctx context.Context, name Name) ([][]string, error)
	}

	// Writer stores a full table, replacing any previous content.
	Writer interface {
		WriteTable(ctx context.Context, name Name, rows [][]string) error
	}
)
