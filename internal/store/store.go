package store

import (
	"context"

	"github.com/synclaro/website-api/internal/models"
)

// Filter maps column names to values matched with equality.
type Filter map[string]string

// Eq builds a single-column equality filter.
func Eq(column, value string) Filter {
	return Filter{column: value}
}

// WriteOptions controls the Prefer header of inserts and updates.
type WriteOptions struct {
	ReturnRepresentation bool
	MergeDuplicates      bool
}

// Records is a table-oriented record store reachable over HTTP.
type Records interface {
	Select(ctx context.Context, table string, filter Filter, limit int, out any) error
	Insert(ctx context.Context, table string, row any, opts WriteOptions, out any) error
	Patch(ctx context.Context, table string, filter Filter, patch any, opts WriteOptions, out any) error
}

// Order sorts a query by one column.
type Order struct {
	Column     string
	Descending bool
	NullsLast  bool
}

// Query is a filtered, ordered and paginated read. Search matches rows where
// any of SearchColumns contains it, ignoring case.
type Query struct {
	Filter        Filter
	Search        string
	SearchColumns []string
	Order         []Order
	Offset        int
	Limit         int
}

// Pager reads one page of a table together with the number of rows matching
// the query across all pages.
type Pager interface {
	Page(ctx context.Context, table string, q Query, out any) (total int, err error)
}

// Ledger keeps bookings that need manual reconciliation.
type Ledger interface {
	SaveReconciliation(ctx context.Context, r *models.Reconciliation) error
	ListOpenReconciliations(ctx context.Context) ([]*models.Reconciliation, error)
	ResolveReconciliation(ctx context.Context, id string) error
	Close() error
}
