package models

import "time"

type SortField string

const (
	SortCreatedAt SortField = "createdAt"
	SortUpdatedAt SortField = "updatedAt"
	SortAmount    SortField = "amount"
)

func (f SortField) Valid() bool {
	return f == SortCreatedAt || f == SortUpdatedAt || f == SortAmount
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	// MaxPage keeps (Page-1)*Limit far from int overflow.
	MaxPage = 1_000_000
)

// TransactionFilter selects and orders transactions. Zero-valued fields
// do not filter. From is inclusive, To is exclusive; both compare against CreatedAt.
type TransactionFilter struct {
	UserID string
	Type   TransactionType
	Status TransactionStatus
	Method Method
	Class  TransactionClass
	Search string
	From   *time.Time
	To     *time.Time

	SortBy SortField
	Asc    bool
	Page   int
	Limit  int
	// Cursor, when set, takes precedence over Page.
	Cursor *Cursor
}

// Cursor is the sort key and id of the last row of a previous page.
type Cursor struct {
	Value string `json:"v"`
	ID    string `json:"id"`
}

// Normalize fills defaults and clamps the page window.
func (f *TransactionFilter) Normalize() {
	if !f.SortBy.Valid() {
		f.SortBy = SortCreatedAt
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Page > MaxPage {
		f.Page = MaxPage
	}
}

func (f TransactionFilter) Offset() int {
	if f.Cursor != nil {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

type Pagination struct {
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	Total      int64  `json:"total"`
	TotalPages int    `json:"totalPages"`
	NextCursor string `json:"nextCursor,omitempty"`
}

type TransactionPage struct {
	Data       []Transaction `json:"data"`
	Pagination Pagination    `json:"pagination"`
}

// NewPagination computes the page counters for a result of total rows.
func NewPagination(f TransactionFilter, total int64) Pagination {
	pages := 0
	if f.Limit > 0 {
		pages = int((total + int64(f.Limit) - 1) / int64(f.Limit))
	}
	return Pagination{Page: f.Page, Limit: f.Limit, Total: total, TotalPages: pages}
}
