package repository

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/baharkarakas/wallet-ledger/internal/models"
)

// EncodeCursor makes an opaque page token from the last row of a page.
func EncodeCursor(f models.TransactionFilter, last models.Transaction) string {
	c := models.Cursor{Value: SortValue(f.SortBy, last), ID: last.ID}
	b, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(b)
}

func DecodeCursor(s string) (*models.Cursor, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed cursor", models.ErrValidation)
	}
	var c models.Cursor
	if err := json.Unmarshal(b, &c); err != nil || c.ID == "" {
		return nil, fmt.Errorf("%w: malformed cursor", models.ErrValidation)
	}
	return &c, nil
}

// SortValue renders the sort key of tx in a form both stores can compare.
func SortValue(f models.SortField, tx models.Transaction) string {
	switch f {
	case models.SortAmount:
		return tx.Amount.String()
	case models.SortUpdatedAt:
		return tx.UpdatedAt.UTC().Format(time.RFC3339Nano)
	default:
		return tx.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
}

// WithNextCursor sets NextCursor when a full page was returned.
func WithNextCursor(f models.TransactionFilter, page models.TransactionPage) models.TransactionPage {
	if n := len(page.Data); n > 0 && n == f.Limit {
		page.Pagination.NextCursor = EncodeCursor(f, page.Data[n-1])
	}
	return page
}
