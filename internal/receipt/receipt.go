package receipt

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnknownStoreName is the sentinel used when extraction could not find a
// store name on the receipt.
const UnknownStoreName = "Unknown Shop"

// Receipt is the canonical, persisted representation of a scanned receipt.
// Date is always a real resolved timestamp; construction fails upstream
// rather than persisting a guessed or zero date.
type Receipt struct {
	ID        string          `json:"id"`
	Date      time.Time       `json:"date"`
	Total     decimal.Decimal `json:"total"`
	Items     []string        `json:"items"`
	StoreName string          `json:"store_name"`
	Currency  string          `json:"currency"`
	ImageURL  string          `json:"image_url,omitempty"` // empty for placeholder records
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewPlaceholder creates a zero-total receipt representing a scan whose
// extraction has not completed. Placeholders carry no image reference.
func NewPlaceholder(id string, date time.Time, currency string) *Receipt {
	now := time.Now()
	return &Receipt{
		ID:        id,
		Date:      date,
		Total:     decimal.Zero,
		Items:     []string{},
		StoreName: UnknownStoreName,
		Currency:  currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
