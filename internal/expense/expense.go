package expense

import "time"

const (
	// DefaultCategory is assigned to scanned entries; categorization
	// happens later, outside this pipeline.
	DefaultCategory = "varios"

	// incomeCategory marks entries that are income rather than expenses.
	incomeCategory = "ingreso"
)

// Entry is one persisted expense record plus its evidence image reference.
// An entry is written exactly once per successful scan; edits are out of
// scope for this pipeline.
type Entry struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Date        time.Time `json:"date"`
	Category    string    `json:"category"`
	Provider    string    `json:"provider"`
	Notes       string    `json:"notes"`
	Amount      float64   `json:"amount"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	IsExpense   bool      `json:"is_expense"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
