package activity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("activity not found")
	ErrDuplicateID     = errors.New("activity id already exists")
	ErrNameRequired    = errors.New("name is required")
	ErrDateRequired    = errors.New("date is required")
	ErrInvalidDate     = errors.New("date must be formatted as YYYY-MM-DD")
	ErrCategoryMissing = errors.New("category is required")
	ErrNegativeAmount  = errors.New("amount must not be negative")
)

// DateLayout is the wire and storage format of a Date.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time of day.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf keeps the calendar day of t as seen in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	// Full timestamps are accepted and cut down to the day.
	if len(s) > len(DateLayout) {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			*d = DateOf(t)
			return nil
		}
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Activity is a dated, categorised record with an amount and paid status.
type Activity struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Date        Date      `json:"date"`
	Amount      float64   `json:"amount"`
	Category    Category  `json:"category"`
	IsPaid      bool      `json:"is_paid"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DescriptionOr returns the description or fallback when it is absent.
func (a Activity) DescriptionOr(fallback string) string {
	if a.Description == nil || *a.Description == "" {
		return fallback
	}
	return *a.Description
}

// NewActivity holds the fields accepted on create. ID is optional; clients
// that work offline generate it themselves.
type NewActivity struct {
	ID          uuid.UUID
	Name        string
	Description *string
	Date        Date
	Amount      float64
	Category    Category
	IsPaid      bool
}

// Validate checks presence of name, date and category and the amount sign.
func (n NewActivity) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return ErrNameRequired
	}
	if n.Date.IsZero() {
		return ErrDateRequired
	}
	if n.Category == "" {
		return ErrCategoryMissing
	}
	if !n.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, n.Category)
	}
	if n.Amount < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Date        *Date     `json:"date,omitempty"`
	Amount      *float64  `json:"amount,omitempty"`
	Category    *Category `json:"category,omitempty"`
	IsPaid      *bool     `json:"is_paid,omitempty"`
}

// Validate rejects supplied fields that would break a record's invariants.
func (p Patch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return ErrNameRequired
	}
	if p.Date != nil && p.Date.IsZero() {
		return ErrDateRequired
	}
	if p.Category != nil && !p.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, *p.Category)
	}
	if p.Amount != nil && *p.Amount < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// Apply merges the supplied fields into a and returns the result.
func (p Patch) Apply(a Activity) Activity {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Description != nil {
		a.Description = p.Description
	}
	if p.Date != nil {
		a.Date = *p.Date
	}
	if p.Amount != nil {
		a.Amount = *p.Amount
	}
	if p.Category != nil {
		a.Category = *p.Category
	}
	if p.IsPaid != nil {
		a.IsPaid = *p.IsPaid
	}
	return a
}
