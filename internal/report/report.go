// Package report folds activity snapshots into statistics and renders them
// as paginated PDF documents.
package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/edwinbf09/daily-activities/internal/activity"
)

// ErrNoData is returned when there is nothing to put in a report.
var ErrNoData = errors.New("no activities to report")

// CompleteSlug names the all-categories report in file names.
const CompleteSlug = "completo"

// Summary holds the headline figures of a set of activities.
type Summary struct {
	Count         int     `json:"count"`
	PaidCount     int     `json:"paid_count"`
	PendingCount  int     `json:"pending_count"`
	Total         float64 `json:"total"`
	PaidAmount    float64 `json:"paid_amount"`
	PendingAmount float64 `json:"pending_amount"`
}

// CategoryRow is one line of the per-category breakdown.
type CategoryRow struct {
	Category activity.Category `json:"category"`
	Name     string            `json:"name"`
	Count    int               `json:"count"`
	Total    float64           `json:"total"`
	Paid     float64           `json:"paid"`
}

// Summarize computes counts and amounts over list.
func Summarize(list []activity.Activity) Summary {
	var s Summary
	for _, a := range list {
		s.Count++
		s.Total += a.Amount
		if a.IsPaid {
			s.PaidCount++
			s.PaidAmount += a.Amount
		}
	}
	s.PendingCount = s.Count - s.PaidCount
	s.PendingAmount = s.Total - s.PaidAmount
	return s
}

// Breakdown returns one row per category in enumeration order, including
// empty ones. Activities outside the enumeration are grouped under a
// trailing "Other" row so the counts always add up to len(list).
func Breakdown(list []activity.Activity) []CategoryRow {
	rows := make([]CategoryRow, len(activity.Categories))
	index := make(map[activity.Category]int, len(activity.Categories))
	for i, info := range activity.Categories {
		rows[i] = CategoryRow{Category: info.ID, Name: info.Name}
		index[info.ID] = i
	}

	var other *CategoryRow
	for _, a := range list {
		var row *CategoryRow
		if i, ok := index[a.Category]; ok {
			row = &rows[i]
		} else {
			if other == nil {
				other = &CategoryRow{Name: "Other"}
			}
			row = other
		}
		row.Count++
		row.Total += a.Amount
		if a.IsPaid {
			row.Paid += a.Amount
		}
	}

	if other != nil {
		rows = append(rows, *other)
	}
	return rows
}

// Filter keeps the activities of one category, preserving order.
func Filter(list []activity.Activity, category activity.Category) []activity.Activity {
	out := make([]activity.Activity, 0, len(list))
	for _, a := range list {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out
}

// FormatCurrency renders an amount with a dollar sign and two decimals.
func FormatCurrency(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

// Filename builds "reporte-<slug>-<YYYY-MM-DD>.pdf".
func Filename(slug string, now time.Time) string {
	return fmt.Sprintf("reporte-%s-%s.pdf", slug, now.Format(activity.DateLayout))
}

// Document is a rendered report.
type Document struct {
	Filename string
	Content  []byte
}

// Generator renders reports. It never mutates the activities it is given.
type Generator struct {
	now func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// Category renders the report of a single category. Order of the detail
// rows follows list.
func (g *Generator) Category(category activity.Category, list []activity.Activity) (*Document, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", activity.ErrInvalidCategory, category)
	}

	filtered := Filter(list, category)
	if len(filtered) == 0 {
		return nil, ErrNoData
	}

	now := g.now()
	content, err := renderCategory(category, filtered, now)
	if err != nil {
		return nil, err
	}

	return &Document{Filename: Filename(category.Slug(), now), Content: content}, nil
}

// Complete renders the report over every category.
func (g *Generator) Complete(list []activity.Activity) (*Document, error) {
	if len(list) == 0 {
		return nil, ErrNoData
	}

	now := g.now()
	content, err := renderComplete(list, now)
	if err != nil {
		return nil, err
	}

	return &Document{Filename: Filename(CompleteSlug, now), Content: content}, nil
}
