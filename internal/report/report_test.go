package report

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edwinbf09/daily-activities/internal/activity"
)

var fixedNow = time.Date(2024, time.June, 9, 18, 30, 0, 0, time.UTC)

func newTestGenerator() *Generator {
	return &Generator{now: func() time.Time { return fixedNow }}
}

func act(name string, category activity.Category, amount float64, paid bool) activity.Activity {
	return activity.Activity{
		ID:       uuid.New(),
		Name:     name,
		Date:     activity.NewDate(2024, time.June, 1),
		Amount:   amount,
		Category: category,
		IsPaid:   paid,
	}
}

func sample() []activity.Activity {
	return []activity.Activity{
		act("Dentist", activity.CategoryHealth, 90, true),
		act("Gym", activity.CategoryHealth, 25.5, false),
		act("Rent", activity.CategoryFinance, 900, true),
		act("Cinema", activity.CategoryLeisure, 12, false),
	}
}

// pageCount counts page objects in an uncompressed PDF object table.
func pageCount(content []byte) int {
	return bytes.Count(content, []byte("/Type /Page")) - bytes.Count(content, []byte("/Type /Pages"))
}

func TestSummarize(t *testing.T) {
	s := Summarize(sample())

	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 2, s.PaidCount)
	assert.Equal(t, 2, s.PendingCount)
	assert.InDelta(t, 1027.5, s.Total, 0.001)
	assert.InDelta(t, 990, s.PaidAmount, 0.001)
	assert.InDelta(t, 37.5, s.PendingAmount, 0.001)

	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestBreakdown(t *testing.T) {
	rows := Breakdown(sample())
	require.Len(t, rows, len(activity.Categories))

	byCategory := make(map[activity.Category]CategoryRow)
	total := 0
	for i, row := range rows {
		assert.Equal(t, activity.Categories[i].ID, row.Category, "rows follow enumeration order")
		byCategory[row.Category] = row
		total += row.Count
	}
	assert.Equal(t, 4, total)

	health := byCategory[activity.CategoryHealth]
	assert.Equal(t, 2, health.Count)
	assert.InDelta(t, 115.5, health.Total, 0.001)
	assert.InDelta(t, 90, health.Paid, 0.001)

	assert.Equal(t, 0, byCategory[activity.CategoryTravel].Count)
}

func TestBreakdownGroupsUnknownCategories(t *testing.T) {
	list := append(sample(), act("Legacy", activity.Category("groceries"), 7, false))

	rows := Breakdown(list)
	require.Len(t, rows, len(activity.Categories)+1)

	last := rows[len(rows)-1]
	assert.Equal(t, "Other", last.Name)
	assert.Equal(t, 1, last.Count)
}

func TestFilterKeepsOrder(t *testing.T) {
	got := Filter(sample(), activity.CategoryHealth)
	require.Len(t, got, 2)
	assert.Equal(t, "Dentist", got[0].Name)
	assert.Equal(t, "Gym", got[1].Name)

	assert.Empty(t, Filter(sample(), activity.CategoryFamily))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "$1027.50", FormatCurrency(1027.5))
	assert.Equal(t, "$0.00", FormatCurrency(0))
	assert.Equal(t, "reporte-health-2024-06-09.pdf", Filename("health", fixedNow))
	assert.Equal(t, "reporte-completo-2024-06-09.pdf", Filename(CompleteSlug, fixedNow))
}

func TestGenerator_Category(t *testing.T) {
	g := newTestGenerator()
	list := sample()
	before := append([]activity.Activity(nil), list...)

	doc, err := g.Category(activity.CategoryHealth, list)
	require.NoError(t, err)

	assert.Equal(t, "reporte-health-2024-06-09.pdf", doc.Filename)
	assert.True(t, bytes.HasPrefix(doc.Content, []byte("%PDF-")))
	assert.Equal(t, 1, pageCount(doc.Content))
	assert.Equal(t, before, list, "input must not change")
}

func TestGenerator_CategoryPaginates(t *testing.T) {
	g := newTestGenerator()

	var list []activity.Activity
	for i := 0; i < 80; i++ {
		list = append(list, act(fmt.Sprintf("Session %d", i), activity.CategoryHealth, 10, i%2 == 0))
	}

	doc, err := g.Category(activity.CategoryHealth, list)
	require.NoError(t, err)
	assert.Greater(t, pageCount(doc.Content), 1)
}

func TestGenerator_CategoryErrors(t *testing.T) {
	g := newTestGenerator()

	_, err := g.Category(activity.CategoryTravel, sample())
	assert.ErrorIs(t, err, ErrNoData)

	_, err = g.Category(activity.Category("food"), sample())
	assert.ErrorIs(t, err, activity.ErrInvalidCategory)
}

func TestGenerator_Complete(t *testing.T) {
	g := newTestGenerator()

	doc, err := g.Complete(sample())
	require.NoError(t, err)
	assert.Equal(t, "reporte-completo-2024-06-09.pdf", doc.Filename)
	assert.True(t, bytes.HasPrefix(doc.Content, []byte("%PDF-")))
	assert.Equal(t, 2, pageCount(doc.Content), "summary page then detail page")

	_, err = g.Complete(nil)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestGenerator_LongTextIsTruncated(t *testing.T) {
	g := newTestGenerator()
	long := act("A very long activity name that keeps going well past the width of its column", activity.CategoryFamily, 1, false)
	desc := "Añadido con acentos y un texto larguísimo que no cabe en la celda de descripción del informe"
	long.Description = &desc

	doc, err := g.Category(activity.CategoryFamily, []activity.Activity{long})
	require.NoError(t, err)
	assert.Equal(t, 1, pageCount(doc.Content))
}

func TestFitKeepsAccentsWhenTruncating(t *testing.T) {
	p := newPage("test", fixedNow)
	p.pdf.SetFont("Helvetica", "", 9)

	assert.Equal(t, []byte("m\xe9dico"), []byte(p.fit("médico", 100)))

	cut := p.fit(strings.Repeat("Consulta médica con el niño ", 4), 40)
	require.True(t, strings.HasSuffix(cut, "..."))
	assert.NotContains(t, cut, "\xef\xbf\xbd")
	assert.True(t, strings.HasPrefix(cut, "Consulta m\xe9dica"))
	assert.LessOrEqual(t, p.pdf.GetStringWidth(cut), 40.0)
}
