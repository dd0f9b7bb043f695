package activity

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{"health", CategoryHealth, false},
		{"  Finance ", CategoryFinance, false},
		{"TRAVEL", CategoryTravel, false},
		{"leisure", CategoryLeisure, false},
		{"family", CategoryFamily, false},
		{"food", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCategory(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCategory)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategoryDisplay(t *testing.T) {
	assert.Equal(t, "Health", CategoryHealth.Name())
	assert.Equal(t, "health", CategoryHealth.Slug())
	assert.Equal(t, RGB{0xef, 0x44, 0x44}, CategoryHealth.Color())

	unknown := Category("groceries")
	assert.False(t, unknown.Valid())
	assert.Equal(t, "groceries", unknown.Name())
	assert.Equal(t, RGB{0x6b, 0x72, 0x80}, unknown.Color())
}

func TestCategoriesAreUnique(t *testing.T) {
	seen := make(map[Category]bool)
	for _, info := range Categories {
		assert.False(t, seen[info.ID], "duplicate category %s", info.ID)
		seen[info.ID] = true
	}
	assert.Len(t, seen, 5)
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2024, time.May, 1)

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-05-01"`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, d, back)

	var fromTimestamp Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-05-01T00:00:00Z"`), &fromTimestamp))
	assert.Equal(t, d, fromTimestamp)

	var bad Date
	err = json.Unmarshal([]byte(`"01/05/2024"`), &bad)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestNewActivityValidate(t *testing.T) {
	valid := NewActivity{
		Name:     "Dentist",
		Date:     NewDate(2024, time.March, 3),
		Amount:   80,
		Category: CategoryHealth,
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*NewActivity)
		want   error
	}{
		{"blank name", func(n *NewActivity) { n.Name = "   " }, ErrNameRequired},
		{"missing date", func(n *NewActivity) { n.Date = Date{} }, ErrDateRequired},
		{"missing category", func(n *NewActivity) { n.Category = "" }, ErrCategoryMissing},
		{"unknown category", func(n *NewActivity) { n.Category = "food" }, ErrInvalidCategory},
		{"negative amount", func(n *NewActivity) { n.Amount = -1 }, ErrNegativeAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := valid
			tt.mutate(&n)
			assert.True(t, errors.Is(n.Validate(), tt.want), "got %v", n.Validate())
		})
	}
}

func TestPatchApply(t *testing.T) {
	desc := "old"
	a := Activity{
		Name:        "Flight",
		Description: &desc,
		Date:        NewDate(2024, time.June, 10),
		Amount:      300,
		Category:    CategoryTravel,
	}

	name := "Flight to Lima"
	paid := true
	got := Patch{Name: &name, IsPaid: &paid}.Apply(a)

	assert.Equal(t, "Flight to Lima", got.Name)
	assert.True(t, got.IsPaid)
	assert.Equal(t, a.Amount, got.Amount)
	assert.Equal(t, a.Category, got.Category)
	assert.Equal(t, "old", got.DescriptionOr("-"))
	assert.Equal(t, "Flight", a.Name, "original must not change")
}

func TestPatchValidate(t *testing.T) {
	blank := " "
	assert.ErrorIs(t, Patch{Name: &blank}.Validate(), ErrNameRequired)

	negative := -5.0
	assert.ErrorIs(t, Patch{Amount: &negative}.Validate(), ErrNegativeAmount)

	bogus := Category("food")
	assert.ErrorIs(t, Patch{Category: &bogus}.Validate(), ErrInvalidCategory)

	assert.NoError(t, Patch{}.Validate())
}

func TestDescriptionOr(t *testing.T) {
	empty := ""
	assert.Equal(t, "-", Activity{}.DescriptionOr("-"))
	assert.Equal(t, "-", Activity{Description: &empty}.DescriptionOr("-"))
}
