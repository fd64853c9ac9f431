// ABOUTME: Tests for deal models, validation and view state encoding
// ABOUTME: Covers cloning, tag normalization, history invariants and saved views
package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDeal() Deal {
	entered := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return Deal{
		ID:         "d1",
		DealNumber: "DEAL-2024-001",
		Name:       "Acme rollout",
		OwnerID:    "u1",
		PipelineID: "sales-pipeline",
		StageID:    "lead",
		Amount:     1000,
		Currency:   CurrencyUSD,
		DealType:   DealTypeNewBusiness,
		Priority:   PriorityMedium,
		Health:     HealthHealthy,
		Tags:       []string{"q1"},
		StageHistory: []StageHistoryEntry{
			{ID: "h1", ToStageID: "lead", EnteredAt: entered, ChangedBy: "u1"},
		},
		CreatedAt: entered,
		UpdatedAt: entered,
	}
}

func TestValidateDeal(t *testing.T) {
	d := sampleDeal()
	require.NoError(t, ValidateDeal(d))

	neg := sampleDeal()
	neg.Amount = -1
	assert.ErrorContains(t, ValidateDeal(neg), "Amount")

	prob := sampleDeal()
	prob.Probability = 101
	assert.ErrorContains(t, ValidateDeal(prob), "Probability")

	cur := sampleDeal()
	cur.Currency = "JPY"
	assert.ErrorContains(t, ValidateDeal(cur), "Currency")

	noHistory := sampleDeal()
	noHistory.StageHistory = nil
	assert.Error(t, ValidateDeal(noHistory))
}

func TestValidateHistory(t *testing.T) {
	d := sampleDeal()
	exit := d.StageHistory[0].EnteredAt.Add(2 * time.Hour)
	dur := 2.0
	d.StageHistory[0].ExitedAt = &exit
	d.StageHistory[0].DurationHours = &dur
	d.StageHistory = append(d.StageHistory, StageHistoryEntry{
		ID: "h2", FromStageID: "lead", ToStageID: "qualified", EnteredAt: exit, ChangedBy: "u1",
	})
	d.StageID = "qualified"
	require.NoError(t, ValidateHistory(d))

	t.Run("two open entries", func(t *testing.T) {
		bad := d.Clone()
		bad.StageHistory[0].ExitedAt = nil
		bad.StageHistory[0].DurationHours = nil
		assert.Error(t, ValidateHistory(bad))
	})

	t.Run("open entry on wrong stage", func(t *testing.T) {
		bad := d.Clone()
		bad.StageID = "proposal"
		assert.Error(t, ValidateHistory(bad))
	})

	t.Run("negative duration", func(t *testing.T) {
		bad := d.Clone()
		neg := -5.0
		bad.StageHistory[0].DurationHours = &neg
		assert.ErrorContains(t, ValidateHistory(bad), "duration")
	})

	t.Run("duration disagrees with stay", func(t *testing.T) {
		bad := d.Clone()
		wrong := 10.0
		bad.StageHistory[0].DurationHours = &wrong
		assert.ErrorContains(t, ValidateHistory(bad), "duration")
	})

	t.Run("closed entry without duration", func(t *testing.T) {
		ok := d.Clone()
		ok.StageHistory[0].DurationHours = nil
		assert.NoError(t, ValidateHistory(ok))
	})

	t.Run("out of order", func(t *testing.T) {
		bad := d.Clone()
		bad.StageHistory[1].EnteredAt = bad.StageHistory[0].EnteredAt
		assert.Error(t, ValidateHistory(bad))
	})
}

func TestCloneIsDeep(t *testing.T) {
	d := sampleDeal()
	closeAt := time.Now()
	d.ExpectedCloseDate = &closeAt
	d.CustomFields = map[string]string{"region": "emea"}

	c := d.Clone()
	c.Tags[0] = "changed"
	c.CustomFields["region"] = "apac"
	c.StageHistory[0].ChangedBy = "someone"
	*c.ExpectedCloseDate = closeAt.Add(time.Hour)

	assert.Equal(t, "q1", d.Tags[0])
	assert.Equal(t, "emea", d.CustomFields["region"])
	assert.Equal(t, "u1", d.StageHistory[0].ChangedBy)
	assert.Equal(t, closeAt, *d.ExpectedCloseDate)
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, NormalizeTags([]string{"c", "a", "", "b", "a"}))
	assert.Empty(t, NormalizeTags(nil))
}

func TestWeightedValue(t *testing.T) {
	d := sampleDeal()
	d.Amount = 100000
	d.Probability = 25
	assert.Equal(t, 25000.0, d.WeightedValue())
}

func TestViewStateEncodeDecode(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	maxAmount := 50000.5
	view := ViewState{
		Name: "big open deals",
		Filter: Filter{
			Search:         "acme",
			Status:         StatusOpen,
			OwnerID:        "u1",
			AmountRange:    &AmountRange{Min: 1000, Max: &maxAmount},
			CloseDateRange: &DateRange{Start: start, End: start.AddDate(0, 3, 0)},
			Tags:           []string{"hot", "q1"},
		},
		SortKey:       "amount",
		SortDirection: SortDesc,
		Page:          2,
		PageSize:      25,
	}

	encoded := view.Encode()
	assert.Equal(t, "hot,q1", encoded["tags"])
	assert.NotContains(t, encoded, "stage")

	decoded, err := DecodeViewState(encoded)
	require.NoError(t, err)
	assert.Equal(t, view, decoded)
}

func TestViewStateOpenAmountRange(t *testing.T) {
	view := ViewState{Name: "floor", Filter: Filter{AmountRange: &AmountRange{Min: 500}}}
	encoded := view.Encode()
	assert.NotContains(t, encoded, "amount_max")

	decoded, err := DecodeViewState(encoded)
	require.NoError(t, err)
	require.NotNil(t, decoded.Filter.AmountRange)
	assert.Nil(t, decoded.Filter.AmountRange.Max)

	zero := 0.0
	view.Filter.AmountRange = &AmountRange{Max: &zero}
	decoded, err = DecodeViewState(view.Encode())
	require.NoError(t, err)
	require.NotNil(t, decoded.Filter.AmountRange.Max)
	assert.Zero(t, *decoded.Filter.AmountRange.Max)
}

func TestAmountRangeContains(t *testing.T) {
	zero, ten := 0.0, 10.0
	assert.True(t, AmountRange{Max: &zero}.Contains(0))
	assert.False(t, AmountRange{Max: &zero}.Contains(1))
	assert.True(t, AmountRange{Min: 10, Max: &ten}.Contains(10))
	assert.True(t, AmountRange{Min: 5}.Contains(1e9))
	assert.False(t, AmountRange{Min: 5}.Contains(4.99))
}

func TestDecodeViewStateErrors(t *testing.T) {
	_, err := DecodeViewState(map[string]string{"page": "two"})
	assert.ErrorContains(t, err, "page")

	_, err = DecodeViewState(map[string]string{"amount_min": "x"})
	assert.ErrorContains(t, err, "amount_min")

	_, err = DecodeViewState(map[string]string{"amount_max": "lots"})
	assert.ErrorContains(t, err, "amount_max")
}

func TestFilterIsEmpty(t *testing.T) {
	assert.True(t, Filter{}.IsEmpty())
	assert.False(t, Filter{Tags: []string{"x"}}.IsEmpty())
}
