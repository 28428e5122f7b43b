package issue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Status
	}{
		{"empty means not reviewed", "", StatusNotReviewed},
		{"legacy spaced form", "not reviewed", StatusNotReviewed},
		{"canonical not_reviewed", "not_reviewed", StatusNotReviewed},
		{"accepted", "accepted", StatusAccepted},
		{"dismissed", "dismissed", StatusDismissed},
		{"unknown passes through", "archived", Status("archived")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeStatus(tt.in))
		})
	}
}

func TestNewModifiedFields(t *testing.T) {
	t.Run("both empty returns nil", func(t *testing.T) {
		assert.Nil(t, NewModifiedFields("", ""))
	})

	t.Run("single field set", func(t *testing.T) {
		mf := NewModifiedFields("clearer wording", "")
		require.NotNil(t, mf)
		assert.Equal(t, "clearer wording", mf.Explanation)
		assert.Empty(t, mf.SuggestedFix)
	})

	t.Run("empty field omitted on the wire", func(t *testing.T) {
		data, err := json.Marshal(NewModifiedFields("clearer wording", ""))
		require.NoError(t, err)
		assert.JSONEq(t, `{"explanation":"clearer wording"}`, string(data))
	})
}

func TestReviewed(t *testing.T) {
	assert.False(t, Issue{Status: StatusNotReviewed}.Reviewed())
	assert.False(t, Issue{Status: Status("not reviewed")}.Reviewed(), "legacy status is still pending")
	assert.False(t, Issue{}.Reviewed())
	assert.True(t, Issue{Status: StatusAccepted}.Reviewed())
	assert.True(t, Issue{Status: StatusDismissed}.Reviewed())
}

func TestEffectiveFields(t *testing.T) {
	base := Issue{Explanation: "original explanation", SuggestedFix: "original fix"}

	t.Run("no overrides", func(t *testing.T) {
		assert.Equal(t, "original explanation", base.EffectiveExplanation())
		assert.Equal(t, "original fix", base.EffectiveSuggestedFix())
	})

	t.Run("partial override", func(t *testing.T) {
		i := base
		i.Modified = &ModifiedFields{Explanation: "edited explanation"}
		assert.Equal(t, "edited explanation", i.EffectiveExplanation())
		assert.Equal(t, "original fix", i.EffectiveSuggestedFix())
	})

	t.Run("full override", func(t *testing.T) {
		i := base
		i.Modified = &ModifiedFields{Explanation: "edited explanation", SuggestedFix: "edited fix"}
		assert.Equal(t, "edited explanation", i.EffectiveExplanation())
		assert.Equal(t, "edited fix", i.EffectiveSuggestedFix())
	})
}
