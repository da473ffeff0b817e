package reconcile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servicedesk/backend/internal/reconcile"
)

func TestValueOfCounts(t *testing.T) {
	set, ok := reconcile.Denominations("INR")
	require.True(t, ok)

	total := reconcile.Value(set, map[string]int64{"note500": 2, "coin5": 3})
	assertAmount(t, "1015", total, "total")
}

func TestValueIgnoresUnknownKeys(t *testing.T) {
	set, _ := reconcile.Denominations("inr")

	total := reconcile.Value(set, map[string]int64{"note100": 1, "note7": 40})
	assertAmount(t, "100", total, "total")
}

func TestValueEveryINRFace(t *testing.T) {
	set, _ := reconcile.Denominations(reconcile.DefaultCurrency)
	counts := make(map[string]int64, len(set))
	for _, d := range set {
		counts[d.Key] = 1
	}

	assertAmount(t, "2888", reconcile.Value(set, counts), "one of each")
}

func TestLinesFollowFaceValueOrder(t *testing.T) {
	set, _ := reconcile.Denominations("INR")

	lines := reconcile.Lines(set, map[string]int64{"coin1": 4, "note2000": 1})
	require.Len(t, lines, len(set))
	assert.Equal(t, "note2000", lines[0].Key)
	assert.Equal(t, int64(1), lines[0].Count)
	assert.Equal(t, "coin1", lines[len(lines)-1].Key)
	assert.Equal(t, int64(4), lines[len(lines)-1].Count)
	assert.Equal(t, int64(0), lines[1].Count)
}

func TestDenominationsUnknownCurrency(t *testing.T) {
	_, ok := reconcile.Denominations("XYZ")
	assert.False(t, ok)
	assert.Equal(t, []string{"IDR", "INR"}, reconcile.SupportedCurrencies())
}

func TestDenominationsReturnsCopy(t *testing.T) {
	set, _ := reconcile.Denominations("INR")
	set[0].Key = "mutated"

	again, _ := reconcile.Denominations("INR")
	assert.Equal(t, "note2000", again[0].Key)
}
