package reconcile

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"servicedesk/backend/internal/domain"
)

const DefaultCurrency = "INR"

func note(value int64) domain.Denomination {
	return domain.Denomination{Key: "note" + decimal.NewFromInt(value).String(), Kind: "note", FaceValue: decimal.NewFromInt(value)}
}

func coin(value int64) domain.Denomination {
	return domain.Denomination{Key: "coin" + decimal.NewFromInt(value).String(), Kind: "coin", FaceValue: decimal.NewFromInt(value)}
}

// Face values per currency, largest first.
var denominationSets = map[string][]domain.Denomination{
	"INR": {
		note(2000), note(500), note(200), note(100), note(50), note(20), note(10),
		coin(5), coin(2), coin(1),
	},
	"IDR": {
		note(100000), note(50000), note(20000), note(10000), note(5000), note(2000), note(1000),
		coin(1000), coin(500), coin(200), coin(100),
	},
}

// Denominations returns a copy of the face-value list for a currency code.
func Denominations(currency string) ([]domain.Denomination, bool) {
	set, ok := denominationSets[strings.ToUpper(strings.TrimSpace(currency))]
	if !ok {
		return nil, false
	}
	out := make([]domain.Denomination, len(set))
	copy(out, set)
	return out, true
}

func SupportedCurrencies() []string {
	codes := make([]string, 0, len(denominationSets))
	for code := range denominationSets {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Value sums count × face value. Keys outside the set are ignored; counts are
// not validated here.
func Value(set []domain.Denomination, counts map[string]int64) decimal.Decimal {
	total := decimal.Zero
	for _, d := range set {
		count, ok := counts[d.Key]
		if !ok || count == 0 {
			continue
		}
		total = total.Add(d.FaceValue.Mul(decimal.NewFromInt(count)))
	}
	return total
}

// Lines expands counts into one line per face value in set order, zeros included.
func Lines(set []domain.Denomination, counts map[string]int64) []domain.DenominationLine {
	lines := make([]domain.DenominationLine, 0, len(set))
	for _, d := range set {
		lines = append(lines, domain.DenominationLine{
			Key:       d.Key,
			FaceValue: d.FaceValue,
			Count:     counts[d.Key],
		})
	}
	return lines
}
