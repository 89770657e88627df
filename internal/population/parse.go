package population

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mr1hm/disaster-adpy/internal/models"
)

// ParseCount converts a WPP population field, given in thousands with a
// variable number of decimals, into a head count. The digits are read with
// every "." removed; a field without exactly one "." is multiplied by 1000
// and a field with fewer than three decimals is scaled up by the missing
// powers of ten:
//
//	"1234"     -> 1234000
//	"1.234"    -> 1234
//	"1234.5"   -> 1234500
//	"1.234.5"  -> 12345000
//
// More than three decimals scale down with truncation.
func ParseCount(field string) (int64, error) {
	field = strings.TrimSpace(field)

	digits := strings.ReplaceAll(field, ".", "")
	count, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: population %q", models.ErrMalformedNumber, field)
	}

	parts := strings.Split(field, ".")
	if len(parts) != 2 {
		return count * 1000, nil
	}

	decimals := len(parts[1])
	switch {
	case decimals < 3:
		count *= pow10(3 - decimals)
	case decimals > 3:
		// A head count is whole: "1.2345" is 1234.5 people and becomes 1234.
		// Integer division truncates toward zero.
		count /= pow10(decimals - 3)
	}
	return count, nil
}

func pow10(n int) int64 {
	p := int64(1)
	for i := 0; i < n; i++ {
		p *= 10
	}
	return p
}

func parseDensity(field string) (float64, error) {
	d, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: density %q", models.ErrMalformedNumber, field)
	}
	return d, nil
}

func parseYear(field string) (int, error) {
	y, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil {
		return 0, fmt.Errorf("%w: year %q", models.ErrMalformedNumber, field)
	}
	return y, nil
}
