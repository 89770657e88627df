package models

const (
	FirstYear = 1920
	LastYear  = 2020
	// SeriesLen is the number of years in [FirstYear, LastYear].
	SeriesLen = LastYear - FirstYear + 1
)

// Series is a per-year metric indexed by year - FirstYear.
type Series [SeriesLen]float64

// YearIndex returns the index of year within a Series and whether it is in range.
func YearIndex(year int) (int, bool) {
	if year < FirstYear || year > LastYear {
		return 0, false
	}
	return year - FirstYear, true
}

func (s Series) Max() float64 {
	m := s[0]
	for _, v := range s[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// Normalized divides s by its maximum. An all-zero series divides by 1.
func (s Series) Normalized() Series {
	div := s.Max()
	if div == 0 {
		div = 1
	}
	var out Series
	for i, v := range s {
		out[i] = v / div
	}
	return out
}

func (s Series) Add(other Series) Series {
	var out Series
	for i := range s {
		out[i] = s[i] + other[i]
	}
	return out
}

// Slice returns the series as a plain slice, for encoders and plotters.
func (s Series) Slice() []float64 {
	out := make([]float64, SeriesLen)
	copy(out, s[:])
	return out
}
