package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type YearFigure struct {
	Count   int64   `json:"count"`
	Density float64 `json:"density"`
}

// CountrySeries is the population of one country for every year in
// [FirstYear, LastYear], ascending.
type CountrySeries struct {
	Country     string
	Years       [SeriesLen]YearFigure
	Development []int64 // counts ordered by year
}

func (c *CountrySeries) Figure(year int) (YearFigure, error) {
	i, ok := YearIndex(year)
	if !ok {
		return YearFigure{}, fmt.Errorf("%w: %d for %s", ErrMissingYear, year, c.Country)
	}
	return c.Years[i], nil
}

// MarshalJSON writes year keys in ascending order followed by "development".
func (c *CountrySeries) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range c.Years {
		fb, err := json.Marshal(f)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, "%q:", strconv.Itoa(FirstYear+i))
		buf.Write(fb)
		buf.WriteByte(',')
	}
	dev := c.Development
	if dev == nil {
		dev = []int64{}
	}
	db, err := json.Marshal(dev)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`"development":`)
	buf.Write(db)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (c *CountrySeries) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	for i := range c.Years {
		key := strconv.Itoa(FirstYear + i)
		v, ok := raw[key]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingYear, key)
		}
		if err := json.Unmarshal(v, &c.Years[i]); err != nil {
			return fmt.Errorf("error decoding year %s: %w", key, err)
		}
	}

	c.Development = nil
	if v, ok := raw["development"]; ok {
		if err := json.Unmarshal(v, &c.Development); err != nil {
			return fmt.Errorf("error decoding development: %w", err)
		}
	}
	return nil
}
