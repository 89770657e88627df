package population

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/mr1hm/disaster-adpy/internal/export"
	"github.com/mr1hm/disaster-adpy/internal/models"
)

// Store serves persisted country series, reading each document once.
type Store struct {
	docs  *export.JSONStore
	cache *cache.Cache
}

func NewStore(docs *export.JSONStore) *Store {
	return NewCachedStore(docs, cache.NoExpiration)
}

// NewCachedStore re-reads a country document once ttl has passed, so a
// long-running reader picks up a later normalization run.
func NewCachedStore(docs *export.JSONStore, ttl time.Duration) *Store {
	cleanup := time.Duration(0)
	if ttl > 0 {
		cleanup = 2 * ttl
	}
	return &Store{
		docs:  docs,
		cache: cache.New(ttl, cleanup),
	}
}

// Countries reads the country register.
func (s *Store) Countries() ([]string, error) {
	var countries []string
	if err := s.docs.Read(CountriesFile, &countries); err != nil {
		return nil, err
	}
	return countries, nil
}

func (s *Store) Series(country string) (*models.CountrySeries, error) {
	if cs, ok := s.cache.Get(country); ok {
		return cs.(*models.CountrySeries), nil
	}

	cs := &models.CountrySeries{}
	if err := s.docs.Read(export.FileName(country), cs); err != nil {
		return nil, err
	}
	cs.Country = country
	s.cache.Set(country, cs, cache.DefaultExpiration)
	return cs, nil
}

// Population returns the head count of country in year.
func (s *Store) Population(country string, year int) (float64, error) {
	cs, err := s.Series(country)
	if err != nil {
		return 0, err
	}
	f, err := cs.Figure(year)
	if err != nil {
		return 0, err
	}
	return float64(f.Count), nil
}

// MemorySource adapts in-memory series, such as those of a Normalizer that
// just ran, to the same lookup.
type MemorySource map[string]*models.CountrySeries

func (m MemorySource) Population(country string, year int) (float64, error) {
	cs, ok := m[country]
	if !ok {
		return 0, fmt.Errorf("%w: no series for %s", models.ErrUnresolvedCountry, country)
	}
	f, err := cs.Figure(year)
	if err != nil {
		return 0, err
	}
	return float64(f.Count), nil
}
