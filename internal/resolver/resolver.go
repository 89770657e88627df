// Package resolver maps disaster dataset country names onto population
// dataset country names.
package resolver

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/mr1hm/disaster-adpy/internal/models"
)

type Resolver interface {
	Resolve(country string) (string, error)
}

// Aliases corrects historical and diverging spellings of the disaster
// dataset before matching. Targets may be fragments of a population name.
var Aliases = map[string]string{
	"Azores Islands":                              "Portugal",
	"Côte d’Ivoire":                               "ivoire",
	"Soviet Union":                                "Russian Federation",
	"Korea (the Republic of)":                     "Republic of Korea",
	"Tanzania, United Republic of":                "United Republic of Tanzania",
	"Yugoslavia":                                  "Serbia",
	"Palestine, State of":                         "State of Palestine",
	"Korea (the Democratic People's Republic of)": "Dem. People's Republic of Korea",
	"Swaziland":                                   "Eswatini",
	"Virgin Island (U.S.)":                        "United States Virgin Islands",
	"Virgin Island (British)":                     "United States Virgin Islands",
	"Macedonia (the former Yugoslav Republic of)": "North Macedonia",
	"Czech Republic (the)":                        "Czechia",
	"Moldova (the Republic of)":                   "Republic of Moldova",
	"Canary Is":                                   "Spain",
}

// SubstringResolver applies an alias table, then returns the first registry
// entry that contains the name or is contained in it, ignoring case. The
// first match wins even when a later entry would match more closely.
type SubstringResolver struct {
	aliases  map[string]string
	registry []string
	folded   []string
}

func NewSubstringResolver(registry []string, aliases map[string]string) *SubstringResolver {
	if aliases == nil {
		aliases = Aliases
	}
	folded := make([]string, len(registry))
	for i, c := range registry {
		folded[i] = fold(c)
	}
	return &SubstringResolver{
		aliases:  aliases,
		registry: registry,
		folded:   folded,
	}
}

func (r *SubstringResolver) Resolve(country string) (string, error) {
	target := country
	if alias, ok := r.aliases[country]; ok {
		target = alias
	}
	t := fold(target)

	for i, candidate := range r.folded {
		if strings.Contains(candidate, t) || strings.Contains(t, candidate) {
			return r.registry[i], nil
		}
	}
	return "", fmt.Errorf("%w: %q", models.ErrUnresolvedCountry, country)
}

func fold(s string) string {
	return cases.Fold().String(s)
}
