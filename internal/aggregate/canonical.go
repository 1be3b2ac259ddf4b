// Package aggregate computes scalar statistics and per-area crash counts for
// a filtered record subset.
package aggregate

import (
	_ "embed"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// aliasesYAML is the default alias table, shipped with the binary so the
// mapping can be updated without touching logic.
//
//go:embed aliases.yaml
var aliasesYAML []byte

// Canonicalizer resolves the alias spellings of administrative area names
// found in source data to one canonical name each. Unmapped names pass
// through verbatim: an unknown spelling is its own canonical form, never
// merged into a neighbour.
type Canonicalizer struct {
	byAlias map[string]string // normalized alias → canonical
	titler  cases.Caser
}

// NewCanonicalizer loads the embedded alias table.
func NewCanonicalizer() (*Canonicalizer, error) {
	return parseAliases(aliasesYAML)
}

// NewCanonicalizerFromFile loads an alias table override from disk.
func NewCanonicalizerFromFile(path string) (*Canonicalizer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "aggregate: read alias table %s", path)
	}
	return parseAliases(raw)
}

func parseAliases(raw []byte) (*Canonicalizer, error) {
	var table map[string][]string
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return nil, eris.Wrap(err, "aggregate: parse alias table")
	}

	c := &Canonicalizer{
		byAlias: make(map[string]string),
		titler:  cases.Title(language.English),
	}
	for canonical, aliases := range table {
		// The canonical spelling resolves to itself.
		c.byAlias[normalizeArea(canonical)] = canonical
		for _, a := range aliases {
			key := normalizeArea(a)
			if prev, dup := c.byAlias[key]; dup && prev != canonical {
				return nil, eris.Errorf("aggregate: alias %q maps to both %q and %q", a, prev, canonical)
			}
			c.byAlias[key] = canonical
		}
	}

	zap.L().Debug("alias table loaded", zap.Int("aliases", len(c.byAlias)))
	return c, nil
}

// Resolve maps a raw area name to its canonical form. Blank input stays
// blank; unknown names pass through unchanged.
func (c *Canonicalizer) Resolve(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if canonical, ok := c.byAlias[normalizeArea(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

// DisplayName renders a canonical name for presentation. Known names are
// already cased in the asset; raw ALL-CAPS pass-throughs are title-cased.
func (c *Canonicalizer) DisplayName(canonical string) string {
	if canonical == strings.ToUpper(canonical) {
		return c.titler.String(strings.ToLower(canonical))
	}
	return canonical
}

func normalizeArea(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	// Source exports vary in punctuation and council-type suffixes.
	s = strings.NewReplacer(".", "", ",", "", "  ", " ").Replace(s)
	return s
}
