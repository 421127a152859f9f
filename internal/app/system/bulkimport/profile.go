// internal/app/system/bulkimport/profile.go
package bulkimport

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dalemusser/pharmahub/internal/app/system/sheet"
)

// Entity identifies one importable collection. Its value is the URL
// segment and the API plural key.
type Entity string

const (
	Municipalities Entity = "municipalities"
	States         Entity = "states"
	Pharmacies     Entity = "pharmacies"
	SubPharmacies  Entity = "sub-pharmacies"
)

// ErrUnknownEntity is returned by Lookup.
var ErrUnknownEntity = errors.New("unknown import entity")

// Column is one spreadsheet column. The mapper reads Header first and Key
// second.
type Column struct {
	Header string
	Key    string
	Width  float64
}

// Candidate is a mapped row ready for submission. Cells returns the preview
// text aligned with the profile's Columns.
type Candidate interface {
	Cells() []string
}

// MapFunc turns one decoded row into a candidate. It must not do I/O.
type MapFunc func(sheet.Row, Context) Candidate

// Profile carries everything that differs between the importers.
type Profile struct {
	Entity    Entity
	Label     string
	Endpoint  string
	PluralKey string

	BatchSize  int
	BatchDelay time.Duration

	Requires []ContextKey
	Columns  []Column
	Samples  [][]any

	// TemplateSlug is the <entity> part of plantilla_<entity>.xlsx.
	TemplateSlug string

	Map MapFunc
}

// MapAll maps every row with the given context. Callers re-run it whenever
// the context changes.
func (p Profile) MapAll(rows []sheet.Row, c Context) ([]Candidate, error) {
	if err := c.Check(p.Requires); err != nil {
		return nil, err
	}
	out := make([]Candidate, len(rows))
	for i, r := range rows {
		out[i] = p.Map(r, c)
	}
	return out, nil
}

// Headers returns the localized header row.
func (p Profile) Headers() []string {
	h := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		h[i] = c.Header
	}
	return h
}

// Tuning overrides the pacing of one entity. Zero fields keep the default.
type Tuning struct {
	BatchSize  int
	BatchDelay time.Duration
}

// WithTuning returns a copy of p with t applied.
func (p Profile) WithTuning(t Tuning) Profile {
	if t.BatchSize > 0 {
		p.BatchSize = t.BatchSize
	}
	if t.BatchDelay > 0 {
		p.BatchDelay = t.BatchDelay
	}
	return p
}

// Registry holds the profiles in use, possibly with tuned pacing.
type Registry struct {
	profiles map[Entity]Profile
}

// NewRegistry returns a registry of the built-in profiles with the given
// per-entity overrides applied.
func NewRegistry(overrides map[Entity]Tuning) *Registry {
	r := &Registry{profiles: make(map[Entity]Profile)}
	for _, p := range builtin() {
		r.profiles[p.Entity] = p.WithTuning(overrides[p.Entity])
	}
	return r
}

// Lookup finds the profile for name, matching case-insensitively.
func (r *Registry) Lookup(name string) (Profile, error) {
	p, ok := r.profiles[Entity(strings.ToLower(strings.TrimSpace(name)))]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownEntity, name)
	}
	return p, nil
}

// All returns the profiles ordered by entity name.
func (r *Registry) All() []Profile {
	out := make([]Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Entity < out[j].Entity })
	return out
}

func builtin() []Profile {
	return []Profile{
		municipalityProfile(),
		stateProfile(),
		pharmacyProfile(),
		subPharmacyProfile(),
	}
}
