// Package pricing maps a video type and duration to a price.
//
// Two tiers exist: fixed-price types billed a flat fee, and duration brackets
// selected by label and billed a base price up to a ceiling plus a single
// per-extra-minute surcharge beyond it.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"videojobs/internal/core"
)

// FixedPrice is a video type billed a flat fee regardless of duration.
type FixedPrice struct {
	Type  string `yaml:"type"`
	Price int64  `yaml:"price"`
}

// Bracket is a duration-tiered video type.
type Bracket struct {
	Label   string `yaml:"label"`
	Ceiling int    `yaml:"ceiling"`
	Price   int64  `yaml:"price"`
}

// Table holds the full pricing configuration. Order is significant: it is the
// order video types are offered to the user.
type Table struct {
	Fixed       []FixedPrice `yaml:"fixed"`
	Brackets    []Bracket    `yaml:"brackets"`
	ExtraMinute int64        `yaml:"extra_minute"`
}

// Default returns the built-in pricing table.
func Default() Table {
	return Table{
		Fixed: []FixedPrice{
			{Type: "CLIP", Price: 27500},
			{Type: "OPEN", Price: 11000},
			{Type: "SAM", Price: 11000},
			{Type: "Team class", Price: 54648},
		},
		Brackets: []Bracket{
			{Label: "Hasta 5 minutos", Ceiling: 5, Price: 8863},
			{Label: "De 5 a 10 minutos", Ceiling: 10, Price: 17727},
			{Label: "De 11 a 15 minutos", Ceiling: 15, Price: 26590},
			{Label: "De 16 a 20 minutos", Ceiling: 20, Price: 35453},
		},
		ExtraMinute: 1845,
	}
}

// CalculatePrice returns the price for a job. Unknown types price at zero.
// A surcharge that would overflow int64 saturates at math.MaxInt64.
func (t Table) CalculatePrice(videoType string, durationMinutes int) core.Money {
	for _, f := range t.Fixed {
		if f.Type == videoType {
			return core.Money{Pesos: f.Price}
		}
	}
	for _, b := range t.Brackets {
		if b.Label != videoType {
			continue
		}
		if durationMinutes <= b.Ceiling {
			return core.Money{Pesos: b.Price}
		}
		extra := int64(durationMinutes - b.Ceiling)
		if t.ExtraMinute > 0 && extra > (math.MaxInt64-b.Price)/t.ExtraMinute {
			return core.Money{Pesos: math.MaxInt64}
		}
		return core.Money{Pesos: b.Price + extra*t.ExtraMinute}
	}
	return core.Money{}
}

// VideoTypes returns the closed set of types: fixed types first, then bracket
// labels, each in table order.
func (t Table) VideoTypes() []string {
	out := make([]string, 0, len(t.Fixed)+len(t.Brackets))
	for _, f := range t.Fixed {
		out = append(out, f.Type)
	}
	for _, b := range t.Brackets {
		out = append(out, b.Label)
	}
	return out
}

// IsKnown reports whether videoType belongs to the table.
func (t Table) IsKnown(videoType string) bool {
	for _, v := range t.VideoTypes() {
		if v == videoType {
			return true
		}
	}
	return false
}

// Validate checks the table for problems that would make pricing ambiguous.
func (t Table) Validate() error {
	var problems []string
	seen := map[string]bool{}

	for i, f := range t.Fixed {
		name := strings.TrimSpace(f.Type)
		if name == "" {
			problems = append(problems, fmt.Sprintf("fixed[%d]: empty type", i))
			continue
		}
		if seen[name] {
			problems = append(problems, fmt.Sprintf("fixed[%d]: duplicate type %q", i, name))
		}
		seen[name] = true
		if f.Price < 0 {
			problems = append(problems, fmt.Sprintf("fixed[%d]: negative price %d", i, f.Price))
		}
	}

	prevCeiling := 0
	for i, b := range t.Brackets {
		name := strings.TrimSpace(b.Label)
		if name == "" {
			problems = append(problems, fmt.Sprintf("brackets[%d]: empty label", i))
			continue
		}
		if seen[name] {
			problems = append(problems, fmt.Sprintf("brackets[%d]: duplicate label %q", i, name))
		}
		seen[name] = true
		if b.Price < 0 {
			problems = append(problems, fmt.Sprintf("brackets[%d]: negative price %d", i, b.Price))
		}
		if b.Ceiling <= prevCeiling {
			problems = append(problems, fmt.Sprintf("brackets[%d]: ceiling %d must be greater than %d", i, b.Ceiling, prevCeiling))
		}
		prevCeiling = b.Ceiling
	}

	if t.ExtraMinute < 0 {
		problems = append(problems, fmt.Sprintf("negative extra_minute %d", t.ExtraMinute))
	}
	if len(t.Fixed)+len(t.Brackets) == 0 {
		problems = append(problems, "no video types defined")
	}

	if len(problems) > 0 {
		return errors.New("invalid pricing table:\n- " + strings.Join(problems, "\n- "))
	}
	return nil
}

// Parse decodes a YAML pricing table and validates it.
func Parse(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("decode pricing yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Table{}, err
	}
	return t, nil
}

// LoadFile reads a YAML pricing table. An empty path returns Default().
func LoadFile(path string) (Table, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read pricing file: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return Table{}, fmt.Errorf("pricing file %s: %w", path, err)
	}
	return t, nil
}
