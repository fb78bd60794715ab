package ident

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const defaultMaxAttempts = 64

// ErrGeneratorExhausted is returned when the UUID source keeps producing
// values that collide with the identifiers being replaced.
var ErrGeneratorExhausted = errors.New("uuid source exhausted without a collision-free value")

// Source produces candidate UUIDs.
type Source func() (uuid.UUID, error)

// Generator builds collision-free replacement mappings.
type Generator struct {
	source      Source
	maxAttempts int
}

type GeneratorOption func(*Generator)

// WithSource replaces the default crypto/rand backed source.
func WithSource(src Source) GeneratorOption {
	return func(g *Generator) {
		g.source = src
	}
}

// WithMaxAttempts bounds the draws spent on a single identifier.
func WithMaxAttempts(n int) GeneratorOption {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{
		source:      uuid.NewRandom,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate assigns a fresh UUID to every member of ids. A draw equal to any
// original identifier or to an earlier replacement is discarded and redrawn.
func (g *Generator) Generate(ids Set) (Mapping, error) {
	mapping := make(Mapping, len(ids))
	assigned := make(Set, len(ids))

	// Sorted so a deterministic source yields a deterministic mapping.
	for _, old := range ids.Sorted() {
		repl, err := g.draw(ids, assigned)
		if err != nil {
			return nil, fmt.Errorf("failed to generate replacement for %s: %w", old, err)
		}
		mapping[old] = repl
		assigned.Add(repl)
	}
	return mapping, nil
}

// New returns one fresh UUID that is not a member of either set.
func (g *Generator) New(originals, assigned Set) (string, error) {
	return g.draw(originals, assigned)
}

func (g *Generator) draw(originals, assigned Set) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		u, err := g.source()
		if err != nil {
			return "", err
		}
		candidate := Canonical(u.String())
		if originals.Has(candidate) || assigned.Has(candidate) {
			continue
		}
		return candidate, nil
	}
	return "", ErrGeneratorExhausted
}
