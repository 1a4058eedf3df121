package synth

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnsupportedType = errors.New("synth: unsupported node type")
	ErrInvalidOptions  = errors.New("synth: invalid options")
)

type NamePolicy string

const (
	// PolicyPermutations derives extra names from the primary (initials, reversed order).
	PolicyPermutations NamePolicy = "permutations"
	// PolicySampled draws freshly faked alternate names.
	PolicySampled NamePolicy = "sampled"
	// PolicyMixed picks between the two per slot.
	PolicyMixed NamePolicy = "mixed"
)

const DateLayout = "2006-01-02"

type Options struct {
	NamePolicy             NamePolicy
	MinNameVariants        int
	MaxNameVariants        int
	MaxBirthDateVariants   int
	MaxBirthDateOffsetDays int
	MaxANumbers            int
	ANumberWidth           int
	MinAge                 int
	MaxAge                 int
	// AsOf anchors birth dates; zero means time.Now at construction.
	AsOf time.Time
}

func DefaultOptions() Options {
	return Options{
		NamePolicy:             PolicyPermutations,
		MinNameVariants:        1,
		MaxNameVariants:        5,
		MaxBirthDateVariants:   3,
		MaxBirthDateOffsetDays: 5,
		MaxANumbers:            3,
		ANumberWidth:           10,
		MinAge:                 18,
		MaxAge:                 80,
	}
}

func (o Options) Validate() error {
	switch o.NamePolicy {
	case PolicyPermutations, PolicySampled, PolicyMixed:
	default:
		return fmt.Errorf("%w: unknown name policy %q", ErrInvalidOptions, o.NamePolicy)
	}
	if o.MinNameVariants < 0 || o.MaxNameVariants < o.MinNameVariants {
		return fmt.Errorf("%w: name variants [%d,%d]", ErrInvalidOptions, o.MinNameVariants, o.MaxNameVariants)
	}
	if o.MaxBirthDateVariants < 0 {
		return fmt.Errorf("%w: max birth date variants %d", ErrInvalidOptions, o.MaxBirthDateVariants)
	}
	if o.MaxBirthDateOffsetDays < 1 {
		return fmt.Errorf("%w: birth date offset must be at least one day", ErrInvalidOptions)
	}
	if 2*o.MaxBirthDateOffsetDays < o.MaxBirthDateVariants {
		return fmt.Errorf("%w: %d variants cannot fit in +/-%d days", ErrInvalidOptions, o.MaxBirthDateVariants, o.MaxBirthDateOffsetDays)
	}
	if o.MaxANumbers < 0 {
		return fmt.Errorf("%w: max anumbers %d", ErrInvalidOptions, o.MaxANumbers)
	}
	if o.ANumberWidth < 4 || o.ANumberWidth > 18 {
		return fmt.Errorf("%w: anumber width %d outside [4,18]", ErrInvalidOptions, o.ANumberWidth)
	}
	if o.MinAge < 0 || o.MaxAge < o.MinAge {
		return fmt.Errorf("%w: age range [%d,%d]", ErrInvalidOptions, o.MinAge, o.MaxAge)
	}
	return nil
}
