package vc

import "fmt"

// Variant selects one of the deployed protocol dialects.
type Variant struct {
	Name string
	// Terminator ends both command and reply lines.
	Terminator byte
	// CeilingVerb sets the throttle ceiling.
	CeilingVerb Verb
	// DomainMax is the largest magnitude accepted by T and the ceiling verb.
	DomainMax float64
	// DefaultCeiling is the ceiling after power-up.
	DefaultCeiling float64
}

// Known variants.
var (
	// VariantLF uses line-feed and a normalized 0..1 throttle.
	VariantLF = Variant{
		Name:           "lf",
		Terminator:     '\n',
		CeilingVerb:    VerbMaxThrottle,
		DomainMax:      1,
		DefaultCeiling: 1,
	}
	// VariantCR uses carriage-return and a 0..100 percent throttle.
	VariantCR = Variant{
		Name:           "cr",
		Terminator:     '\r',
		CeilingVerb:    VerbLimit,
		DomainMax:      100,
		DefaultCeiling: 100,
	}
)

// VariantByName looks up a known variant.
func VariantByName(name string) (Variant, error) {
	switch name {
	case VariantLF.Name, "":
		return VariantLF, nil
	case VariantCR.Name:
		return VariantCR, nil
	}
	return Variant{}, fmt.Errorf("unknown protocol variant %q", name)
}

// String implements fmt.Stringer.
func (v Variant) String() string {
	return v.Name
}
