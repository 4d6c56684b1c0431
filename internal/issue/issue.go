// SPDX-License-Identifier: MPL-2.0

// Package issue provides the error types shared across the build pipeline.
// Every failure surfaced to the operator carries a Category describing which
// stage of the pipeline rejected the request, plus optional actionable
// context (operation, resource, suggestions).
package issue

import "errors"

// Category classifies a pipeline failure.
type Category int

const (
	// CategoryUnknown is the zero value for errors raised outside the pipeline.
	CategoryUnknown Category = iota
	// CategoryConfig covers conflicting or missing flags and an unresolvable toolchain.
	CategoryConfig
	// CategoryPreflight covers missing required workspace paths, reported as a batch.
	CategoryPreflight
	// CategoryConnectivity covers unreachable remote hosts and unavailable container engines.
	CategoryConnectivity
	// CategoryToolchain covers a nonzero exit from the external build tool.
	CategoryToolchain
	// CategoryArtifact covers missing build output and a missing packaging tool
	// when conversion is mandatory.
	CategoryArtifact
	// CategoryVerification covers post-operation state checks. Verification
	// failures are surfaced as warnings and never abort the pipeline.
	CategoryVerification
)

// String returns the operator-facing name of the category.
func (c Category) String() string {
	switch c {
	case CategoryConfig:
		return "config"
	case CategoryPreflight:
		return "preflight"
	case CategoryConnectivity:
		return "connectivity"
	case CategoryToolchain:
		return "toolchain"
	case CategoryArtifact:
		return "artifact"
	case CategoryVerification:
		return "verification"
	default:
		return "unknown"
	}
}

// CategoryOf returns the category of the first ActionableError in err's
// chain, or CategoryUnknown if there is none.
func CategoryOf(err error) Category {
	var ae *ActionableError
	if errors.As(err, &ae) {
		return ae.Category
	}
	return CategoryUnknown
}
