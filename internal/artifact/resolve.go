// SPDX-License-Identifier: MPL-2.0

package artifact

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"bitsmith-cli/internal/board"
	"bitsmith-cli/internal/issue"
)

// Candidates returns the fixed, ordered set of file names the toolchain is
// known to produce in an output directory. Order encodes priority: the
// variant-qualified canonical name first (an earlier canonicalized build of
// the same variant), then the wrapper naming conventions. Resolution never
// falls back to "most recently modified".
func Candidates(v board.Variant) []string {
	return []string{
		CanonicalName(v),
		"system_wrapper.bit",
		"design_1_wrapper.bit",
		"top_wrapper.bit",
		"top.bit",
	}
}

// Resolve scans the candidate names in priority order and returns the first
// that exists, canonicalized to the variant-qualified name in the same
// directory. Canonicalization copies rather than moves, so a later build of
// a different variant in the same directory cannot be confused with this
// one's output, and the toolchain's original file is left untouched.
func Resolve(outDir string, b board.Board, v board.Variant) (*Artifact, error) {
	var found string
	for _, name := range Candidates(v) {
		p := filepath.Join(outDir, name)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			found = p
			break
		}
	}
	if found == "" {
		return nil, issue.NewErrorContext(issue.CategoryArtifact).
			WithOperation("locate bitstream").
			WithResource(outDir).
			WithSuggestion("Check the toolchain output for a failed implementation run").
			WithSuggestion("Known output names: " + strings.Join(Candidates(v), ", ")).
			Wrap(errors.New("no bitstream found among known output names")).
			BuildError()
	}

	canonical := filepath.Join(outDir, CanonicalName(v))
	if found != canonical {
		if err := copyFile(found, canonical); err != nil {
			return nil, issue.NewErrorContext(issue.CategoryArtifact).
				WithOperation("canonicalize bitstream").
				WithResource(canonical).
				Wrap(err).
				BuildError()
		}
	}

	return &Artifact{
		Path:    canonical,
		Board:   b,
		Variant: v,
		Format:  FormatRawBitstream,
	}, nil
}

// NewerCandidate reports a lower-priority candidate in outDir that is newer
// than the variant's canonical file. A hit means the canonical file is a
// stale earlier build shadowing fresher toolchain output; callers surface
// this as a warning, the resolution order itself never changes.
func NewerCandidate(outDir string, v board.Variant) (string, bool) {
	canonical, err := os.Stat(filepath.Join(outDir, CanonicalName(v)))
	if err != nil {
		return "", false
	}
	for _, name := range Candidates(v)[1:] {
		info, err := os.Stat(filepath.Join(outDir, name))
		if err == nil && info.Mode().IsRegular() && info.ModTime().After(canonical.ModTime()) {
			return name, true
		}
	}
	return "", false
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying to %s: %w", dst, err)
	}
	return out.Close()
}
