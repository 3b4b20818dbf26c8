package checks

import (
	"fmt"

	"github.com/adlint/adlint/pkg/bundle"
	"github.com/adlint/adlint/pkg/refs"
)

func checkAssetReferences(b *bundle.Bundle, in Input, s Settings) Finding {
	if in.Discovery.Primary == "" {
		return fail("Cannot verify asset references: no primary HTML asset")
	}

	seen := make(map[string]bool)
	var offenders []Offender
	inZip := 0
	for _, ref := range in.Resolution.References {
		if ref.Kind != refs.KindAsset {
			continue
		}
		if ref.InZip {
			inZip++
			continue
		}
		if seen[ref.Normalized] {
			continue
		}
		seen[ref.Normalized] = true
		offenders = append(offenders, Offender{
			Path:   ref.Normalized,
			Detail: fmt.Sprintf("referenced from %s as %q", ref.SourceFile, ref.RawURL),
		})
	}

	if len(offenders) > 0 {
		f := fail(fmt.Sprintf("%d referenced asset(s) missing from the archive", len(offenders)))
		f.Offenders = offenders
		return f
	}
	return pass(fmt.Sprintf("All %d in-bundle references resolve", inZip))
}

func checkOrphanAssets(b *bundle.Bundle, in Input, s Settings) Finding {
	if in.Discovery.Primary == "" {
		return pass("Orphan detection skipped: no primary HTML asset")
	}

	referenced := make(map[string]bool, len(in.Budget.ReferencedPaths))
	for _, p := range in.Budget.ReferencedPaths {
		referenced[p] = true
	}

	var offenders []Offender
	for _, p := range b.Paths() {
		if referenced[p] || bundle.IsSystemArtifact(p) {
			continue
		}
		offenders = append(offenders, Offender{Path: p, Detail: "never referenced from the primary document"})
	}

	if len(offenders) > 0 {
		f := warn(fmt.Sprintf("%d file(s) not reachable from %s; dead weight in the archive",
			len(offenders), in.Discovery.Primary))
		f.Offenders = offenders
		return f
	}
	return pass("Every file is reachable from the primary document")
}
