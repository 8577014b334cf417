package core

import (
	"sort"
	"strings"
)

// Canonicalize sorts the manifest into its deterministic form: dependency
// and source lists become sorted sets, image contents sort by entry purl.
// Mapping keys need no work because every struct declares its JSON fields in
// sorted key order. Builds over permutations of one record set marshal to
// identical bytes afterwards.
func (m *Manifest) Canonicalize() {
	for i := range m.ImageContents {
		e := &m.ImageContents[i]
		e.Dependencies = canonicalRefs(e.Dependencies)
		e.Sources = canonicalRefs(e.Sources)
	}

	sort.SliceStable(m.ImageContents, func(i, j int) bool {
		return entryLess(&m.ImageContents[i], &m.ImageContents[j])
	})
}

// canonicalRefs sorts refs by purl and drops duplicates in place.
func canonicalRefs(refs []PurlRef) []PurlRef {
	if len(refs) < 2 {
		return refs
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Purl < refs[j].Purl })

	out := refs[:1]
	for _, r := range refs[1:] {
		if r.Purl != out[len(out)-1].Purl {
			out = append(out, r)
		}
	}
	return out
}

// entryLess orders entries by purl, then by their dependency and source
// lists so entries sharing a purl still order totally.
func entryLess(a, b *Entry) bool {
	if a.Purl != b.Purl {
		return a.Purl < b.Purl
	}
	if c := compareRefs(a.Dependencies, b.Dependencies); c != 0 {
		return c < 0
	}
	return compareRefs(a.Sources, b.Sources) < 0
}

func compareRefs(a, b []PurlRef) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := strings.Compare(a[i].Purl, b[i].Purl); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}
