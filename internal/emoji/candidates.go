package emoji

import (
	"fmt"
	"strings"
)

// Variation selector and keycap tokens in lowercase hex form.
const (
	tokenVS15   = "fe0e"
	tokenVS16   = "fe0f"
	tokenKeycap = "20e3"
)

// Codepoints returns the hyphen-joined lowercase hex codepoint string for
// a grapheme cluster, preserving variation selectors and zero-width
// joiners. This is the asset-naming convention of twemoji-style packs.
func Codepoints(grapheme string) string {
	var parts []string
	for _, r := range grapheme {
		parts = append(parts, fmt.Sprintf("%x", r))
	}
	return strings.Join(parts, "-")
}

// Candidates generates the ordered filename variants probed for one
// codepoint string. Asset packs are inconsistent about trailing variation
// selectors and keycap composition, so several spellings of the same emoji
// are tried. Order defines preference and duplicates are suppressed:
//
//  1. the exact string
//  2. all FE0F/FE0E tokens removed
//  3. FE0E swapped to FE0F
//  4. FE0F appended at the end (only when no FE0F present)
//  5. FE0F inserted after the first codepoint (only when no FE0F present)
//  6. FE0F inserted before a trailing 20E3 keycap (when not already there)
func Candidates(codepoints string) []string {
	var candidates []string
	seen := make(map[string]bool)
	add := func(c string) {
		if c != "" && !seen[c] {
			seen[c] = true
			candidates = append(candidates, c)
		}
	}

	add(codepoints)

	var parts []string
	if codepoints != "" {
		parts = strings.Split(codepoints, "-")
	}

	var noSelectors []string
	for _, p := range parts {
		if p != tokenVS15 && p != tokenVS16 {
			noSelectors = append(noSelectors, p)
		}
	}
	if len(noSelectors) > 0 {
		add(strings.Join(noSelectors, "-"))
	}

	if contains(parts, tokenVS15) {
		swapped := make([]string, len(parts))
		for i, p := range parts {
			if p == tokenVS15 {
				swapped[i] = tokenVS16
			} else {
				swapped[i] = p
			}
		}
		add(strings.Join(swapped, "-"))
	}

	if len(parts) > 0 && !contains(parts, tokenVS16) {
		add(strings.Join(append(append([]string{}, parts...), tokenVS16), "-"))
		inserted := append([]string{parts[0], tokenVS16}, parts[1:]...)
		add(strings.Join(inserted, "-"))
	}

	if len(parts) > 0 && parts[len(parts)-1] == tokenKeycap && !contains(parts[:len(parts)-1], tokenVS16) {
		keycap := append(append([]string{}, parts[:len(parts)-1]...), tokenVS16, tokenKeycap)
		add(strings.Join(keycap, "-"))
	}

	return candidates
}

func contains(parts []string, token string) bool {
	for _, p := range parts {
		if p == token {
			return true
		}
	}
	return false
}
