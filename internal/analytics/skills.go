// Package analytics is the skill-signal core: it turns a raw posting set
// into clustered skill categories, day-over-day trend rankings, and a
// Wilson-bound necessity classification, each with a rendered chart.
package analytics

import (
	"sort"
	"strings"
)

// SentinelNoSkills is the extractor's verbatim "nothing relevant found"
// response. Rows carrying it are dropped before any aggregation.
const SentinelNoSkills = "There are no technical tools, programming languages, or software relevant to jobs in the provided list."

// SkillFieldKind discriminates the raw skill field variants.
type SkillFieldKind int

const (
	SkillFieldMissing SkillFieldKind = iota // field absent or null
	SkillFieldNone                          // explicit "no skills found" sentinel
	SkillFieldText                          // comma/semicolon-delimited free text
	SkillFieldList                          // pre-split list of mentions
)

// RawSkillField is the duck-typed skill column of a posting: missing,
// the sentinel, delimited text, or an already-split list.
type RawSkillField struct {
	kind SkillFieldKind
	text string
	list []string
}

// MissingSkills returns the absent-field variant.
func MissingSkills() RawSkillField { return RawSkillField{kind: SkillFieldMissing} }

// NoSkills returns the explicit sentinel variant.
func NoSkills() RawSkillField { return RawSkillField{kind: SkillFieldNone} }

// SkillText wraps delimited free text. Blank text and the sentinel string
// collapse to their respective variants so callers never check for them.
func SkillText(s string) RawSkillField {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return MissingSkills()
	case s == SentinelNoSkills:
		return NoSkills()
	default:
		return RawSkillField{kind: SkillFieldText, text: s}
	}
}

// SkillList wraps a pre-split list of skill mentions.
func SkillList(items []string) RawSkillField {
	if len(items) == 0 {
		return MissingSkills()
	}
	return RawSkillField{kind: SkillFieldList, list: items}
}

// Kind reports which variant this field holds.
func (f RawSkillField) Kind() SkillFieldKind { return f.kind }

// Tokens normalizes the field into skill tokens: split on comma/semicolon,
// trimmed, lower-cased, empties dropped. Missing and sentinel fields yield
// nil. Duplicates within one posting are preserved (explode semantics).
func (f RawSkillField) Tokens() []string {
	switch f.kind {
	case SkillFieldText:
		return splitTokens(f.text)
	case SkillFieldList:
		var out []string
		for _, item := range f.list {
			out = append(out, splitTokens(item)...)
		}
		return out
	default:
		return nil
	}
}

// UniqueTokens returns the per-posting deduplicated token set in sorted
// order, matching the necessity classifier's one-vote-per-posting rule.
func (f RawSkillField) UniqueTokens() []string {
	toks := f.Tokens()
	if len(toks) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(toks))
	var out []string
	for _, t := range toks {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// splitTokens splits s on comma (semicolons are treated as commas),
// trimming and lower-casing each part and dropping empties.
func splitTokens(s string) []string {
	s = strings.ReplaceAll(s, ";", ",")
	var out []string
	for _, part := range strings.Split(s, ",") {
		t := strings.ToLower(strings.TrimSpace(part))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
