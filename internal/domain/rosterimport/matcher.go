package rosterimport

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"trainingops/internal/domain/reference"
)

// RuleKind tags a matcher rule variant.
type RuleKind string

// Rule variants.
const (
	RuleExact       RuleKind = "exact"
	RuleDomainAlias RuleKind = "domain_alias"
	RuleContains    RuleKind = "contains"
	RuleFuzzy       RuleKind = "fuzzy"
)

// Rule resolves a folded free-text label against a reference table.
// Implementations must not modify the table.
type Rule interface {
	Kind() RuleKind
	Match(label string, table reference.Table) (string, bool)
}

// ExactRule matches when the label equals an entry name, ignoring case and spacing.
type ExactRule struct{}

// Kind implements Rule.
func (ExactRule) Kind() RuleKind { return RuleExact }

// Match implements Rule.
func (ExactRule) Match(label string, table reference.Table) (string, bool) {
	for _, e := range table.Entries {
		if foldCell(e.Name) == label {
			return e.ID, true
		}
	}
	return "", false
}

// DomainAliasRule matches a label and an entry that mention the same keyword family,
// e.g. any "мед. представитель ..." label against the "Медицинский представитель" entry.
type DomainAliasRule struct {
	Families [][]string
}

// Kind implements Rule.
func (DomainAliasRule) Kind() RuleKind { return RuleDomainAlias }

// Match implements Rule.
func (r DomainAliasRule) Match(label string, table reference.Table) (string, bool) {
	for _, fam := range r.Families {
		if !containsAny(label, fam) {
			continue
		}
		for _, e := range table.Entries {
			if containsAny(foldCell(e.Name), fam) {
				return e.ID, true
			}
		}
	}
	return "", false
}

// ContainsRule matches when one side contains the other.
// Both sides must be at least MinLength runes so that "A" does not match everything.
type ContainsRule struct {
	MinLength int
}

// Kind implements Rule.
func (ContainsRule) Kind() RuleKind { return RuleContains }

// Match implements Rule.
func (r ContainsRule) Match(label string, table reference.Table) (string, bool) {
	if utf8.RuneCountInString(label) < r.MinLength {
		return "", false
	}
	for _, e := range table.Entries {
		name := foldCell(e.Name)
		if utf8.RuneCountInString(name) < r.MinLength {
			continue
		}
		if strings.Contains(name, label) || strings.Contains(label, name) {
			return e.ID, true
		}
	}
	return "", false
}

// FuzzyRule matches labels whose characters appear in order inside an entry name,
// ranked by Levenshtein distance. MinCoverage is the share of the entry name the
// label must account for.
type FuzzyRule struct {
	MinLength   int
	MinCoverage float64
}

// Kind implements Rule.
func (FuzzyRule) Kind() RuleKind { return RuleFuzzy }

// Match implements Rule.
func (r FuzzyRule) Match(label string, table reference.Table) (string, bool) {
	if utf8.RuneCountInString(label) < r.MinLength || table.Len() == 0 {
		return "", false
	}
	names := table.Names()
	for i, n := range names {
		names[i] = foldCell(n)
	}
	ranks := fuzzy.RankFindNormalizedFold(label, names)
	if len(ranks) == 0 {
		return "", false
	}
	slices.SortStableFunc(ranks, func(a, b fuzzy.Rank) int {
		if a.Distance != b.Distance {
			return a.Distance - b.Distance
		}
		return a.OriginalIndex - b.OriginalIndex
	})
	best := ranks[0]
	total := utf8.RuneCountInString(best.Target)
	if total == 0 {
		return "", false
	}
	if float64(total-best.Distance)/float64(total) < r.MinCoverage {
		return "", false
	}
	return table.Entries[best.OriginalIndex].ID, true
}

// DefaultAliasFamilies groups spellings that refer to the same job title or territory.
var DefaultAliasFamilies = [][]string{
	{"медицинский представитель", "мед. представитель", "медпредставитель", "медпред", "medical representative", "medical rep"},
	{"торговый представитель", "sales representative", "sales rep"},
	{"региональный менеджер", "regional manager"},
	{"супервайзер", "supervisor"},
	{"тренер", "trainer"},
	{"санкт-петербург", "петербург", "спб", "saint petersburg", "st. petersburg"},
	{"москва", "moscow"},
}

// DefaultRules is the rule order used for both positions and territories.
func DefaultRules() []Rule {
	return []Rule{
		ExactRule{},
		DomainAliasRule{Families: DefaultAliasFamilies},
		ContainsRule{MinLength: 4},
		FuzzyRule{MinLength: 3, MinCoverage: 0.6},
	}
}

// Matcher resolves free-text labels to reference entry IDs by evaluating rules in order.
type Matcher struct {
	Rules []Rule
}

// NewMatcher returns a Matcher with DefaultRules.
func NewMatcher() Matcher {
	return Matcher{Rules: DefaultRules()}
}

// Match returns the ID of the entry the label resolves to.
// PRE: none
// POST: ok=false for an empty label or when no rule matches; the table is never modified
// INVARIANT: the same (label, table) pair always yields the same result
func (m Matcher) Match(label string, table reference.Table) (string, bool) {
	id, _, ok := m.MatchWithRule(label, table)
	return id, ok
}

// MatchWithRule is Match that also reports which rule produced the hit.
func (m Matcher) MatchWithRule(label string, table reference.Table) (string, RuleKind, bool) {
	folded := foldCell(label)
	if folded == "" || table.Len() == 0 {
		return "", "", false
	}
	for _, r := range m.Rules {
		if id, ok := r.Match(folded, table); ok {
			return id, r.Kind(), true
		}
	}
	return "", "", false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
