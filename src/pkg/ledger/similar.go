package ledger

import (
	"strings"
	"unicode"

	"github.com/schollz/closestmatch"
)

const (
	ReasonSameLetters  = "same-letters" // equal once case, spacing and punctuation are ignored
	ReasonNearSpelling = "near-spelling"
)

// Similar is a pair of customer names that probably belong to the same account.
type Similar struct {
	Name   string `json:"name"`
	Match  string `json:"match"`
	Reason string `json:"reason"`
}

/*
SimilarNames lists customer names that look like duplicates of each other.

Grouping stays exact, so "Acme Ltd" and "ACME LTD." end up in separate
ledgers. This only produces warnings for the operator. Pairs come back in
ledger order, each pair once.
*/
func SimilarNames(portfolio Portfolio) []Similar {
	found := []Similar{}
	if len(portfolio.Ledgers) < 2 {
		return found
	}

	keys := make([]string, 0, len(portfolio.Ledgers))
	namesByKey := map[string][]string{}
	order := map[string]int{}
	for index, ledger := range portfolio.Ledgers {
		key := nameKey(ledger.Name)
		order[ledger.Name] = index
		if _, seen := namesByKey[key]; !seen && key != "" {
			keys = append(keys, key)
		}
		namesByKey[key] = append(namesByKey[key], ledger.Name)
	}

	reported := map[[2]string]bool{}
	report := func(first, second, reason string) {
		if order[second] < order[first] {
			first, second = second, first
		}
		pair := [2]string{first, second}
		if reported[pair] {
			return
		}
		reported[pair] = true
		found = append(found, Similar{Name: first, Match: second, Reason: reason})
	}

	for _, key := range keys {
		names := namesByKey[key]
		for index := 1; index < len(names); index++ {
			report(names[0], names[index], ReasonSameLetters)
		}
	}

	if len(keys) < 2 {
		return found
	}
	matcher := closestmatch.New(keys, []int{2, 3})
	for _, key := range keys {
		for _, candidate := range matcher.ClosestN(key, 2) {
			if candidate == key || !nearSpelling(key, candidate) {
				continue
			}
			report(namesByKey[key][0], namesByKey[candidate][0], ReasonNearSpelling)
		}
	}
	return found
}

// nameKey keeps lowercase letters and digits only.
func nameKey(name string) string {
	var builder strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

// short names like "abc" and "abd" are different customers, not typos
func nearSpelling(first, second string) bool {
	shorter := min(len([]rune(first)), len([]rune(second)))
	if shorter < 5 {
		return false
	}
	allowed := 1
	if shorter >= 10 {
		allowed = 2
	}
	return editDistance(first, second) <= allowed
}

func editDistance(first, second string) int {
	a, b := []rune(first), []rune(second)
	previous := make([]int, len(b)+1)
	current := make([]int, len(b)+1)
	for j := range previous {
		previous[j] = j
	}
	for i := 1; i <= len(a); i++ {
		current[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			current[j] = min(previous[j]+1, current[j-1]+1, previous[j-1]+cost)
		}
		previous, current = current, previous
	}
	return previous[len(b)]
}
