package query

import (
	"regexp"
	"strings"

	"github.com/dgallion1/navflat/internal/menutree"
)

// Predicate tests a single record.
type Predicate func(menutree.FlatRecord) bool

// RouteContains matches records whose route contains substr. Records
// without a route never match.
func RouteContains(substr string) Predicate {
	return func(r menutree.FlatRecord) bool {
		return r.Route != "" && strings.Contains(r.Route, substr)
	}
}

// RouteHasPrefix matches records whose route starts with prefix.
func RouteHasPrefix(prefix string) Predicate {
	return func(r menutree.FlatRecord) bool {
		return r.Route != "" && strings.HasPrefix(r.Route, prefix)
	}
}

// RouteMatches matches records whose route matches re.
func RouteMatches(re *regexp.Regexp) Predicate {
	return func(r menutree.FlatRecord) bool {
		return r.Route != "" && re.MatchString(r.Route)
	}
}

// LabelContains matches labels containing substr, ignoring case.
func LabelContains(substr string) Predicate {
	needle := strings.ToLower(substr)
	return func(r menutree.FlatRecord) bool {
		return strings.Contains(strings.ToLower(r.Label), needle)
	}
}

// AtLevel matches records at the given level.
func AtLevel(level int) Predicate {
	return func(r menutree.FlatRecord) bool {
		return r.Level == level
	}
}

// HasRoute matches navigable records.
func HasRoute() Predicate {
	return func(r menutree.FlatRecord) bool {
		return r.Route != ""
	}
}

// And matches when every predicate does. No predicates match everything.
func And(preds ...Predicate) Predicate {
	return func(r menutree.FlatRecord) bool {
		for _, p := range preds {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

// Or matches when any predicate does.
func Or(preds ...Predicate) Predicate {
	return func(r menutree.FlatRecord) bool {
		for _, p := range preds {
			if p(r) {
				return true
			}
		}
		return false
	}
}

// Not inverts p.
func Not(p Predicate) Predicate {
	return func(r menutree.FlatRecord) bool {
		return !p(r)
	}
}
