// Package query composes listing queries from a declarative specification and
// untrusted request parameters.
//
// A Spec is an allow-list: only the searchable fields, filters and sort fields
// it names ever reach the database. Anything else in the request is dropped.
// Specs are resolved against the GORM schema of the listed model when the
// Composer is built, so a bad field name fails at startup instead of per
// request.
//
// Field paths use "." to traverse relations. A path such as "qualities.name"
// is matched through an EXISTS subquery scoped to the related table; longer
// paths nest one subquery per hop.
package query

import (
	"errors"

	"gorm.io/gorm"
)

// ErrInvalidSpec is returned when a Spec cannot be resolved against its model.
var ErrInvalidSpec = errors.New("invalid query specification")

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

type Sort struct {
	Field     string
	Direction Direction
}

type RuleKind int

const (
	RuleColumn RuleKind = iota
	RuleScope
	RuleCustom
)

func (k RuleKind) String() string {
	switch k {
	case RuleColumn:
		return "column"
	case RuleScope:
		return "scope"
	case RuleCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// ScopeFunc is a named, reusable predicate applied with the filter value.
type ScopeFunc func(db *gorm.DB, value any) *gorm.DB

// PredicateFunc receives the filter value and the in-progress query.
type PredicateFunc func(value any, db *gorm.DB) *gorm.DB

type FilterRule struct {
	Kind      RuleKind
	Field     string
	Name      string
	Scope     ScopeFunc
	Predicate PredicateFunc
}

// Column matches a column exactly, or with IN when the value is a list.
func Column(field string) FilterRule {
	return FilterRule{Kind: RuleColumn, Field: field}
}

func NamedScope(name string, fn ScopeFunc) FilterRule {
	return FilterRule{Kind: RuleScope, Name: name, Scope: fn}
}

func Custom(fn PredicateFunc) FilterRule {
	return FilterRule{Kind: RuleCustom, Predicate: fn}
}

type Spec struct {
	SearchableFields  []string
	AllowedFilters    map[string]FilterRule
	AllowedSortFields []string
	DefaultSort       Sort
	DefaultPerPage    int
}

// Page is the listing envelope returned to clients.
type Page[T any] struct {
	Data        []T   `json:"data"`
	Total       int64 `json:"total"`
	PerPage     int   `json:"per_page"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
}
