package query

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// DefaultPerPage applies when neither the request nor the Spec set a page size.
const DefaultPerPage = 15

type compiledFilter struct {
	rule FilterRule
	path fieldPath
}

// Composer turns request parameters into a filtered, sorted and paginated
// query over T. It is safe for concurrent use once built.
type Composer[T any] struct {
	spec        Spec
	schema      *schema.Schema
	search      []fieldPath
	filters     map[string]compiledFilter
	filterNames []string
	sortable    map[string]string
	defaultSort *clause.OrderByColumn
	perPage     int
}

type Option func(*options)

type options struct {
	fallback func(*gorm.DB) *gorm.DB
	preloads []string
}

// WithFallbackOrder replaces the default sort when the request names no
// allowed sort field.
func WithFallbackOrder(order func(*gorm.DB) *gorm.DB) Option {
	return func(o *options) {
		o.fallback = order
	}
}

// WithPreload loads the named associations on the data query only.
func WithPreload(associations ...string) Option {
	return func(o *options) {
		o.preloads = append(o.preloads, associations...)
	}
}

func New[T any](db *gorm.DB, spec Spec) (*Composer[T], error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(new(T)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}

	c := &Composer[T]{
		spec:     spec,
		schema:   stmt.Schema,
		filters:  make(map[string]compiledFilter, len(spec.AllowedFilters)),
		sortable: make(map[string]string, len(spec.AllowedSortFields)),
		perPage:  spec.DefaultPerPage,
	}
	if c.perPage <= 0 {
		c.perPage = DefaultPerPage
	}

	for _, field := range spec.SearchableFields {
		path, err := resolvePath(c.schema, field)
		if err != nil {
			return nil, err
		}
		c.search = append(c.search, path)
	}

	for name, rule := range spec.AllowedFilters {
		compiled := compiledFilter{rule: rule}
		switch rule.Kind {
		case RuleColumn:
			path, err := resolvePath(c.schema, rule.Field)
			if err != nil {
				return nil, err
			}
			compiled.path = path
		case RuleScope:
			if rule.Scope == nil {
				return nil, fmt.Errorf("%w: filter %q has no scope function", ErrInvalidSpec, name)
			}
		case RuleCustom:
			if rule.Predicate == nil {
				return nil, fmt.Errorf("%w: filter %q has no predicate", ErrInvalidSpec, name)
			}
		default:
			return nil, fmt.Errorf("%w: filter %q has unknown kind %s", ErrInvalidSpec, name, rule.Kind)
		}
		c.filters[name] = compiled
		c.filterNames = append(c.filterNames, name)
	}
	slices.Sort(c.filterNames)

	for _, field := range spec.AllowedSortFields {
		path, err := resolvePath(c.schema, field)
		if err != nil {
			return nil, err
		}
		if path.nested() {
			return nil, fmt.Errorf("%w: sort field %q must be a column of %s", ErrInvalidSpec, field, c.schema.Name)
		}
		c.sortable[field] = path.column
	}

	if spec.DefaultSort.Field != "" {
		column, ok := c.sortable[spec.DefaultSort.Field]
		if !ok {
			return nil, fmt.Errorf(
				"%w: default sort %q is not an allowed sort field",
				ErrInvalidSpec, spec.DefaultSort.Field,
			)
		}
		c.defaultSort = &clause.OrderByColumn{
			Column: clause.Column{Table: c.schema.Table, Name: column},
			Desc:   spec.DefaultSort.Direction != Asc,
		}
	}

	return c, nil
}

// MustNew is New for package-level registration where a bad Spec is a bug.
func MustNew[T any](db *gorm.DB, spec Spec) *Composer[T] {
	c, err := New[T](db, spec)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Composer[T]) Spec() Spec {
	return c.spec
}

// Filters lists the accepted filter names in order.
func (c *Composer[T]) Filters() []string {
	return slices.Clone(c.filterNames)
}

func (c *Composer[T]) Table() string {
	return c.schema.Table
}

// Filter applies search and filters. Unknown filter names and empty values
// are ignored.
func (c *Composer[T]) Filter(db *gorm.DB, params Params) *gorm.DB {
	if db.Statement.Model == nil && db.Statement.Table == "" {
		db = db.Model(new(T))
	}

	if term := SanitizeSearch(params.Search); term != "" && len(c.search) > 0 {
		pattern := likePattern(term)
		exprs := make([]clause.Expression, 0, len(c.search))
		for _, path := range c.search {
			exprs = append(exprs, path.condition(db, func(column clause.Column) clause.Expression {
				return clause.Expr{SQL: "LOWER(?) LIKE ? ESCAPE '\\'", Vars: []any{column, pattern}}
			}))
		}
		db = db.Where(clause.Or(exprs...))
	}

	for _, name := range c.filterNames {
		value, ok := params.Filters[name]
		if !ok || isBlank(value) {
			continue
		}

		filter := c.filters[name]
		switch filter.rule.Kind {
		case RuleColumn:
			db = db.Where(filter.path.condition(db, func(column clause.Column) clause.Expression {
				return columnCondition(column, value)
			}))
		case RuleScope:
			db = filter.rule.Scope(db, value)
		case RuleCustom:
			db = filter.rule.Predicate(value, db)
		}
	}

	return db
}

// Apply is Filter followed by ordering.
func (c *Composer[T]) Apply(db *gorm.DB, params Params, opts ...Option) *gorm.DB {
	return c.order(c.Filter(db, params), params, collect(opts))
}

func (c *Composer[T]) Paginate(
	ctx context.Context,
	db *gorm.DB,
	params Params,
	opts ...Option,
) (*Page[T], error) {
	o := collect(opts)
	filtered := c.Filter(db.WithContext(ctx), params)

	var total int64
	if err := filtered.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	page := max(params.Page, 1)
	perPage := params.PerPage
	if perPage == 0 || perPage < PerPageAll {
		perPage = c.perPage
	}

	data := c.order(filtered.Session(&gorm.Session{}), params, o)
	for _, association := range o.preloads {
		data = data.Preload(association)
	}

	lastPage := 1
	if perPage == PerPageAll {
		page = 1
		perPage = int(total)
	} else {
		if total > 0 {
			lastPage = int((total + int64(perPage) - 1) / int64(perPage))
		}
		data = data.Limit(perPage).Offset((page - 1) * perPage)
	}

	records := make([]T, 0)
	if total > 0 {
		if err := data.Find(&records).Error; err != nil {
			return nil, err
		}
	}

	return &Page[T]{
		Data:        records,
		Total:       total,
		PerPage:     perPage,
		CurrentPage: page,
		LastPage:    lastPage,
	}, nil
}

func (c *Composer[T]) order(db *gorm.DB, params Params, o options) *gorm.DB {
	column, allowed := c.sortable[params.Sort]
	switch {
	case allowed:
		db = db.Order(clause.OrderByColumn{
			Column: clause.Column{Table: c.schema.Table, Name: column},
			Desc:   !strings.EqualFold(params.Dir, string(Asc)),
		})
	case o.fallback != nil:
		db = o.fallback(db)
	case c.defaultSort != nil:
		db = db.Order(*c.defaultSort)
	}

	if pk := c.schema.PrioritizedPrimaryField; pk != nil && pk.DBName != column {
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Table: c.schema.Table, Name: pk.DBName}})
	}
	return db
}

func collect(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func columnCondition(column clause.Column, value any) clause.Expression {
	if values, ok := listValues(value); ok {
		return clause.IN{Column: column, Values: values}
	}
	return clause.Eq{Column: column, Value: value}
}

func listValues(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []byte:
		return nil, false
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	values := make([]any, rv.Len())
	for i := range values {
		values[i] = rv.Index(i).Interface()
	}
	return values, true
}

func isBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	}
	rv := reflect.ValueOf(value)
	return rv.Kind() == reflect.Slice && rv.Len() == 0
}
