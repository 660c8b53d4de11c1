package query

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// fieldPath is a spec field resolved against the model schema: zero or more
// relation hops followed by a column on the last schema reached.
type fieldPath struct {
	raw    string
	hops   []*schema.Relationship
	table  string
	column string
}

type leafFunc func(column clause.Column) clause.Expression

func resolvePath(root *schema.Schema, path string) (fieldPath, error) {
	parts := strings.Split(strings.TrimSpace(path), ".")
	for _, part := range parts {
		if part == "" {
			return fieldPath{}, fmt.Errorf("%w: empty segment in field %q", ErrInvalidSpec, path)
		}
	}

	current := root
	hops := make([]*schema.Relationship, 0, len(parts)-1)
	for _, part := range parts[:len(parts)-1] {
		rel := findRelation(current, part)
		if rel == nil {
			return fieldPath{}, fmt.Errorf(
				"%w: %s has no relation %q (field %q)",
				ErrInvalidSpec, current.Name, part, path,
			)
		}
		hops = append(hops, rel)
		current = rel.FieldSchema
	}

	name := parts[len(parts)-1]
	field := current.LookUpField(name)
	if field == nil || field.DBName == "" {
		return fieldPath{}, fmt.Errorf(
			"%w: %s has no column %q (field %q)",
			ErrInvalidSpec, current.Name, name, path,
		)
	}

	return fieldPath{raw: path, hops: hops, table: current.Table, column: field.DBName}, nil
}

func findRelation(s *schema.Schema, name string) *schema.Relationship {
	compact := strings.ReplaceAll(name, "_", "")
	for relName, rel := range s.Relationships.Relations {
		if strings.EqualFold(relName, name) || strings.EqualFold(relName, compact) {
			return rel
		}
	}
	return nil
}

func (p fieldPath) nested() bool {
	return len(p.hops) > 0
}

// condition builds the leaf predicate, wrapped in one EXISTS subquery per hop.
func (p fieldPath) condition(db *gorm.DB, leaf leafFunc) clause.Expression {
	column := clause.Column{Table: p.table, Name: p.column}
	if !p.nested() {
		return leaf(column)
	}
	return existsThrough(db, p.hops, func(sub *gorm.DB) *gorm.DB {
		return sub.Where(leaf(column))
	})
}

func existsThrough(
	db *gorm.DB,
	hops []*schema.Relationship,
	innermost func(*gorm.DB) *gorm.DB,
) clause.Expression {
	scope := innermost
	if len(hops) > 1 {
		scope = func(sub *gorm.DB) *gorm.DB {
			return sub.Where(existsThrough(db, hops[1:], innermost))
		}
	}
	return clause.Expr{SQL: "EXISTS (?)", Vars: []any{relationSubquery(db, hops[0], scope)}}
}

func relationSubquery(
	db *gorm.DB,
	rel *schema.Relationship,
	scope func(*gorm.DB) *gorm.DB,
) *gorm.DB {
	fresh := db.Session(&gorm.Session{NewDB: true})
	related := liveRows(fresh.Table(rel.FieldSchema.Table).Select("1"), rel.FieldSchema)

	if rel.JoinTable == nil {
		for _, ref := range rel.References {
			related = related.Where(correlate(ref))
		}
		return scope(related)
	}

	link := fresh.Table(rel.JoinTable.Table).Select("1")
	for _, ref := range rel.References {
		if ref.OwnPrimaryKey {
			link = link.Where(correlate(ref))
		} else {
			related = related.Where(correlate(ref))
		}
	}
	return link.Where(clause.Expr{SQL: "EXISTS (?)", Vars: []any{scope(related)}})
}

// correlate ties a reference's foreign key to its primary key, or to the
// polymorphic type value when the reference has no primary key.
func correlate(ref *schema.Reference) clause.Expression {
	foreign := clause.Column{Table: ref.ForeignKey.Schema.Table, Name: ref.ForeignKey.DBName}
	if ref.PrimaryKey == nil {
		return clause.Eq{Column: foreign, Value: ref.PrimaryValue}
	}
	return clause.Eq{
		Column: foreign,
		Value:  clause.Column{Table: ref.PrimaryKey.Schema.Table, Name: ref.PrimaryKey.DBName},
	}
}

func liveRows(db *gorm.DB, s *schema.Schema) *gorm.DB {
	if field := s.LookUpField("DeletedAt"); field != nil && field.DBName != "" {
		return db.Where(clause.Eq{Column: clause.Column{Table: s.Table, Name: field.DBName}, Value: nil})
	}
	return db
}
