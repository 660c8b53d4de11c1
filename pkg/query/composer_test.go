package query

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type author struct {
	ID   uint
	Name string
}

type tag struct {
	ID   uint
	Name string
}

type comment struct {
	ID        uint
	PostID    uint
	Body      string
	DeletedAt gorm.DeletedAt
}

type note struct {
	ID        uint
	OwnerID   uint
	OwnerType string
	Text      string
}

type post struct {
	ID        uint
	Title     string
	Status    string
	Views     int
	AuthorID  uint
	Author    author
	Tags      []tag `gorm:"many2many:post_tags"`
	Comments  []comment
	Note      note `gorm:"polymorphic:Owner"`
	CreatedAt time.Time
}

func setupDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&author{}, &tag{}, &post{}, &comment{}, &note{}))
	return db
}

func seedPosts(t *testing.T, db *gorm.DB) {
	t.Helper()

	ada := author{Name: "Ada Lovelace"}
	alan := author{Name: "Alan Turing"}
	require.NoError(t, db.Create(&ada).Error)
	require.NoError(t, db.Create(&alan).Error)

	golang := tag{Name: "golang"}
	sql := tag{Name: "sql"}
	require.NoError(t, db.Create(&golang).Error)
	require.NoError(t, db.Create(&sql).Error)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	posts := []post{
		{Title: "Engines", Status: "published", Views: 10, AuthorID: ada.ID, Tags: []tag{golang}, CreatedAt: base},
		{
			Title: "Machines", Status: "draft", Views: 30, AuthorID: alan.ID, Tags: []tag{sql},
			CreatedAt: base.Add(time.Hour),
		},
		{
			Title: "100% coverage", Status: "published", Views: 20, AuthorID: alan.ID,
			CreatedAt: base.Add(2 * time.Hour),
		},
		{
			Title: "Notes", Status: "archived", Views: 5, AuthorID: ada.ID,
			Note: note{Text: "remember the analytical engine"}, CreatedAt: base.Add(3 * time.Hour),
		},
		{
			Title: "Comments", Status: "draft", Views: 1, AuthorID: ada.ID,
			Comments: []comment{{Body: "great read"}}, CreatedAt: base.Add(4 * time.Hour),
		},
	}
	for i := range posts {
		require.NoError(t, db.Create(&posts[i]).Error)
	}

	deleted := comment{PostID: posts[0].ID, Body: "hidden gem"}
	require.NoError(t, db.Create(&deleted).Error)
	require.NoError(t, db.Delete(&deleted).Error)
}

func postSpec() Spec {
	return Spec{
		SearchableFields: []string{"title", "author.name", "tags.name", "comments.body", "note.text"},
		AllowedFilters: map[string]FilterRule{
			"status": Column("status"),
			"author": Column("author.name"),
			"popular": NamedScope("popular", func(db *gorm.DB, value any) *gorm.DB {
				if value == "true" {
					return db.Where("views >= ?", 20)
				}
				return db
			}),
			"min_views": Custom(func(value any, db *gorm.DB) *gorm.DB {
				return db.Where("views >= ?", value)
			}),
		},
		AllowedSortFields: []string{"title", "views", "created_at"},
		DefaultSort:       Sort{Field: "created_at", Direction: Desc},
		DefaultPerPage:    10,
	}
}

func titles(posts []post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Title
	}
	return out
}

func TestNewRejectsInvalidSpec(t *testing.T) {
	db := setupDB(t)

	testCases := []struct {
		name string
		spec Spec
	}{
		{name: "unknown search column", spec: Spec{SearchableFields: []string{"subtitle"}}},
		{name: "unknown relation", spec: Spec{SearchableFields: []string{"editor.name"}}},
		{name: "unknown related column", spec: Spec{SearchableFields: []string{"author.email"}}},
		{name: "empty segment", spec: Spec{SearchableFields: []string{"author..name"}}},
		{name: "unknown filter column", spec: Spec{AllowedFilters: map[string]FilterRule{"x": Column("x")}}},
		{name: "scope without function", spec: Spec{AllowedFilters: map[string]FilterRule{"x": NamedScope("x", nil)}}},
		{name: "custom without predicate", spec: Spec{AllowedFilters: map[string]FilterRule{"x": Custom(nil)}}},
		{name: "relation sort", spec: Spec{AllowedSortFields: []string{"author.name"}}},
		{
			name: "default sort not allowed",
			spec: Spec{AllowedSortFields: []string{"title"}, DefaultSort: Sort{Field: "views"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New[post](db, tc.spec)
			assert.ErrorIs(t, err, ErrInvalidSpec)
		})
	}
}

func TestNewAcceptsSpec(t *testing.T) {
	db := setupDB(t)

	composer, err := New[post](db, postSpec())
	require.NoError(t, err)
	assert.Equal(t, "posts", composer.Table())
	assert.Equal(t, []string{"author", "min_views", "popular", "status"}, composer.Filters())
}

func TestPaginateSearch(t *testing.T) {
	db := setupDB(t)
	seedPosts(t, db)
	composer := MustNew[post](db, postSpec())
	ctx := context.Background()

	testCases := []struct {
		name   string
		search string
		want   []string
	}{
		{name: "own column", search: "ENGINES", want: []string{"Engines"}},
		{name: "belongs to", search: "turing", want: []string{"100% coverage", "Machines"}},
		{name: "many to many", search: "golang", want: []string{"Engines"}},
		{name: "has many", search: "great", want: []string{"Comments"}},
		{name: "soft deleted rows ignored", search: "hidden gem", want: []string{}},
		{name: "polymorphic", search: "analytical", want: []string{"Notes"}},
		{name: "wildcards are literal", search: "100%", want: []string{"100% coverage"}},
		{name: "underscore is literal", search: "_", want: []string{}},
		{name: "whitespace only matches everything", search: "  \x00 ", want: []string{
			"Comments", "Notes", "100% coverage", "Machines", "Engines",
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := composer.Paginate(ctx, db, Params{Search: tc.search})
			require.NoError(t, err)
			assert.Equal(t, tc.want, titles(page.Data))
			assert.Equal(t, int64(len(tc.want)), page.Total)
		})
	}
}

func TestPaginateFilters(t *testing.T) {
	db := setupDB(t)
	seedPosts(t, db)
	composer := MustNew[post](db, postSpec())
	ctx := context.Background()

	testCases := []struct {
		name    string
		filters map[string]any
		want    []string
	}{
		{name: "scalar column", filters: map[string]any{"status": "draft"}, want: []string{"Comments", "Machines"}},
		{
			name:    "list column",
			filters: map[string]any{"status": []string{"archived", "published"}},
			want:    []string{"Notes", "100% coverage", "Engines"},
		},
		{name: "relation column", filters: map[string]any{"author": "Ada Lovelace"}, want: []string{
			"Comments", "Notes", "Engines",
		}},
		{name: "named scope", filters: map[string]any{"popular": "true"}, want: []string{"100% coverage", "Machines"}},
		{name: "custom predicate", filters: map[string]any{"min_views": 25}, want: []string{"Machines"}},
		{
			name:    "filters combine with and",
			filters: map[string]any{"status": "published", "author": "Alan Turing"},
			want:    []string{"100% coverage"},
		},
		{name: "unknown filter ignored", filters: map[string]any{"views": 1}, want: []string{
			"Comments", "Notes", "100% coverage", "Machines", "Engines",
		}},
		{name: "blank value ignored", filters: map[string]any{"status": " "}, want: []string{
			"Comments", "Notes", "100% coverage", "Machines", "Engines",
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := composer.Paginate(ctx, db, Params{Filters: tc.filters})
			require.NoError(t, err)
			assert.Equal(t, tc.want, titles(page.Data))
		})
	}
}

func TestPaginateSorting(t *testing.T) {
	db := setupDB(t)
	seedPosts(t, db)
	composer := MustNew[post](db, postSpec())
	ctx := context.Background()

	testCases := []struct {
		name   string
		params Params
		want   []string
	}{
		{
			name:   "allowed field ascending",
			params: Params{Sort: "views", Dir: "asc"},
			want:   []string{"Comments", "Notes", "Engines", "100% coverage", "Machines"},
		},
		{
			name:   "invalid direction defaults to descending",
			params: Params{Sort: "views", Dir: "sideways"},
			want:   []string{"Machines", "100% coverage", "Engines", "Notes", "Comments"},
		},
		{
			name:   "disallowed field falls back to default",
			params: Params{Sort: "author_id", Dir: "asc"},
			want:   []string{"Comments", "Notes", "100% coverage", "Machines", "Engines"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := composer.Paginate(ctx, db, tc.params)
			require.NoError(t, err)
			assert.Equal(t, tc.want, titles(page.Data))
		})
	}

	t.Run("fallback order replaces default", func(t *testing.T) {
		page, err := composer.Paginate(ctx, db, Params{}, WithFallbackOrder(func(db *gorm.DB) *gorm.DB {
			return db.Order("title ASC")
		}))
		require.NoError(t, err)
		assert.Equal(t, []string{"100% coverage", "Comments", "Engines", "Machines", "Notes"}, titles(page.Data))
	})
}

func TestPaginatePages(t *testing.T) {
	db := setupDB(t)
	seedPosts(t, db)
	composer := MustNew[post](db, postSpec())
	ctx := context.Background()

	testCases := []struct {
		name        string
		params      Params
		wantLen     int
		wantPerPage int
		wantCurrent int
		wantLast    int
	}{
		{name: "spec default", params: Params{}, wantLen: 5, wantPerPage: 10, wantCurrent: 1, wantLast: 1},
		{name: "first page", params: Params{PerPage: 2}, wantLen: 2, wantPerPage: 2, wantCurrent: 1, wantLast: 3},
		{name: "last partial page", params: Params{PerPage: 2, Page: 3}, wantLen: 1, wantPerPage: 2, wantCurrent: 3, wantLast: 3},
		{name: "past the end", params: Params{PerPage: 2, Page: 9}, wantLen: 0, wantPerPage: 2, wantCurrent: 9, wantLast: 3},
		{name: "page clamped", params: Params{PerPage: 2, Page: -4}, wantLen: 2, wantPerPage: 2, wantCurrent: 1, wantLast: 3},
		{name: "all", params: Params{PerPage: PerPageAll, Page: 4}, wantLen: 5, wantPerPage: 5, wantCurrent: 1, wantLast: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := composer.Paginate(ctx, db, tc.params)
			require.NoError(t, err)
			assert.Len(t, page.Data, tc.wantLen)
			assert.Equal(t, int64(5), page.Total)
			assert.Equal(t, tc.wantPerPage, page.PerPage)
			assert.Equal(t, tc.wantCurrent, page.CurrentPage)
			assert.Equal(t, tc.wantLast, page.LastPage)
		})
	}
}

func TestPaginateEmpty(t *testing.T) {
	db := setupDB(t)
	composer := MustNew[post](db, postSpec())

	page, err := composer.Paginate(context.Background(), db, Params{PerPage: PerPageAll})
	require.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)
	assert.Equal(t, int64(0), page.Total)
	assert.Equal(t, 1, page.LastPage)
}

func TestPaginatePreload(t *testing.T) {
	db := setupDB(t)
	seedPosts(t, db)
	composer := MustNew[post](db, postSpec())

	page, err := composer.Paginate(
		context.Background(),
		db,
		Params{Search: "golang"},
		WithPreload("Author", "Tags"),
	)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Ada Lovelace", page.Data[0].Author.Name)
	require.Len(t, page.Data[0].Tags, 1)
	assert.Equal(t, "golang", page.Data[0].Tags[0].Name)
}

func TestApplyBuildsOnCallerQuery(t *testing.T) {
	db := setupDB(t)
	seedPosts(t, db)
	composer := MustNew[post](db, postSpec())

	var posts []post
	err := composer.Apply(
		db.Model(&post{}).Where("views < ?", 20),
		Params{Filters: map[string]any{"status": "draft"}, Sort: "title", Dir: "asc"},
	).Find(&posts).Error
	require.NoError(t, err)
	assert.Equal(t, []string{"Comments"}, titles(posts))
}

func ExampleParseParams() {
	params := ParseParams(map[string][]string{
		"search":            {"nanny"},
		"filters[status][]": {"pending", "confirmed"},
		"per_page":          {"all"},
	})
	fmt.Println(params.Search, params.Filters["status"], params.PerPage == PerPageAll)
	// Output: nanny [pending confirmed] true
}
