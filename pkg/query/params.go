package query

import (
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"
)

// PerPageAll asks for every matching record in a single page.
const PerPageAll = -1

type Params struct {
	Search  string
	Filters map[string]any
	Sort    string
	Dir     string
	Page    int
	PerPage int
}

// ParseParams reads listing parameters from a query string. Filters arrive as
// filters[name]=value; repeating the key or using filters[name][] yields a list.
func ParseParams(values url.Values) Params {
	params := Params{
		Search:  values.Get("search"),
		Sort:    values.Get("sort"),
		Dir:     values.Get("dir"),
		Filters: make(map[string]any),
	}

	if page, err := strconv.Atoi(values.Get("page")); err == nil && page > 0 {
		params.Page = page
	}

	perPage := strings.TrimSpace(values.Get("per_page"))
	if strings.EqualFold(perPage, "all") {
		params.PerPage = PerPageAll
	} else if n, err := strconv.Atoi(perPage); err == nil && n > 0 {
		params.PerPage = n
	}

	for key, vals := range values {
		name, isList, ok := filterName(key)
		if !ok || len(vals) == 0 {
			continue
		}

		if isList || len(vals) > 1 {
			list := make([]string, 0, len(vals))
			if existing, found := params.Filters[name].([]string); found {
				list = append(list, existing...)
			}
			params.Filters[name] = append(list, vals...)
			continue
		}
		params.Filters[name] = vals[0]
	}

	return params
}

func filterName(key string) (name string, isList bool, ok bool) {
	if !strings.HasPrefix(key, "filters[") {
		return "", false, false
	}

	rest := strings.TrimPrefix(key, "filters[")
	if strings.HasSuffix(rest, "][]") {
		rest = strings.TrimSuffix(rest, "][]")
		isList = true
	} else if strings.HasSuffix(rest, "]") {
		rest = strings.TrimSuffix(rest, "]")
	} else {
		return "", false, false
	}

	if rest == "" || strings.ContainsAny(rest, "[]") {
		return "", false, false
	}

	return rest, isList, true
}

// SanitizeSearch drops invalid UTF-8 and NUL bytes, collapses whitespace and trims.
func SanitizeSearch(term string) string {
	if strings.Contains(term, "\x00") || !utf8.ValidString(term) {
		term = strings.ToValidUTF8(term, "")
		term = strings.ReplaceAll(term, "\x00", "")
	}
	return strings.Join(strings.Fields(term), " ")
}

func likePattern(term string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
	return "%" + strings.ToLower(escaped) + "%"
}
