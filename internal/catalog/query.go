package catalog

import (
	"net/url"
	"strings"

	"github.com/mallkit/mallkit/internal/domain"
	"github.com/spf13/cast"
	"gorm.io/gorm"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// comparison suffix operators recognized on query parameters,
// e.g. price_gte=10 becomes "price >= 10"
var compareOps = []struct {
	suffix string
	op     string
}{
	{"_gte", ">="},
	{"_lte", "<="},
	{"_gt", ">"},
	{"_lt", "<"},
}

// numeric fields that accept comparison filters
var filterFields = map[string]bool{
	"price": true,
	"stock": true,
}

// columns allowed in sort expressions
var sortColumns = map[string]bool{
	"id":         true,
	"name":       true,
	"price":      true,
	"stock":      true,
	"category":   true,
	"brand":      true,
	"created_at": true,
	"updated_at": true,
}

// Comparison is a single numeric range filter
type Comparison struct {
	Field string
	Op    string
	Value float64
}

// SortField is one entry of the sort list
type SortField struct {
	Column string
	Desc   bool
}

// Query is the parsed catalog query pipeline: free-text search, category
// membership, comparison filters, sort order and pagination
type Query struct {
	Search     string
	Categories []string
	Filters    []Comparison
	Sort       []SortField
	Page       int
	Limit      int
}

// Pagination is derived from the count query, never from the page slice
type Pagination struct {
	CurrentPage   int   `json:"currentPage"`
	TotalPages    int   `json:"totalPages"`
	TotalProducts int64 `json:"totalProducts"`
	HasNext       bool  `json:"hasNext"`
	HasPrev       bool  `json:"hasPrev"`
}

// ParseQuery builds a Query from raw request parameters. Malformed values
// never produce an error: page/limit fall back to defaults, a filter with a
// non-numeric value or unknown field is dropped, unknown sort columns are
// skipped.
func ParseQuery(params url.Values) Query {
	q := Query{Page: DefaultPage, Limit: DefaultLimit}

	q.Search = strings.TrimSpace(params.Get("search"))

	for _, cat := range params["category"] {
		if cat = strings.TrimSpace(cat); cat != "" {
			q.Categories = append(q.Categories, cat)
		}
	}

	for key, values := range params {
		if len(values) == 0 {
			continue
		}
		for _, cmp := range compareOps {
			if !strings.HasSuffix(key, cmp.suffix) {
				continue
			}
			field := strings.TrimSuffix(key, cmp.suffix)
			if !filterFields[field] {
				break
			}
			value, err := cast.ToFloat64E(strings.TrimSpace(values[0]))
			if err != nil {
				// fail closed: treat as unfiltered
				break
			}
			q.Filters = append(q.Filters, Comparison{Field: field, Op: cmp.op, Value: value})
			break
		}
	}

	for _, field := range strings.Split(params.Get("sort"), ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		desc := strings.HasPrefix(field, "-")
		column := strings.TrimPrefix(field, "-")
		if !sortColumns[column] {
			continue
		}
		q.Sort = append(q.Sort, SortField{Column: column, Desc: desc})
	}

	if page := cast.ToInt(params.Get("page")); page > 0 {
		q.Page = page
	}
	if limit := cast.ToInt(params.Get("limit")); limit > 0 {
		if limit > MaxLimit {
			limit = MaxLimit
		}
		q.Limit = limit
	}

	return q
}

// Scope applies search and filters only, shared by the page query and the
// count query so both see the same matching set.
func (q Query) Scope(db *gorm.DB) *gorm.DB {
	if q.Search != "" {
		if db.Dialector.Name() == "postgres" {
			pattern := "%" + q.Search + "%"
			db = db.Where("name ILIKE ? OR description ILIKE ? OR category ILIKE ? OR brand ILIKE ?",
				pattern, pattern, pattern, pattern)
		} else {
			pattern := "%" + strings.ToLower(q.Search) + "%"
			db = db.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(category) LIKE ? OR LOWER(brand) LIKE ?",
				pattern, pattern, pattern, pattern)
		}
	}
	if len(q.Categories) > 0 {
		db = db.Where("category IN ?", q.Categories)
	}
	for _, f := range q.Filters {
		db = db.Where(f.Field+" "+f.Op+" ?", f.Value)
	}
	return db
}

// OrderClause renders the sort list, defaulting to newest first
func (q Query) OrderClause() string {
	if len(q.Sort) == 0 {
		return "created_at DESC"
	}
	parts := make([]string, 0, len(q.Sort))
	for _, s := range q.Sort {
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		parts = append(parts, s.Column+" "+dir)
	}
	return strings.Join(parts, ", ")
}

// Find executes the pipeline: one count query for pagination metadata and
// one page query for the records. An empty result set is a success.
func (q Query) Find(db *gorm.DB) ([]domain.Product, Pagination, error) {
	base := q.Scope(db.Model(&domain.Product{}))

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	products := make([]domain.Product, 0, q.Limit)
	err := base.
		Order(q.OrderClause()).
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&products).Error
	if err != nil {
		return nil, Pagination{}, err
	}

	return products, Paginate(total, q.Page, q.Limit), nil
}

// Paginate derives the pagination metadata block.
// totalPages == ceil(total/limit), hasNext/hasPrev follow from currentPage.
func Paginate(total int64, page, limit int) Pagination {
	if limit < 1 {
		limit = DefaultLimit
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		CurrentPage:   page,
		TotalPages:    totalPages,
		TotalProducts: total,
		HasNext:       page < totalPages,
		HasPrev:       page > 1,
	}
}
