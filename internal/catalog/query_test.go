package catalog

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQueryDefaults(t *testing.T) {
	q := ParseQuery(url.Values{})
	assert.Equal(t, DefaultPage, q.Page)
	assert.Equal(t, DefaultLimit, q.Limit)
	assert.Empty(t, q.Search)
	assert.Empty(t, q.Categories)
	assert.Empty(t, q.Filters)
	assert.Empty(t, q.Sort)
	assert.Equal(t, "created_at DESC", q.OrderClause())
}

func TestParseQuerySearchAndCategories(t *testing.T) {
	params := url.Values{}
	params.Set("search", "  widget ")
	params.Add("category", "Widgets")
	params.Add("category", " Gadgets ")
	params.Add("category", "  ")

	q := ParseQuery(params)
	assert.Equal(t, "widget", q.Search)
	assert.Equal(t, []string{"Widgets", "Gadgets"}, q.Categories)
}

func TestParseQueryComparisonFilters(t *testing.T) {
	params := url.Values{}
	params.Set("price_gte", "10")
	params.Set("price_lte", "50.5")
	params.Set("stock_gt", "0")

	q := ParseQuery(params)
	assert.Len(t, q.Filters, 3)

	ops := map[string]string{}
	for _, f := range q.Filters {
		ops[f.Field+f.Op] = f.Op
	}
	assert.Contains(t, ops, "price>=")
	assert.Contains(t, ops, "price<=")
	assert.Contains(t, ops, "stock>")
}

func TestParseQueryMalformedFilterFailsClosed(t *testing.T) {
	params := url.Values{}
	params.Set("price_gte", "cheap")  // non-numeric
	params.Set("rating_gte", "4")     // unknown field
	params.Set("price_between", "10") // unknown operator

	q := ParseQuery(params)
	assert.Empty(t, q.Filters)
}

func TestParseQuerySortWhitelist(t *testing.T) {
	params := url.Values{}
	params.Set("sort", "-price,name,-secret_column, ,stock")

	q := ParseQuery(params)
	assert.Equal(t, []SortField{
		{Column: "price", Desc: true},
		{Column: "name", Desc: false},
		{Column: "stock", Desc: false},
	}, q.Sort)
	assert.Equal(t, "price DESC, name ASC, stock ASC", q.OrderClause())
}

func TestParseQueryPagination(t *testing.T) {
	params := url.Values{}
	params.Set("page", "3")
	params.Set("limit", "25")
	q := ParseQuery(params)
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 25, q.Limit)

	params.Set("page", "-1")
	params.Set("limit", "junk")
	q = ParseQuery(params)
	assert.Equal(t, DefaultPage, q.Page)
	assert.Equal(t, DefaultLimit, q.Limit)

	params.Set("page", "1")
	params.Set("limit", "5000")
	q = ParseQuery(params)
	assert.Equal(t, MaxLimit, q.Limit)
}

func TestPaginate(t *testing.T) {
	p := Paginate(0, 1, 10)
	assert.Equal(t, 0, p.TotalPages)
	assert.Equal(t, int64(0), p.TotalProducts)
	assert.False(t, p.HasNext)
	assert.False(t, p.HasPrev)

	p = Paginate(95, 1, 10)
	assert.Equal(t, 10, p.TotalPages)
	assert.True(t, p.HasNext)
	assert.False(t, p.HasPrev)

	p = Paginate(95, 10, 10)
	assert.False(t, p.HasNext)
	assert.True(t, p.HasPrev)

	// exact multiple, no phantom page
	p = Paginate(100, 10, 10)
	assert.Equal(t, 10, p.TotalPages)
	assert.False(t, p.HasNext)
}
