// Package pagination provides the page cursor for paginated restaurant
// endpoints.
//
// The restaurant API pages its list endpoint with limit/page query
// parameters and reports the totals in the response "meta" object:
//
//	{"meta": {"limit": 10, "total_pages": 3, "total_count": 25, "current_page": 1}}
//
// A Cursor mirrors that object. The list controller creates one at page 1
// with a single total page, replaces it wholesale on every successful
// first-page fetch or refresh, and advances CurrentPage on "load more":
//
//	c := pagination.New(10)
//	c = pagination.Cursor{Limit: 10, TotalCount: 25, CurrentPage: 1}.Normalize() // TotalPages: 3
//	if c.HasNextPage() {
//		c.CurrentPage++
//	}
//
// The cursor is plain data; it carries no synchronization and is owned by a
// single controller.
package pagination
