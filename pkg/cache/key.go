package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Key identifies a cached API response.
type Key struct {
	// Endpoint is the API path (e.g., "/consumer/v2/restaurants")
	Endpoint string

	// Query are the query parameters (e.g., {"page": "2", "limit": "10"})
	Query url.Values
}

// String generates a deterministic key string.
// Format: restaurants:endpoint:query1=val1:query2=val2
//
// Example:
//
//	restaurants:consumer/v2/restaurants:limit=10:page=2:region_id=abc
func (k Key) String() string {
	parts := []string{"restaurants"}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.Query) > 0 {
		names := make([]string, 0, len(k.Query))
		for name := range k.Query {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			values := append([]string(nil), k.Query[name]...)
			sort.Strings(values)
			parts = append(parts, fmt.Sprintf("%s=%s", name, strings.Join(values, ",")))
		}
	}

	return strings.Join(parts, ":")
}
