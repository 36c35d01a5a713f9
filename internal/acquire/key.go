package acquire

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hvidsten/skylight/internal/adapters/sources"
)

// CacheKey builds the deterministic cache key for a fetch spec: the data
// kind followed by the parameters in sorted order. Equal specs always
// map to the same key regardless of parameter insertion order.
func CacheKey(spec sources.FetchSpec) string {
	var b strings.Builder
	b.WriteString(string(spec.Kind))

	names := make([]string, 0, len(spec.Params))
	for name := range spec.Params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(&b, ":%s:%s", name, spec.Params[name])
	}
	return b.String()
}
