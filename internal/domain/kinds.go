package domain

// Kind identifies one logical data set served by skylight.
type Kind string

const (
	KindStatistics   Kind = "statistics"
	KindIncomeLimits Kind = "income_limits"
	KindNotices      Kind = "notices"
	KindPrograms     Kind = "programs"
	KindProjects     Kind = "projects"
)

// SchemaVersion is the current schema tag per kind. The normalizer stamps
// records with these, and rejects cached or fetched payloads carrying a
// different tag instead of handing callers a shape they don't expect.
var SchemaVersion = map[Kind]int{
	KindStatistics:   2,
	KindIncomeLimits: 1,
	KindNotices:      1,
	KindPrograms:     1,
	KindProjects:     1,
}

func (k Kind) Valid() bool {
	_, ok := SchemaVersion[k]
	return ok
}
