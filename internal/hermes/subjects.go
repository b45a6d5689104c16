package hermes

const (
	SubjectCacheInvalidated = "versus.cache.invalidated"
	SubjectCatalogUpdated   = "versus.catalog.updated"

	StreamName   = "VERSUS_EVENTS"
	StreamMaxAge = "168h" // 7 days
)

// StreamSubjects are persisted in StreamName.
var StreamSubjects = []string{
	"versus.comparison.>",
	"versus.cache.>",
	"versus.catalog.>",
}

func SubjectComparisonCompleted(sessionID string) string {
	return "versus.comparison." + sessionID + ".completed"
}
