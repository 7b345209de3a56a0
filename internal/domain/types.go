package domain

// TaskType tells the embedding provider what the text will be used for.
// The values are the Gemini embedding task type identifiers.
type TaskType string

const (
	TaskDocument   TaskType = "RETRIEVAL_DOCUMENT"
	TaskQuery      TaskType = "RETRIEVAL_QUERY"
	TaskSimilarity TaskType = "SEMANTIC_SIMILARITY"
)

// Metadata carries the payload stored next to an embedded vector.
type Metadata struct {
	// Text is the original chunk text the vector was computed from.
	Text string
	// OwnerID scopes the record to the uploading user. Empty means unscoped.
	OwnerID string
	// Extra holds caller-supplied key/value pairs.
	Extra map[string]string
}

// Record is one embedded chunk. Created once at embedding time and
// immutable afterwards; the index refers to it by position.
type Record struct {
	ID     string
	Vector []float32
	Meta   Metadata
}

// Hit is a single nearest-neighbor search result.
type Hit struct {
	// Distance is the squared Euclidean distance to the query vector.
	Distance float32
	Record   Record
}
