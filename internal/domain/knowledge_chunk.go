package domain

// KnowledgeChunk is a titled, contiguous section of the knowledge document.
// Field order and JSON names are part of the cache fingerprint.
type KnowledgeChunk struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// RankedResult is a chunk selected for a query together with its score.
type RankedResult struct {
	Text       string
	Type       string
	Similarity float64
}

// Profile holds the identity fields extracted from the knowledge document
type Profile struct {
	Name     string
	Headline string
}
