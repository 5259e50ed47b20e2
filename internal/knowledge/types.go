package knowledge

// Chunk is one retrieved slice of a tenant document. Similarity is derived at
// query time from the store's distance metric and is never persisted.
type Chunk struct {
	ID         string            `json:"id"`
	Source     string            `json:"source"`
	ChunkIndex int               `json:"chunkIndex"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Similarity float64           `json:"similarity"`
}

// ChunkRow is a raw nearest-neighbor row before the similarity filter.
// Distance is the store's metric value; similarity = 1 - distance under
// cosine distance.
type ChunkRow struct {
	ID         string
	Source     string
	ChunkIndex int
	Content    string
	Metadata   []byte
	Distance   float64
}

// SimilarityFloor discards weak matches: rows at or below this similarity are
// dropped even when they rank within topK.
const SimilarityFloor = 0.3

// VectorDimension is the embedding width stored in pgvector. The embedder
// must be configured to output exactly this many dimensions; see the
// document_chunks schema in db/migrations.
const VectorDimension = 768

// queryExpansion widens recall by appending domain synonyms to every query
// before embedding.
const queryExpansion = " business information, company details, operations, processes, inventory management, data"
