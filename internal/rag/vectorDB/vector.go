package vectorDB

// Hit is one search result: the insertion position of the stored vector and
// its squared L2 distance to the query.
type Hit struct {
	Position int
	Distance float32
}

// Searcher is the read side of an index, as used by the retriever.
type Searcher interface {
	Search(query []float32, k int) ([]Hit, error)
	Size() int
	Dimension() int
}
