package ai

// RerankResult is one scored document from a rerank call.
type RerankResult struct {
	// Index is the position of the document in the input slice.
	Index int

	// Score is the model's relevance score. Scores are comparable within one
	// rerank call but carry no absolute scale across models.
	Score float64
}
