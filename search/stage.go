package search

// Stage identifies one step of the query pipeline. Stages advance strictly
// forward; there are no backward transitions.
type Stage int

const (
	StageCollecting Stage = iota + 1
	StageDeduplicating
	StageReranking
	StageBoosting
	StageFiltering
	StageDone
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageCollecting:
		return "collecting"
	case StageDeduplicating:
		return "deduplicating"
	case StageReranking:
		return "reranking"
	case StageBoosting:
		return "boosting"
	case StageFiltering:
		return "filtering"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}
