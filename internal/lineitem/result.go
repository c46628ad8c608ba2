package lineitem

// Outcome classifies what a collection operation did. None of them is an error.
type Outcome string

const (
	Added         Outcome = "added"
	Incremented   Outcome = "incremented"
	Updated       Outcome = "updated"
	Removed       Outcome = "removed"
	Cleared       Outcome = "cleared"
	NotFound      Outcome = "not_found"
	AlreadyExists Outcome = "already_exists"
)

// Result is returned by every collection mutation.
type Result struct {
	Outcome Outcome `json:"outcome"`
	Message string  `json:"message"`
	Item    *Item   `json:"item,omitempty"`
}

// Changed reports whether the collection was mutated and re-persisted.
func (r Result) Changed() bool {
	switch r.Outcome {
	case NotFound, AlreadyExists:
		return false
	default:
		return true
	}
}
