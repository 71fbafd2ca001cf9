package explain

// Explanation is the narrative attached to a verification report.
type Explanation struct {
	Narrative  string   `json:"narrative"`
	Highlights []string `json:"highlights,omitempty"`
	Source     string   `json:"source"`
}

const (
	sourceOpenAI    = "openai"
	sourceHeuristic = "heuristic"
)
