package generate

// Candidate is one generated query for one question.
type Candidate struct {
	QuestionID string
	Query      string
	ConfigID   string
	// Attempts is the number of model calls spent on the query itself.
	Attempts  int
	Reasoning string
}
