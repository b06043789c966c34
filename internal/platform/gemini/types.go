package gemini

// parsedResumeSchema is the JSON structure the model is asked to produce
// for resume parsing.
type parsedResumeSchema struct {
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Phone   string   `json:"phone"`
	Skills  []string `json:"skills"`
	Summary string   `json:"summary"`
}

// matchScoreSchema is the JSON structure the model is asked to produce for
// match scoring.
type matchScoreSchema struct {
	Score   float64 `json:"score"`
	Summary string  `json:"summary"`
}

// promptData carries template values for prompt construction.
type promptData struct {
	Filename   string
	Document   string
	JobID      string
	Candidate  string
	Skills     string
	Subject    string
	Department string
}
