package api

// requests---------------------

type QueryRequest struct {
	Question   string `json:"question" validate:"required" example:"What causes deadlock?"`
	AnswerType string `json:"answer_type,omitempty" example:"short"`
	TopK       int    `json:"top_k,omitempty" example:"3"`
	Subject    string `json:"subject,omitempty" example:"Operating System"`
}

type RetrieveRequest struct {
	Query   string `json:"query" validate:"required" example:"What causes deadlock?"`
	TopK    int    `json:"top_k,omitempty" example:"3"`
	Subject string `json:"subject,omitempty"`
}

// responses---------------------

type Source struct {
	Text    string  `json:"text"`
	Score   float64 `json:"score" example:"0.41"`
	Source  string  `json:"source" example:"os_notes.pdf"`
	Subject string  `json:"subject" example:"Operating System"`
}

type QueryResponse struct {
	Answer     string   `json:"answer"`
	Sources    []Source `json:"sources"`
	Confidence int      `json:"confidence" example:"60"`
}

type RetrieveResponse struct {
	Results []Source `json:"results"`
}

type HealthResponse struct {
	Status     string `json:"status" example:"ok"`
	Chunks     int    `json:"chunks" example:"128"`
	Model      string `json:"model" example:"hash-xxh64-1024"`
	Dimension  int    `json:"dimension" example:"1024"`
	SnapshotId string `json:"snapshot_id"`
}

type ErrorResponse struct {
	TraceId string        `json:"trace_id,omitempty"`
	Error   OutgoingError `json:"error"`
}

type OutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"question is required"`
	Retry   bool   `json:"can_retry" example:"false"`
}
