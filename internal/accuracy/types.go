// internal/accuracy/types.go
package accuracy

// Suite defines the retrieval test cases loaded from JSON.
type Suite struct {
	Description string     `json:"description,omitempty"`
	Tests       []TestCase `json:"tests"`
}

// TestCase is a question and the documents that should answer it.
type TestCase struct {
	ID              int      `json:"id"`
	Question        string   `json:"question"`
	ExpectedSources []string `json:"expected_sources"`
	Keywords        []string `json:"keywords,omitempty"`
	Category        string   `json:"category,omitempty"`
}

// Result records how well retrieval served a single test case.
type Result struct {
	Timestamp       string   `json:"timestamp"`
	Model           string   `json:"model"`
	TestID          int      `json:"testId"`
	Question        string   `json:"question"`
	Category        string   `json:"category,omitempty"`
	ExpectedSources []string `json:"expectedSources"`
	RetrievedFiles  []string `json:"retrievedFiles"`
	FirstHitRank    int      `json:"firstHitRank"`
	Correct         bool     `json:"correct"`
	ReciprocalRank  float64  `json:"reciprocalRank"`
	KeywordCoverage float64  `json:"keywordCoverage"`
	TopScore        float64  `json:"topScore"`
	TopK            int      `json:"topK"`
	RetrievalMs     int      `json:"retrievalMs"`
}

// Summary aggregates a run.
type Summary struct {
	Model           string  `json:"model" yaml:"model"`
	TopK            int     `json:"topK" yaml:"topK"`
	Total           int     `json:"total" yaml:"total"`
	Hits            int     `json:"hits" yaml:"hits"`
	HitRate         float64 `json:"hitRate" yaml:"hitRate"`
	MRR             float64 `json:"mrr" yaml:"mrr"`
	KeywordCoverage float64 `json:"keywordCoverage" yaml:"keywordCoverage"`
	MeanRetrievalMs float64 `json:"meanRetrievalMs" yaml:"meanRetrievalMs"`
}
