// internal/accuracy/accuracy.go

// Package accuracy measures how often retrieval surfaces the documents a
// question needs. A suite lists questions with their expected source files;
// each run reports hit rate at k and mean reciprocal rank.
package accuracy

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mwiater/ragchat/internal/logging"
	"github.com/mwiater/ragchat/internal/rag"
)

// DefaultConcurrency bounds how many questions are evaluated at once.
const DefaultConcurrency = 4

// Retriever returns the chunks most similar to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) []rag.Result
}

// Options controls a run.
type Options struct {
	TopK        int
	Concurrency int
	Model       string
}

// LoadSuite reads and validates a suite file.
func LoadSuite(path string) (Suite, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Suite{}, fmt.Errorf("error reading test suite: %w", err)
	}

	var suite Suite
	if err := json.Unmarshal(raw, &suite); err != nil {
		return Suite{}, fmt.Errorf("error parsing test suite: %w", err)
	}

	if len(suite.Tests) == 0 {
		return Suite{}, fmt.Errorf("test suite contains no tests")
	}
	for _, t := range suite.Tests {
		if strings.TrimSpace(t.Question) == "" {
			return Suite{}, fmt.Errorf("test %d has an empty question", t.ID)
		}
		if len(t.ExpectedSources) == 0 {
			return Suite{}, fmt.Errorf("test %d lists no expected_sources", t.ID)
		}
	}
	return suite, nil
}

// Run evaluates every test case against r. Results keep suite order.
func Run(ctx context.Context, r Retriever, suite Suite, opts Options) ([]Result, Summary, error) {
	if opts.TopK <= 0 {
		opts.TopK = 4
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}

	results := make([]Result, len(suite.Tests))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, tc := range suite.Tests {
		i, tc := i, tc
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			retrieved := r.Retrieve(gctx, tc.Question, opts.TopK)
			res := evaluate(tc, retrieved)
			res.Timestamp = start.UTC().Format(time.RFC3339)
			res.Model = opts.Model
			res.TopK = opts.TopK
			res.RetrievalMs = int(time.Since(start).Milliseconds())
			results[i] = res
			logging.LogEvent("[ACCURACY] test=%d correct=%t rank=%d", tc.ID, res.Correct, res.FirstHitRank)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Summary{}, err
	}

	summary := Summarize(results)
	summary.Model = opts.Model
	summary.TopK = opts.TopK
	return results, summary, nil
}

// evaluate scores one test case. A hit is any retrieved chunk whose source
// file matches an expected source, compared case-insensitively.
func evaluate(tc TestCase, retrieved []rag.Result) Result {
	res := Result{
		TestID:          tc.ID,
		Question:        tc.Question,
		Category:        tc.Category,
		ExpectedSources: tc.ExpectedSources,
		RetrievedFiles:  make([]string, 0, len(retrieved)),
	}
	if len(retrieved) > 0 {
		res.TopScore = retrieved[0].Score
	}

	var text strings.Builder
	for i, r := range retrieved {
		res.RetrievedFiles = append(res.RetrievedFiles, r.Metadata.Filename)
		text.WriteString(strings.ToLower(r.Text))
		text.WriteByte('\n')
		if res.FirstHitRank == 0 && matchesExpected(r.Metadata.Filename, tc.ExpectedSources) {
			res.FirstHitRank = i + 1
		}
	}
	if res.FirstHitRank > 0 {
		res.Correct = true
		res.ReciprocalRank = 1 / float64(res.FirstHitRank)
	}
	res.KeywordCoverage = keywordCoverage(text.String(), tc.Keywords)
	return res
}

func matchesExpected(filename string, expected []string) bool {
	for _, e := range expected {
		if strings.EqualFold(strings.TrimSpace(e), filename) {
			return true
		}
	}
	return false
}

// keywordCoverage is the fraction of keywords found in the retrieved text.
// With no keywords it is 1.
func keywordCoverage(lowerText string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 1
	}
	found := 0
	for _, k := range keywords {
		if strings.Contains(lowerText, strings.ToLower(strings.TrimSpace(k))) {
			found++
		}
	}
	return float64(found) / float64(len(keywords))
}

// Summarize aggregates results into hit rate, MRR and mean latency.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	if s.Total == 0 {
		return s
	}
	var rr, cov, ms float64
	for _, r := range results {
		if r.Correct {
			s.Hits++
		}
		rr += r.ReciprocalRank
		cov += r.KeywordCoverage
		ms += float64(r.RetrievalMs)
	}
	n := float64(s.Total)
	s.HitRate = float64(s.Hits) / n
	s.MRR = rr / n
	s.KeywordCoverage = cov / n
	s.MeanRetrievalMs = ms / n
	return s
}

// AppendResults appends results as JSON lines to <dir>/<model>.jsonl.
func AppendResults(dir, model string, results []Result) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating results directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.jsonl", slugify(model)))

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("error opening results file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	for _, r := range results {
		if err := encoder.Encode(r); err != nil {
			return "", fmt.Errorf("error writing results: %w", err)
		}
	}
	return path, nil
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	slug := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if slug == "" {
		return "results"
	}
	return slug
}
