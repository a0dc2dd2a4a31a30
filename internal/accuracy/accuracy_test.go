package accuracy

import (
	"bufio"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mwiater/ragchat/internal/rag"
)

type mapRetriever map[string][]rag.Result

func (m mapRetriever) Retrieve(_ context.Context, query string, k int) []rag.Result {
	res := m[query]
	if len(res) > k {
		res = res[:k]
	}
	return res
}

func hit(rank int, file, text string, score float64) rag.Result {
	return rag.Result{Rank: rank, Text: text, Score: score, Metadata: rag.Metadata{Filename: file}}
}

func writeSuite(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suite.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write suite: %v", err)
	}
	return path
}

func TestLoadSuite(t *testing.T) {
	path := writeSuite(t, `{"tests":[{"id":1,"question":"What do cats do?","expected_sources":["cats.md"],"keywords":["purr"]}]}`)
	suite, err := LoadSuite(path)
	if err != nil {
		t.Fatalf("LoadSuite returned error: %v", err)
	}
	if len(suite.Tests) != 1 || suite.Tests[0].ExpectedSources[0] != "cats.md" {
		t.Fatalf("unexpected suite: %+v", suite)
	}

	bad := map[string]string{
		"empty":       `{"tests":[]}`,
		"no question": `{"tests":[{"id":1,"question":" ","expected_sources":["a"]}]}`,
		"no sources":  `{"tests":[{"id":1,"question":"q"}]}`,
		"not json":    `tests:`,
	}
	for name, body := range bad {
		if _, err := LoadSuite(writeSuite(t, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := LoadSuite(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEvaluate(t *testing.T) {
	tc := TestCase{ID: 7, Question: "q", ExpectedSources: []string{"Cats.md"}, Keywords: []string{"purr", "sleep", "bark"}}
	res := evaluate(tc, []rag.Result{
		hit(1, "weather.txt", "Rain tomorrow", 0.4),
		hit(2, "cats.md", "Cats PURR and sleep", 0.3),
	})
	if !res.Correct || res.FirstHitRank != 2 || res.ReciprocalRank != 0.5 {
		t.Fatalf("unexpected hit data: %+v", res)
	}
	if math.Abs(res.KeywordCoverage-2.0/3.0) > 1e-9 {
		t.Fatalf("expected 2/3 keyword coverage, got %f", res.KeywordCoverage)
	}
	if res.TopScore != 0.4 || strings.Join(res.RetrievedFiles, ",") != "weather.txt,cats.md" {
		t.Fatalf("unexpected retrieval data: %+v", res)
	}

	miss := evaluate(TestCase{ExpectedSources: []string{"a.md"}}, nil)
	if miss.Correct || miss.ReciprocalRank != 0 || miss.KeywordCoverage != 1 {
		t.Fatalf("unexpected miss result: %+v", miss)
	}
}

func TestRunAndSummarize(t *testing.T) {
	r := mapRetriever{
		"cats":    {hit(1, "cats.md", "cats purr", 0.9)},
		"weather": {hit(1, "cats.md", "cats", 0.2), hit(2, "weather.txt", "rain", 0.1)},
		"dogs":    {hit(1, "cats.md", "cats", 0.1)},
	}
	suite := Suite{Tests: []TestCase{
		{ID: 1, Question: "cats", ExpectedSources: []string{"cats.md"}},
		{ID: 2, Question: "weather", ExpectedSources: []string{"weather.txt"}},
		{ID: 3, Question: "dogs", ExpectedSources: []string{"dogs.md"}},
	}}

	results, summary, err := Run(context.Background(), r, suite, Options{TopK: 2, Concurrency: 2, Model: "hashing-bow-256"})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(results) != 3 || results[0].TestID != 1 || results[2].TestID != 3 {
		t.Fatalf("results out of suite order: %+v", results)
	}
	if summary.Total != 3 || summary.Hits != 2 || summary.TopK != 2 || summary.Model != "hashing-bow-256" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if math.Abs(summary.HitRate-2.0/3.0) > 1e-9 || math.Abs(summary.MRR-0.5) > 1e-9 {
		t.Fatalf("unexpected rates: hit=%f mrr=%f", summary.HitRate, summary.MRR)
	}

	if s := Summarize(nil); s.Total != 0 || s.HitRate != 0 {
		t.Fatalf("unexpected empty summary: %+v", s)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	suite := Suite{Tests: []TestCase{{ID: 1, Question: "q", ExpectedSources: []string{"a"}}}}
	if _, _, err := Run(ctx, mapRetriever{}, suite, Options{}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestAppendResults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	results := []Result{{TestID: 1, Correct: true}, {TestID: 2}}

	path, err := AppendResults(dir, "OpenAI/text-embedding-3-small", results)
	if err != nil {
		t.Fatalf("AppendResults returned error: %v", err)
	}
	if filepath.Base(path) != "openai-text-embedding-3-small.jsonl" {
		t.Fatalf("unexpected path %s", path)
	}
	if _, err := AppendResults(dir, "OpenAI/text-embedding-3-small", results[:1]); err != nil {
		t.Fatalf("second append: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var r Result
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			t.Fatalf("line %d: %v", lines+1, err)
		}
		lines++
	}
	if lines != 3 {
		t.Fatalf("expected 3 appended lines, got %d", lines)
	}
}

func TestSlugify(t *testing.T) {
	if got := slugify("  Hashing BOW 1024 "); got != "hashing-bow-1024" {
		t.Fatalf("unexpected slug %q", got)
	}
	if got := slugify("///"); got != "results" {
		t.Fatalf("expected fallback slug, got %q", got)
	}
}
