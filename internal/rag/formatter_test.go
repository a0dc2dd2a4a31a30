package rag

import (
	"strings"
	"testing"
)

func TestFormatContextRespectsTokenLimit(t *testing.T) {
	results := []Result{
		{Rank: 1, Text: "one two three four", Score: 0.9, Metadata: Metadata{Filename: "a.md"}},
		{Rank: 2, Text: "five six seven", Score: 0.5, Metadata: Metadata{Filename: "b.md"}},
	}

	context, tokens, sources := FormatContext(results, 5)
	if tokens != 5 {
		t.Fatalf("expected 5 tokens, got %d", tokens)
	}
	if sources != 2 {
		t.Fatalf("expected 2 sources, got %d", sources)
	}
	if !strings.Contains(context, "[1 doc:a.md score=0.900] one two three four") {
		t.Fatalf("unexpected context:\n%s", context)
	}
	if !strings.HasSuffix(context, "[2 doc:b.md score=0.500] five") {
		t.Fatalf("expected second hit truncated to one word:\n%s", context)
	}
}

func TestFormatContextNoResults(t *testing.T) {
	context, tokens, sources := FormatContext(nil, 10)
	if context != "" || tokens != 0 || sources != 0 {
		t.Fatalf("expected empty result when no results")
	}
}

func TestFormatContextUnlimited(t *testing.T) {
	results := []Result{
		{Rank: 1, Text: "alpha\n beta", Metadata: Metadata{Filename: "a.md"}},
		{Rank: 2, Text: "gamma", Metadata: Metadata{Filename: "a.md"}},
	}
	context, tokens, sources := FormatContext(results, 0)
	if tokens != 3 || sources != 1 {
		t.Fatalf("expected 3 tokens from 1 source, got %d from %d", tokens, sources)
	}
	if strings.Count(context, "\n") != 2 {
		t.Fatalf("expected header plus two lines:\n%s", context)
	}
}
