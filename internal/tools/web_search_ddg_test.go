package tools

import "testing"

func TestExtractDDGResults_ParsesLinksAndSnippets(t *testing.T) {
	html := `
	<div class="result">
		<a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fpage&amp;rut=abc">Example Page</a>
		<a class="result__snippet" href="#">A short description.</a>
	</div>`
	results, err := extractDDGResults(html, 5)
	if err != nil {
		t.Fatalf("extractDDGResults: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Title != "Example Page" {
		t.Errorf("title = %q, want Example Page", results[0].Title)
	}
	if results[0].URL != "https://example.com/page" {
		t.Errorf("url = %q, want the redirect unwrapped", results[0].URL)
	}
	if results[0].Description != "A short description." {
		t.Errorf("description = %q", results[0].Description)
	}
}

func TestExtractDDGResults_NoMatches(t *testing.T) {
	results, err := extractDDGResults("<html><body>no results here</body></html>", 5)
	if err != nil {
		t.Fatalf("extractDDGResults: %v", err)
	}
	if results != nil {
		t.Errorf("got %v, want nil", results)
	}
}

func TestExtractDDGResults_RespectsCount(t *testing.T) {
	html := ""
	for i := 0; i < 5; i++ {
		html += `<a class="result__a" href="https://example.com/` + string(rune('a'+i)) + `">Title</a>`
	}
	results, err := extractDDGResults(html, 2)
	if err != nil {
		t.Fatalf("extractDDGResults: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 (count limit respected)", len(results))
	}
}
