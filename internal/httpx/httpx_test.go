package httpx

import (
	"net/url"
	"strings"
	"testing"
)

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	if err := DecodeJSON(strings.NewReader(`{"name":"Rex"}`), &dst); err != nil {
		t.Fatalf("DecodeJSON error: %v", err)
	}
	if dst.Name != "Rex" {
		t.Fatalf("unexpected name: %q", dst.Name)
	}
	if err := DecodeJSON(strings.NewReader(`{"name":"Rex","extra":1}`), &dst); err == nil {
		t.Fatalf("expected unknown field error")
	}
	if err := DecodeJSON(strings.NewReader(`{"name":"a"}{"name":"b"}`), &dst); err == nil {
		t.Fatalf("expected single object error")
	}
}

func TestParseLimitOffset(t *testing.T) {
	limit, offset, err := ParseLimitOffset(url.Values{"limit": {"500"}, "offset": {"10"}}, 50, 200)
	if err != nil {
		t.Fatalf("ParseLimitOffset error: %v", err)
	}
	if limit != 200 || offset != 10 {
		t.Fatalf("unexpected limit/offset: %d/%d", limit, offset)
	}
	if _, _, err := ParseLimitOffset(url.Values{"limit": {"-1"}}, 50, 200); err == nil {
		t.Fatalf("expected invalid limit error")
	}
}

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	if got := Page(items, 2, 1); len(got) != 2 || got[0] != 2 {
		t.Fatalf("unexpected page: %v", got)
	}
	if got := Page(items, 10, 3); len(got) != 2 {
		t.Fatalf("unexpected tail page: %v", got)
	}
	if got := Page(items, 2, 9); len(got) != 0 {
		t.Fatalf("expected empty page, got %v", got)
	}
}
