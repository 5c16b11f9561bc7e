package model

import "testing"

func TestDecodeQuestionContentShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind ContentKind
		text string
	}{
		{"plain string", `"What is x?"`, ContentText, "What is x?"},
		{"null", `null`, ContentText, ""},
		{"empty", ``, ContentText, ""},
		{"text object", `{"text":"Solve for y"}`, ContentText, "Solve for y"},
		{"tagged text", `{"kind":"text","text":"tagged"}`, ContentText, "tagged"},
		{"bare number", `42`, ContentText, "42"},
		{"unknown object", `{"foo":1}`, ContentText, `{"foo":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DecodeQuestionContent([]byte(tt.raw))
			if c.Kind != tt.kind || c.Text != tt.text {
				t.Fatalf("got kind=%q text=%q, want kind=%q text=%q", c.Kind, c.Text, tt.kind, tt.text)
			}
		})
	}
}

func TestDecodeQuestionContentTable(t *testing.T) {
	c := DecodeQuestionContent([]byte(`{"headers":["x","y"],"rows":[["1","2"],["3","4"]]}`))
	if c.Kind != ContentTable || c.Table == nil {
		t.Fatalf("expected table, got %+v", c)
	}
	if len(c.Table.Headers) != 2 || len(c.Table.Rows) != 2 || c.Table.Rows[1][0] != "3" {
		t.Fatalf("unexpected table %+v", c.Table)
	}

	grid := DecodeQuestionContent([]byte(`[["a","b"],["c","d"]]`))
	if grid.Kind != ContentTable || len(grid.Table.Rows) != 2 || grid.Table.Headers != nil {
		t.Fatalf("expected header-less table, got %+v", grid)
	}
}

func TestDecodeQuestionContentImages(t *testing.T) {
	byKey := DecodeQuestionContent([]byte(`{"image":"questions/q1.png","alt":"graph"}`))
	if byKey.Kind != ContentImage || byKey.Image.Key != "questions/q1.png" || byKey.Image.Alt != "graph" {
		t.Fatalf("unexpected image %+v", byKey.Image)
	}

	byURL := DecodeQuestionContent([]byte(`{"url":"https://cdn.example.com/q2.png"}`))
	if byURL.Kind != ContentImage || byURL.Image.URL != "https://cdn.example.com/q2.png" || byURL.Image.Key != "" {
		t.Fatalf("unexpected image %+v", byURL.Image)
	}
}

func TestDecodeQuestionContentMixed(t *testing.T) {
	c := DecodeQuestionContent([]byte(`["Look at the chart", {"image":"charts/c1.png"}, {"rows":[["1"]]}]`))
	if c.Kind != ContentMixed || len(c.Parts) != 3 {
		t.Fatalf("expected 3 mixed parts, got %+v", c)
	}
	if c.Parts[0].Kind != ContentText || c.Parts[1].Kind != ContentImage || c.Parts[2].Kind != ContentTable {
		t.Fatalf("unexpected part kinds %+v", c.Parts)
	}

	var keys []string
	c.WalkImages(func(ref *ImageRef) {
		keys = append(keys, ref.Key)
		ref.URL = "/uploads/" + ref.Key
	})
	if len(keys) != 1 || keys[0] != "charts/c1.png" {
		t.Fatalf("unexpected walked images %v", keys)
	}
	if c.Parts[1].Image.URL != "/uploads/charts/c1.png" {
		t.Fatalf("WalkImages should mutate in place")
	}
}

func TestDecodeOptions(t *testing.T) {
	list := DecodeOptions([]byte(`["4", "5", {"text":"6"}]`))
	if len(list) != 3 || list[2].Text != "6" {
		t.Fatalf("unexpected options %+v", list)
	}

	keyed := DecodeOptions([]byte(`{"B":"second","A":"first","C":"third"}`))
	if len(keyed) != 3 || keyed[0].Text != "first" || keyed[2].Text != "third" {
		t.Fatalf("keyed options should be ordered by key, got %+v", keyed)
	}

	if DecodeOptions([]byte(`null`)) != nil {
		t.Fatalf("null options should decode to nil")
	}
}
