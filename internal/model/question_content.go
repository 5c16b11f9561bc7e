package model

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

type ContentKind string

const (
	ContentText  ContentKind = "text"
	ContentTable ContentKind = "table"
	ContentImage ContentKind = "image"
	ContentMixed ContentKind = "mixed"
)

// QuestionContent 题干/选项内容，只在数据边界解码一次
type QuestionContent struct {
	Kind  ContentKind       `json:"kind"`
	Text  string            `json:"text,omitempty"`
	Table *TableData        `json:"table,omitempty"`
	Image *ImageRef         `json:"image,omitempty"`
	Parts []QuestionContent `json:"parts,omitempty"`
}

type TableData struct {
	Headers []string   `json:"headers,omitempty"`
	Rows    [][]string `json:"rows"`
}

// ImageRef Key 为对象存储中的路径，URL 在返回给前端前填充
type ImageRef struct {
	Key string `json:"key,omitempty"`
	URL string `json:"url,omitempty"`
	Alt string `json:"alt,omitempty"`
}

func TextContent(s string) QuestionContent {
	return QuestionContent{Kind: ContentText, Text: s}
}

func (c QuestionContent) IsZero() bool {
	return c.Kind == "" && c.Text == "" && c.Table == nil && c.Image == nil && len(c.Parts) == 0
}

// WalkImages 遍历所有图片引用（包括 Mixed 中嵌套的）
func (c *QuestionContent) WalkImages(fn func(*ImageRef)) {
	if c.Image != nil {
		fn(c.Image)
	}
	for i := range c.Parts {
		c.Parts[i].WalkImages(fn)
	}
}

// DecodeQuestionContent 兼容历史数据的多种形态：
// 字符串、{kind,...}、{headers,rows}、{image|url|src|key}、{text}、二维字符串数组、混合数组
func DecodeQuestionContent(raw []byte) QuestionContent {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return TextContent("")
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return TextContent(s)
		}
	case '{':
		if c, ok := decodeObject(raw); ok {
			return c
		}
	case '[':
		if c, ok := decodeArray(raw); ok {
			return c
		}
	}

	return TextContent(string(raw))
}

func decodeObject(raw []byte) (QuestionContent, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return QuestionContent{}, false
	}

	if _, ok := obj["kind"]; ok {
		var c QuestionContent
		if err := json.Unmarshal(raw, &c); err == nil {
			switch c.Kind {
			case ContentText, ContentTable, ContentImage, ContentMixed:
				return c, true
			}
		}
	}

	if rows, ok := obj["rows"]; ok {
		t := &TableData{}
		if err := json.Unmarshal(rows, &t.Rows); err != nil {
			return QuestionContent{}, false
		}
		if h, ok := obj["headers"]; ok {
			_ = json.Unmarshal(h, &t.Headers)
		}
		return QuestionContent{Kind: ContentTable, Table: t}, true
	}

	for _, key := range []string{"image", "url", "src", "key"} {
		v, ok := obj[key]
		if !ok {
			continue
		}
		ref := &ImageRef{}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			if key == "url" || strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
				ref.URL = s
			} else {
				ref.Key = s
			}
		} else if err := json.Unmarshal(v, ref); err != nil {
			return QuestionContent{}, false
		}
		if alt, ok := obj["alt"]; ok {
			_ = json.Unmarshal(alt, &ref.Alt)
		}
		return QuestionContent{Kind: ContentImage, Image: ref}, true
	}

	if t, ok := obj["text"]; ok {
		var s string
		if err := json.Unmarshal(t, &s); err == nil {
			return TextContent(s), true
		}
	}

	return QuestionContent{}, false
}

func decodeArray(raw []byte) (QuestionContent, bool) {
	var table [][]string
	if err := json.Unmarshal(raw, &table); err == nil && len(table) > 0 {
		return QuestionContent{Kind: ContentTable, Table: &TableData{Rows: table}}, true
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return QuestionContent{}, false
	}
	parts := make([]QuestionContent, 0, len(items))
	for _, item := range items {
		parts = append(parts, DecodeQuestionContent(item))
	}
	return QuestionContent{Kind: ContentMixed, Parts: parts}, true
}

// DecodeOptions 选项可能是数组，也可能是 {"A": ..., "B": ...}
func DecodeOptions(raw []byte) []QuestionContent {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		out := make([]QuestionContent, 0, len(items))
		for _, item := range items {
			out = append(out, DecodeQuestionContent(item))
		}
		return out
	}

	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keyed); err == nil {
		keys := make([]string, 0, len(keyed))
		for k := range keyed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]QuestionContent, 0, len(keys))
		for _, k := range keys {
			out = append(out, DecodeQuestionContent(keyed[k]))
		}
		return out
	}

	return []QuestionContent{DecodeQuestionContent(raw)}
}
