package models

import "strings"

// Document is the subset of a structured document body needed to render text.
type Document struct {
	DocumentID string `json:"documentId"`
	Title      string `json:"title"`
	Body       *Body  `json:"body,omitempty"`
}

type Body struct {
	Content []StructuralElement `json:"content"`
}

type StructuralElement struct {
	Paragraph *Paragraph `json:"paragraph,omitempty"`
}

type Paragraph struct {
	Elements []ParagraphElement `json:"elements"`
}

type ParagraphElement struct {
	TextRun *TextRun `json:"textRun,omitempty"`
}

type TextRun struct {
	Content string `json:"content"`
}

// PlainText flattens the document: the text runs of each paragraph are
// concatenated, every paragraph is followed by a newline, and the result is
// trimmed. Non-paragraph elements (tables, section breaks) are skipped.
func (d *Document) PlainText() string {
	if d == nil || d.Body == nil {
		return ""
	}
	var b strings.Builder
	for _, el := range d.Body.Content {
		if el.Paragraph == nil {
			continue
		}
		for _, pe := range el.Paragraph.Elements {
			if pe.TextRun != nil {
				b.WriteString(pe.TextRun.Content)
			}
		}
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String())
}
