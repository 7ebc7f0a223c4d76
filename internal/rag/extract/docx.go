package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"assistant/internal/domain"
)

// documentXML mirrors the subset of word/document.xml we read: top-level
// paragraphs plus paragraphs nested inside table cells.
type documentXML struct {
	Body struct {
		Paragraphs []paragraphXML `xml:"p"`
		Tables     []struct {
			Rows []struct {
				Cells []struct {
					Paragraphs []paragraphXML `xml:"p"`
				} `xml:"tc"`
			} `xml:"tr"`
		} `xml:"tbl"`
	} `xml:"body"`
}

type paragraphXML struct {
	Runs []struct {
		Text []struct {
			Content string `xml:",chardata"`
		} `xml:"t"`
	} `xml:"r"`
}

func (p paragraphXML) text() string {
	var b strings.Builder
	for _, run := range p.Runs {
		for _, t := range run.Text {
			b.WriteString(t.Content)
		}
	}
	return b.String()
}

func extractDOCX(path string) ([]domain.Document, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open docx archive: %w", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open document.xml: %w", err)
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read document.xml: %w", err)
		}

		var doc documentXML
		if err := xml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse document.xml: %w", err)
		}

		var lines []string
		for _, para := range doc.Body.Paragraphs {
			lines = append(lines, para.text())
		}
		for _, table := range doc.Body.Tables {
			for _, row := range table.Rows {
				var cells []string
				for _, cell := range row.Cells {
					var parts []string
					for _, para := range cell.Paragraphs {
						if t := para.text(); t != "" {
							parts = append(parts, t)
						}
					}
					cells = append(cells, strings.Join(parts, " "))
				}
				lines = append(lines, strings.Join(cells, " "))
			}
		}

		return []domain.Document{{
			Content:  strings.TrimSpace(strings.Join(lines, "\n")),
			Metadata: map[string]any{domain.MetadataKeySource: path},
		}}, nil
	}

	return nil, fmt.Errorf("docx archive has no word/document.xml: %s", path)
}
