package extract

import (
	"fmt"

	"github.com/dslipak/pdf"

	"assistant/internal/domain"
)

func extractPDF(path string) ([]domain.Document, error) {
	reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	var docs []domain.Document
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract pdf page %d: %w", i, err)
		}
		docs = append(docs, domain.Document{
			Content: text,
			Metadata: map[string]any{
				domain.MetadataKeySource: path,
				domain.MetadataKeyPage:   i,
			},
		})
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("pdf contains no extractable text: %s", path)
	}
	return docs, nil
}
