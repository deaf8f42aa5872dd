package event

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DocumentID is the canonical document identifier: an opaque string. The
// document service emits it as a JSON number while the manual trigger path
// carries it as a path segment, so the decoder accepts both forms.
type DocumentID string

func (id *DocumentID) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*id = ""
		return nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = DocumentID(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("documentId must be a string or integer: %w", err)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("documentId must be an integer when numeric: %w", err)
	}
	*id = DocumentID(n.String())
	return nil
}

func (id DocumentID) String() string {
	return string(id)
}

// DocumentEvent is the inbound payload on the document events topic,
// produced by the document service when a document is created.
type DocumentEvent struct {
	DocumentID DocumentID `json:"documentId"`
	TitleEN    string     `json:"titleEn"`
}

// TranslationResult is the outbound payload on the translation results
// topic, consumed by the document service when the direct update path is
// unavailable.
type TranslationResult struct {
	DocID           DocumentID `json:"doc_id"`
	TranslatedTitle string     `json:"translated_title"`
}
