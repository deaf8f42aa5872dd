package event

import (
	"encoding/json"
	"testing"
)

func TestParseDocumentEventStringID(t *testing.T) {
	t.Parallel()

	ev, err := ParseDocumentEvent(json.RawMessage(`{"documentId": "abc-123", "titleEn": "Hello world"}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if ev.DocumentID != "abc-123" {
		t.Fatalf("unexpected document id: %q", ev.DocumentID)
	}
	if ev.TitleEN != "Hello world" {
		t.Fatalf("unexpected title: %q", ev.TitleEN)
	}
}

func TestParseDocumentEventNumericID(t *testing.T) {
	t.Parallel()

	ev, err := ParseDocumentEvent(json.RawMessage(`{"documentId": 42, "titleEn": "Hello world"}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if ev.DocumentID.String() != "42" {
		t.Fatalf("numeric id should decode to its decimal string, got %q", ev.DocumentID)
	}
}

func TestParseDocumentEventRejectsInvalid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		payload string
	}{
		{"missing title", `{"documentId": 42}`},
		{"empty title", `{"documentId": 42, "titleEn": ""}`},
		{"blank title", `{"documentId": 42, "titleEn": "   "}`},
		{"missing id", `{"titleEn": "Hello"}`},
		{"empty id", `{"documentId": "", "titleEn": "Hello"}`},
		{"float id", `{"documentId": 4.2, "titleEn": "Hello"}`},
		{"not json", `{documentId: 42}`},
		{"empty payload", ``},
		{"trailing content", `{"documentId": 1, "titleEn": "x"} extra`},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := ParseDocumentEvent(json.RawMessage(tc.payload)); err == nil {
				t.Fatalf("expected error for payload %q", tc.payload)
			}
		})
	}
}

func TestParseDocumentEventIgnoresExtraFields(t *testing.T) {
	t.Parallel()

	ev, err := ParseDocumentEvent(json.RawMessage(`{"documentId": 7, "titleEn": "Hi", "department": "legal"}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if ev.DocumentID.String() != "7" {
		t.Fatalf("unexpected document id: %q", ev.DocumentID)
	}
}

func TestTranslationResultMarshal(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(TranslationResult{DocID: "42", TranslatedTitle: "Hola mundo"})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	want := `{"doc_id":"42","translated_title":"Hola mundo"}`
	if string(data) != want {
		t.Fatalf("unexpected JSON: %s", data)
	}
}
