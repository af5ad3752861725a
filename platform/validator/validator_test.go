package validator

import "testing"

type sample struct {
	Tag  string `validate:"event_tag"`
	Body string `validate:"notblank"`
}

func TestCustomTags(t *testing.T) {
	v := New()

	if err := v.Struct(sample{Tag: "InvoiceCreated", Body: "hi"}); err != nil {
		t.Fatalf("expected valid sample, got %v", err)
	}
	if err := v.Struct(sample{Tag: "Invoice-Created", Body: "hi"}); err == nil {
		t.Fatal("expected punctuation in event tag to fail")
	}
	if err := v.Struct(sample{Tag: "InvoiceCreated", Body: "   "}); err == nil {
		t.Fatal("expected blank body to fail")
	}
}
