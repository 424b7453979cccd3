package schema

import "testing"

const limitsLike = `{
  "type": "object",
  "properties": {
    "max_key_length": {"type": "integer", "minimum": 1}
  },
  "additionalProperties": false
}`

func TestValidateAccepts(t *testing.T) {
	payload := map[string]any{"max_key_length": 1024}
	if err := Validate("limits", []byte(limitsLike), payload); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateRejectsUnknownField(t *testing.T) {
	payload := map[string]any{"max_value_length": 1}
	if err := Validate("limits", []byte(limitsLike), payload); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidateRejectsWrongType(t *testing.T) {
	if err := Validate("limits", []byte(limitsLike), []byte(`{"max_key_length":"big"}`)); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidateEmptySchema(t *testing.T) {
	if err := Validate("limits", nil, map[string]any{}); err == nil {
		t.Fatalf("expected error for empty schema")
	}
}
