package validation

import "testing"

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Llamar a cliente", "Llamar a cliente"},
		{"trims whitespace", "  hola  ", "hola"},
		{"strips control chars", "hola\x00mundo\x1b", "holamundo"},
		{"keeps newline and tab", "linea1\nlinea2\tfin", "linea1\nlinea2\tfin"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidatePriority(t *testing.T) {
	t.Parallel()

	for _, v := range []string{"high", "medium", "low"} {
		if err := ValidatePriority(v); err != nil {
			t.Errorf("ValidatePriority(%q) = %v, want nil", v, err)
		}
	}
	for _, v := range []string{"", "urgent", "HIGH"} {
		if err := ValidatePriority(v); err == nil {
			t.Errorf("ValidatePriority(%q) = nil, want error", v)
		}
	}
}

func TestValidateBucket(t *testing.T) {
	t.Parallel()

	for _, v := range []string{"today", "week", ""} {
		if err := ValidateBucket(v); err != nil {
			t.Errorf("ValidateBucket(%q) = %v, want nil", v, err)
		}
	}
	for _, v := range []string{"tomorrow", "Today", "done"} {
		if err := ValidateBucket(v); err == nil {
			t.Errorf("ValidateBucket(%q) = nil, want error", v)
		}
	}
}

func TestValidateStructTags(t *testing.T) {
	t.Parallel()

	type req struct {
		Priority string `validate:"omitempty,priority"`
		Bucket   string `validate:"bucket"`
	}

	if err := Validate.Struct(req{Priority: "high", Bucket: "today"}); err != nil {
		t.Errorf("valid struct rejected: %v", err)
	}
	if err := Validate.Struct(req{Priority: "", Bucket: ""}); err != nil {
		t.Errorf("empty optional fields rejected: %v", err)
	}
	if err := Validate.Struct(req{Priority: "urgent", Bucket: "today"}); err == nil {
		t.Error("invalid priority accepted")
	}
	if err := Validate.Struct(req{Bucket: "manana"}); err == nil {
		t.Error("invalid bucket accepted")
	}
}
