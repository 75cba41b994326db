package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spektr-org/sockenstudie/engine"
)

// ============================================================================
// VALIDATION — Struct tags plus per-kind section rules
// ============================================================================

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterStructValidation(validateSection, engine.Section{})
	v.RegisterStructValidation(validateConfig, Config{})
	return v
}

// Validate checks the config. The returned error lists every violation.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate schema: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, formatFieldError(fe))
	}
	return fmt.Errorf("invalid schema: %s", strings.Join(msgs, "; "))
}

func formatFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", field, fe.Param())
	case "unique":
		return fmt.Sprintf("%s: duplicate id %q", field, fe.Value())
	case "kind":
		return fmt.Sprintf("%s: unknown kind %q", field, fe.Value())
	case "bounds":
		return field + ": min must not exceed max"
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

func validateConfig(sl validator.StructLevel) {
	c := sl.Current().Interface().(Config)
	seen := make(map[string]bool, len(c.Sections))
	for i, s := range c.Sections {
		if s.ID == "" {
			continue
		}
		if seen[s.ID] {
			sl.ReportError(s.ID, fmt.Sprintf("sections[%d].id", i), "id", "unique", "")
		}
		seen[s.ID] = true
	}
}

// validateSection enforces the columns each kind reads.
func validateSection(sl validator.StructLevel) {
	s := sl.Current().Interface().(engine.Section)

	if s.ID == "" {
		sl.ReportError(s.ID, "id", "ID", "required", "")
	}

	switch s.Kind {
	case engine.KindScale:
		requireKeys(sl, s)
		if b := s.ScaleBounds(); b.Min > b.Max {
			sl.ReportError(s.Bounds, "bounds", "Bounds", "bounds", "")
		}
	case engine.KindFrequency:
		requireKeys(sl, s)
	case engine.KindText:
		requireField(sl, s.TextKey, "textKey")
	case engine.KindGroupedText:
		requireField(sl, s.TextKey, "textKey")
		requireField(sl, s.SubKey, "subKey")
	case engine.KindImages:
		requireField(sl, s.FileKey, "fileKey")
	case engine.KindScalar:
		requireField(sl, s.ValueKey, "valueKey")
	default:
		sl.ReportError(string(s.Kind), "kind", "Kind", "kind", "")
	}
}

func requireKeys(sl validator.StructLevel, s engine.Section) {
	if len(s.Keys) == 0 {
		sl.ReportError(s.Keys, "keys", "Keys", "required", "")
	}
	for i, k := range s.Keys {
		if k == "" {
			sl.ReportError(k, fmt.Sprintf("keys[%d]", i), "Keys", "required", "")
		}
	}
}

func requireField(sl validator.StructLevel, value, name string) {
	if value == "" {
		sl.ReportError(value, name, name, "required", "")
	}
}
