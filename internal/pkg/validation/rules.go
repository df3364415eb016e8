package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	// ProgramCodePattern accepts codes like CS_2024 or SE-2023A
	ProgramCodePattern = `^[A-Za-z0-9][A-Za-z0-9_\-]{1,63}$`

	NameMaxLength        = 200
	TagNameMaxLength     = 100
	RecordTextMaxLength  = 5000
	NotesMaxLength       = 2000
	MaxBatchStudentCount = 1000
)

var CompiledPatterns = struct {
	ProgramCode *regexp.Regexp
}{
	ProgramCode: regexp.MustCompile(ProgramCodePattern),
}

// ParseUUID parses a canonical UUID string. Braced, urn and hyphenless forms are rejected
// so ids round-trip exactly as the database prints them.
func ParseUUID(raw string) (uuid.UUID, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) != 36 {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// IsUUID reports whether raw is a well-formed, non-nil UUID
func IsUUID(raw string) bool {
	_, ok := ParseUUID(raw)
	return ok
}

// StringValidation checks a free-text field
type StringValidation struct {
	Value    string
	MaxLen   int
	Required bool
	Pattern  *regexp.Regexp
}

func NewStringValidation(value string) *StringValidation {
	return &StringValidation{Value: value, Required: true}
}

func (v *StringValidation) WithMaxLength(max int) *StringValidation {
	v.MaxLen = max
	return v
}

func (v *StringValidation) WithPattern(pattern *regexp.Regexp) *StringValidation {
	v.Pattern = pattern
	return v
}

func (v *StringValidation) WithRequired(required bool) *StringValidation {
	v.Required = required
	return v
}

// Validate trims surrounding whitespace before checking
func (v *StringValidation) Validate() bool {
	value := strings.TrimSpace(v.Value)
	if value == "" {
		return !v.Required
	}
	if v.MaxLen > 0 && utf8.RuneCountInString(value) > v.MaxLen {
		return false
	}
	if v.Pattern != nil && !v.Pattern.MatchString(value) {
		return false
	}
	return true
}
