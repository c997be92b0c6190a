package validate

import (
	"strings"
)

// Failure aggregates every blocking finding from one validation pass,
// so a caller sees the complete remediation list at once instead of
// fixing variables one failure at a time.
type Failure struct {
	Errors   []ValidationError `json:"errors"`
	Warnings []ValidationError `json:"warnings,omitempty"`
}

func (f *Failure) Error() string {
	var b strings.Builder
	b.WriteString("environment validation failed:\n")
	for _, e := range f.Errors {
		b.WriteString("  ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	b.WriteString("See .env.example for documentation of every variable.")
	return b.String()
}

// AsFailure unwraps err into a *Failure, or nil when it is not one.
func AsFailure(err error) *Failure {
	if f, ok := err.(*Failure); ok {
		return f
	}
	return nil
}
