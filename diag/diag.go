// Package diag defines the diagnostics the expansion engine reports back to
// its caller. Diagnostics never abort processing; they describe fallback or
// unresolved-expansion events per call site.
package diag

import "fmt"

// Severity captures how impactful a diagnostic is.
type Severity int

const (
	// Info marks correct-but-less-concise output, such as a behavior body
	// extracted into an auxiliary function.
	Info Severity = iota
	// Warning marks output that may be semantically wrong.
	Warning
	// Error marks rejected input, such as a malformed template definition.
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "?"
	}
}

// Code is a stable identifier for a diagnostic.
type Code string

const (
	// CodeBehaviorExtracted reports that a behavior body could not be
	// linearized into an expression and was extracted into a standalone
	// auxiliary function.
	CodeBehaviorExtracted Code = "behavior-extracted"
	// CodeBehaviorUnresolved reports that a behavior body could not be
	// resolved at all; a placeholder value was substituted and the output
	// may be semantically wrong.
	CodeBehaviorUnresolved Code = "behavior-unresolved"
	// CodeExpansionVoid reports a template with no result expression used in
	// value position; a nil placeholder was substituted.
	CodeExpansionVoid Code = "expansion-void"
	// CodeGenericUnresolved reports a template type parameter that could
	// not be inferred from the call site and was left as-is.
	CodeGenericUnresolved Code = "generic-unresolved"
	// CodeTemplateInvalid reports a malformed template definition refused
	// at registration time.
	CodeTemplateInvalid Code = "template-invalid"
)

// Pos is a source location.
type Pos struct {
	File string
	Line int
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("line %d", p.Line)
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// Diagnostic is one located, severity-tagged message.
type Diagnostic struct {
	Code     Code
	Severity Severity
	Message  string
	Pos      Pos
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s [%s]", d.Pos, d.Severity, d.Message, d.Code)
}

// Infof builds an Info diagnostic.
func Infof(code Code, pos Pos, format string, args ...any) Diagnostic {
	return Diagnostic{Code: code, Severity: Info, Message: fmt.Sprintf(format, args...), Pos: pos}
}

// Warnf builds a Warning diagnostic.
func Warnf(code Code, pos Pos, format string, args ...any) Diagnostic {
	return Diagnostic{Code: code, Severity: Warning, Message: fmt.Sprintf(format, args...), Pos: pos}
}

// Errorf builds an Error diagnostic.
func Errorf(code Code, pos Pos, format string, args ...any) Diagnostic {
	return Diagnostic{Code: code, Severity: Error, Message: fmt.Sprintf(format, args...), Pos: pos}
}
