package diag

import (
	"crest/internal/source"
)

// Note is a secondary span with extra context ("the troublesome function is
// here").
type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is the central record produced by compiler passes. It is data
// only; rendering lives in the CLI layer.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
}

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}
