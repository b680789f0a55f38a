package logger

import (
	"io"
	"regexp"
)

const redacted = "[REDACTED]"

type redactionRule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Redactor redacts sensitive information from logs
type Redactor struct {
	rules []redactionRule
}

// NewRedactor creates a new redactor with default patterns
func NewRedactor() *Redactor {
	r := &Redactor{}

	// Environment variables logged as key/value fields whose name looks
	// secret, e.g. {"key":"GITHUB_TOKEN","value":"..."}
	r.rules = append(r.rules, redactionRule{
		pattern:     regexp.MustCompile(`("key":"[^"]*(?i:token|secret|passw(?:or)?d|credential|api_?key|private)[^"]*","value":)"(?:[^"\\]|\\.)*"`),
		replacement: `${1}"` + redacted + `"`,
	})

	for _, expr := range []string{
		// API keys
		`sk-[a-zA-Z0-9_-]{20,}`,

		// Bearer tokens
		`Bearer\s+[a-zA-Z0-9._-]+`,

		// GitHub tokens
		`gh[pousr]_[A-Za-z0-9]{30,}`,

		// Passwords in KEY=VALUE text
		`(?i)password=[^\s"]+`,

		// AWS keys
		`AKIA[0-9A-Z]{16}`,
	} {
		r.rules = append(r.rules, redactionRule{pattern: regexp.MustCompile(expr), replacement: redacted})
	}

	return r
}

// AddPattern adds a custom redaction pattern
func (r *Redactor) AddPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	r.rules = append(r.rules, redactionRule{pattern: re, replacement: redacted})
	return nil
}

// Redact redacts sensitive information from a string
func (r *Redactor) Redact(s string) string {
	result := s
	for _, rule := range r.rules {
		result = rule.pattern.ReplaceAllString(result, rule.replacement)
	}
	return result
}

// Wrap wraps an io.Writer to redact sensitive information
func (r *Redactor) Wrap(w io.Writer) io.Writer {
	return &redactingWriter{
		writer:   w,
		redactor: r,
	}
}

// redactingWriter is an io.Writer that redacts sensitive information
type redactingWriter struct {
	writer   io.Writer
	redactor *Redactor
}

func (w *redactingWriter) Write(p []byte) (n int, err error) {
	if _, err := w.writer.Write([]byte(w.redactor.Redact(string(p)))); err != nil {
		return 0, err
	}
	// zerolog treats a short count as an error; the redacted length differs.
	return len(p), nil
}
