// Package render writes human readable verification reports.
package render

import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"company-verify/internal/verify"
)

var titler = cases.Title(language.English)

// Text writes the verdict, the composite score and every source check to w.
func Text(w io.Writer, report verify.Report) error {
	ew := &errWriter{w: w}
	ew.printf("Company: %s\n", report.CompanyName)
	ew.printf("Verdict: %s\n", report.Verdict.Label())
	ew.printf("Composite score: %.1f / 100\n", report.CompositeScore)

	for _, rec := range report.Checks {
		ew.printf("\n%s (%s)\n", rec.Source.Label(), rec.Source)
		if rec.Failed() {
			ew.printf("  Error: %s\n", rec.Error)
			continue
		}
		ew.printf("  Confidence: %s\n", formatFloat(rec.Confidence))
		keys := make([]string, 0, len(rec.Details))
		for k := range rec.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			ew.printf("  %s: %s\n", TitleKey(k), FormatValue(rec.Details[k]))
		}
	}
	return ew.err
}

// TitleKey turns a snake_case detail key into a label, e.g. "age_years" -> "Age Years".
func TitleKey(key string) string {
	return titler.String(strings.ReplaceAll(key, "_", " "))
}

// FormatValue renders a detail value on one line. Lists are comma separated,
// empty lists print as "none".
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case string:
		return val
	case bool:
		if val {
			return "yes"
		}
		return "no"
	case float64:
		return formatFloat(val)
	case fmt.Stringer:
		return val.String()
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		if rv.Len() == 0 {
			return "none"
		}
		parts := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			parts = append(parts, FormatValue(rv.Index(i).Interface()))
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprint(v)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
