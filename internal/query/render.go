package query

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"
)

// Render writes the result the way the sapi query command prints it.
func (r *Result) Render(w io.Writer) error {
	ms := r.Elapsed.Milliseconds()
	if !r.Read {
		_, err := fmt.Fprintf(w, "Query executed: %s\nCompleted in %dms\n", r.Status, ms)
		return err
	}
	if len(r.Rows) == 0 {
		_, err := fmt.Fprintf(w, "No rows returned\nQuery executed in %dms\n", ms)
		return err
	}

	table, err := r.table()
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, table); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "\n%d row(s) returned in %dms\n", len(r.Rows), ms)
	return err
}

// table lays out header and rows in aligned columns separated by " | ",
// with a dashed rule under the header.
func (r *Result) table() (string, error) {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 1, ' ', 0)
	writeRow := func(cells []string) {
		_, _ = fmt.Fprintln(tw, strings.Join(cells, "\t| "))
	}
	writeRow(sanitize(r.Columns))
	for _, row := range r.Rows {
		writeRow(sanitize(row))
	}
	if err := tw.Flush(); err != nil {
		return "", err
	}

	lines := strings.SplitAfter(buf.String(), "\n")
	width := 0
	for _, l := range lines {
		if n := utf8.RuneCountInString(strings.TrimRight(l, " \n")); n > width {
			width = n
		}
	}

	var out strings.Builder
	for i, l := range lines {
		if l == "" {
			continue
		}
		out.WriteString(strings.TrimRight(l, " \n"))
		out.WriteByte('\n')
		if i == 0 {
			out.WriteString(strings.Repeat("-", width))
			out.WriteByte('\n')
		}
	}
	return out.String(), nil
}

// sanitize keeps embedded tabs and newlines from breaking the layout.
func sanitize(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.NewReplacer("\t", " ", "\n", " ", "\r", "").Replace(c)
	}
	return out
}
