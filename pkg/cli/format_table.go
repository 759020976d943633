// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package cli

import (
	"encoding/csv"
	"fmt"
	"html"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/olekukonko/tablewriter"
)

// tableDisplayFormat identifies the format with which table rows are
// printed.
type tableDisplayFormat int

const (
	tableDisplayTSV tableDisplayFormat = iota
	tableDisplayCSV
	tableDisplayPretty
	tableDisplayRecords
	tableDisplayHTML
)

var tableDisplayNames = map[tableDisplayFormat]string{
	tableDisplayTSV:     "tsv",
	tableDisplayCSV:     "csv",
	tableDisplayPretty:  "pretty",
	tableDisplayRecords: "records",
	tableDisplayHTML:    "html",
}

// String implements the pflag.Value interface.
func (f *tableDisplayFormat) String() string {
	return tableDisplayNames[*f]
}

// Type implements the pflag.Value interface.
func (f *tableDisplayFormat) Type() string {
	return "string"
}

// Set implements the pflag.Value interface.
func (f *tableDisplayFormat) Set(s string) error {
	for k, v := range tableDisplayNames {
		if strings.EqualFold(s, v) {
			*f = k
			return nil
		}
	}
	return errors.Newf("invalid table display format: %s "+
		"(possible values: tsv, csv, pretty, records, html)", s)
}

// rowStrIter is an iterator interface for the printQueryOutput function. It
// is used so that results can be streamed to the row formatters as they are
// read from the store.
type rowStrIter interface {
	Next() (row []string, err error)
	ToSlice() (allRows [][]string, err error)
}

// rowSliceIter is an implementation of the rowStrIter interface and it is
// used to wrap a slice of rows that have already been completely buffered
// into memory.
type rowSliceIter struct {
	allRows [][]string
	index   int
}

func (iter *rowSliceIter) Next() (row []string, err error) {
	if iter.index >= len(iter.allRows) {
		return nil, io.EOF
	}
	row = iter.allRows[iter.index]
	iter.index = iter.index + 1
	return row, nil
}

func (iter *rowSliceIter) ToSlice() ([][]string, error) {
	return iter.allRows, nil
}

func newRowSliceIter(allRows [][]string) *rowSliceIter {
	return &rowSliceIter{
		allRows: allRows,
		index:   0,
	}
}

// rowFuncIter streams rows produced by a function returning io.EOF once
// exhausted.
type rowFuncIter func() ([]string, error)

func (fn rowFuncIter) Next() ([]string, error) {
	return fn()
}

func (fn rowFuncIter) ToSlice() ([][]string, error) {
	var all [][]string
	for {
		row, err := fn()
		if err == io.EOF {
			return all, nil
		}
		if err != nil {
			return nil, err
		}
		all = append(all, row)
	}
}

func pluralize(n int64) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// expandTabsAndNewLines ensures that multi-line row strings that may
// contain tabs are properly formatted: tabs are expanded to spaces, and
// newline characters are marked visually. Marking newline characters is
// especially important in single-column results where the terminal would
// otherwise make the output ambiguous.
func expandTabsAndNewLines(s string) string {
	var buf strings.Builder
	// 4-wide columns, 1 character minimum width.
	col := 0
	for _, r := range s {
		switch r {
		case '\t':
			n := 4 - col%4
			buf.WriteString(strings.Repeat(" ", n))
			col += n
		case '\n':
			buf.WriteString("␤\n")
			col = 0
		default:
			buf.WriteRune(r)
			col++
		}
	}
	return buf.String()
}

// printQueryOutput takes a list of column names and a list of row contents
// writes a formatted table to 'w', or simply the tag if empty. Note that
// printQueryOutput expects the tag to already be properly formatted.
func printQueryOutput(
	w io.Writer, cols []string, allRows rowStrIter, tag string, displayFormat tableDisplayFormat,
) error {
	if len(cols) == 0 {
		// This operation did not return rows, just show the tag.
		fmt.Fprintln(w, tag)
		return nil
	}

	switch displayFormat {
	case tableDisplayPretty:
		// Initialize tablewriter and set column names as the header row.
		table := tablewriter.NewWriter(w)
		table.SetAutoFormatHeaders(false)
		table.SetAutoWrapText(false)
		table.SetHeader(cols)
		nRows := 0
		for {
			row, err := allRows.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			for i, r := range row {
				row[i] = expandTabsAndNewLines(r)
			}
			table.Append(row)
			nRows++
		}
		table.Render()
		fmt.Fprintf(w, "(%d row%s)\n", nRows, pluralize(int64(nRows)))

	case tableDisplayTSV, tableDisplayCSV:
		allRowsSlice, err := allRows.ToSlice()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d row%s\n", len(allRowsSlice), pluralize(int64(len(allRowsSlice))))

		csvWriter := csv.NewWriter(w)
		if displayFormat == tableDisplayTSV {
			csvWriter.Comma = '\t'
		}
		_ = csvWriter.Write(cols)
		_ = csvWriter.WriteAll(allRowsSlice)

	case tableDisplayHTML:
		fmt.Fprint(w, "<table>\n<thead><tr>")
		for _, col := range cols {
			fmt.Fprintf(w, "<th>%s</th>", html.EscapeString(col))
		}
		fmt.Fprint(w, "</tr></thead>\n<tbody>\n")
		for {
			row, err := allRows.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			fmt.Fprint(w, "<tr>")
			for _, r := range row {
				fmt.Fprintf(w, "<td>%s</td>", strings.Replace(html.EscapeString(r), "\n", "<br/>", -1))
			}
			fmt.Fprint(w, "</tr>\n")
		}
		fmt.Fprint(w, "</tbody>\n</table>\n")

	case tableDisplayRecords:
		maxColWidth := 0
		for _, col := range cols {
			colLen := utf8.RuneCountInString(col)
			if colLen > maxColWidth {
				maxColWidth = colLen
			}
		}

		for i := 0; ; i++ {
			row, err := allRows.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "-[ RECORD %d ]\n", i+1)
			for j, r := range row {
				lines := strings.Split(r, "\n")
				for l, line := range lines {
					colLabel := cols[j]
					if l > 0 {
						colLabel = ""
					}
					fmt.Fprintf(w, "%-*s | %s\n", maxColWidth, colLabel, line)
				}
			}
		}
	}
	return nil
}
