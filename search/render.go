package search

import (
	"fmt"
	"io"
	"strings"
)

// Render writes a ranked result listing to w.
func Render(w io.Writer, results []Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "no results")
		return
	}
	for i, r := range results {
		doc := r.Document
		fmt.Fprintf(w, "%2d. [%.4f] %s\n", i+1, r.Score, doc.Title)
		if len(doc.Categories) > 0 {
			fmt.Fprintf(w, "    %s | %s\n", doc.ID, strings.Join(doc.Categories, ", "))
		} else {
			fmt.Fprintf(w, "    %s\n", doc.ID)
		}
	}
}
