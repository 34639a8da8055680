package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Conceptual-Machines/tidal-companion/internal/models"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeThoughts(w io.Writer, thoughts []models.Thought) {
	for _, th := range thoughts {
		if th.Prob > 0 {
			fmt.Fprintf(w, "  %-24s %.2f\n", th.Token, th.Prob)
		} else {
			fmt.Fprintf(w, "  %s\n", th.Token)
		}
	}
}

func writeValidation(w io.Writer, res models.ValidationResult) {
	if res.Valid {
		fmt.Fprintln(w, "✅ valid")
		return
	}
	fmt.Fprintln(w, "❌ invalid")
	for _, issue := range res.Issues {
		fmt.Fprintf(w, "  - %s\n", issue)
	}
}
