package main

import (
	"fmt"
	"io"

	"github.com/eyelog/eyelog-go/pkg/eyelog/table"
)

// validFormats lists the output formats of the parse command.
var validFormats = map[string]bool{
	"jsonl":  true,
	"csv":    true,
	"sqlite": true,
}

// writeTable writes t in a stream format.
func writeTable(format string, t *table.Table, out io.Writer) error {
	switch format {
	case "jsonl":
		return t.WriteJSONL(out)
	case "csv":
		return t.WriteCSV(out)
	default:
		return fmt.Errorf("format %q cannot be written to a stream", format)
	}
}
