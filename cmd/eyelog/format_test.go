package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/eyelog/eyelog-go/pkg/eyelog/table"
)

func TestValidFormats(t *testing.T) {
	tests := []struct {
		format string
		valid  bool
	}{
		{"jsonl", true},
		{"csv", true},
		{"sqlite", true},
		{"json", false},
		{"parquet", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got := validFormats[tt.format]
			if got != tt.valid {
				t.Errorf("validFormats[%q] = %v, want %v", tt.format, got, tt.valid)
			}
		})
	}
}

func TestWriteTable(t *testing.T) {
	tbl := table.New()
	row := tbl.AppendRow()
	if err := tbl.Set(row, "trialid", int64(1)); err != nil {
		t.Fatal(err)
	}
	if err := tbl.Set(row, "cond", "A"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		format string
		want   string
	}{
		{"jsonl", `{"trialid":1,"cond":"A"}` + "\n"},
		{"csv", "trialid,cond\n1,A\n"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := writeTable(tt.format, tbl, &buf); err != nil {
				t.Fatalf("writeTable() error = %v", err)
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("writeTable() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("sqlite", func(t *testing.T) {
		var buf bytes.Buffer
		err := writeTable("sqlite", tbl, &buf)
		if err == nil || !strings.Contains(err.Error(), "stream") {
			t.Errorf("writeTable(sqlite) error = %v, want stream error", err)
		}
	})
}
