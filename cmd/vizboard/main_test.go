package main

import (
	"log/slog"
	"testing"

	"github.com/TobiSchelling/vizboard/internal/dataset"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"Warning": slog.LevelWarn,
		"ERROR":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFilterFlagsSpec(t *testing.T) {
	records := []dataset.Record{
		{Topic: "oil", Sector: "Energy", Year: dataset.Num(2017)},
		{Topic: "gas", Sector: "Retail"},
	}

	f := filterFlags{sectors: []string{"Retail"}}
	spec := f.spec(records)
	if len(spec.Topics) != 0 || len(spec.Sectors) != 1 {
		t.Errorf("unexpected spec without defaults: %+v", spec)
	}

	f.defaults = true
	spec = f.spec(records)
	if len(spec.Topics) != 1 || spec.Topics[0] != "oil" {
		t.Errorf("expected seeded topic, got %+v", spec.Topics)
	}
	if spec.Sectors[0] != "Retail" {
		t.Errorf("expected explicit sector to override default, got %+v", spec.Sectors)
	}
	if spec.Years[0] != "2017" {
		t.Errorf("expected seeded year, got %+v", spec.Years)
	}
}
