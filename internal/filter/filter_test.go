package filter

import (
	"reflect"
	"testing"

	"github.com/TobiSchelling/vizboard/internal/dataset"
)

func rec(topic, sector string, year float64) dataset.Record {
	return dataset.Record{Topic: topic, Sector: sector, Year: dataset.Num(year)}
}

func topics(records []dataset.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Topic
	}
	return out
}

func sampleRecords() []dataset.Record {
	return []dataset.Record{
		rec("gas", "Energy", 2017),
		rec("oil", "Energy", 2018),
		rec("gas", "Retail", 2020),
		rec("market", "Energy", 2017),
		rec("oil", "Manufacturing", 2020),
	}
}

func TestDeriveOptionsFirstOccurrence(t *testing.T) {
	records := sampleRecords()

	got := DeriveOptions(records, dataset.FieldTopic)
	want := []string{"gas", "oil", "market"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	years := DeriveOptions(records, dataset.FieldYear)
	if !reflect.DeepEqual(years, []string{"2017", "2018", "2020"}) {
		t.Errorf("unexpected year options: %v", years)
	}
}

func TestDeriveOptionsNoDuplicates(t *testing.T) {
	opts := DeriveOptions(sampleRecords(), dataset.FieldSector)
	seen := map[string]bool{}
	for _, o := range opts {
		if seen[o] {
			t.Fatalf("duplicate option %q in %v", o, opts)
		}
		seen[o] = true
	}
	if len(opts) != 3 {
		t.Errorf("expected 3 sectors, got %d", len(opts))
	}
}

func TestApplyCombinesTopicAndYear(t *testing.T) {
	records := []dataset.Record{
		rec("Energy", "Power", 2019),
		rec("Energy", "Power", 2020),
		rec("Oil", "Power", 2020),
		rec("Gas", "Retail", 2021),
	}
	spec := Spec{Topics: []string{"Energy"}, Sectors: []string{}, Years: []string{"2020"}}

	got := Apply(records, spec)
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].Topic != "Energy" || got[0].Get(dataset.FieldYear) != "2020" {
		t.Errorf("unexpected record: %+v", got[0])
	}
}

func TestApplyEmptySpecIsPassThrough(t *testing.T) {
	records := sampleRecords()
	got := Apply(records, Spec{})
	if !reflect.DeepEqual(topics(got), topics(records)) {
		t.Errorf("expected all records, got %v", topics(got))
	}
}

func TestApplyPreservesOrderAndMembership(t *testing.T) {
	records := sampleRecords()
	spec := Spec{Topics: []string{"oil", "gas"}, Sectors: []string{"Energy", "Manufacturing"}}

	got := Apply(records, spec)
	want := []string{"gas", "oil", "oil"}
	if !reflect.DeepEqual(topics(got), want) {
		t.Errorf("expected %v, got %v", want, topics(got))
	}
	for _, r := range got {
		if r.Topic != "oil" && r.Topic != "gas" {
			t.Errorf("record %+v violates topic constraint", r)
		}
		if r.Sector == "Retail" {
			t.Errorf("record %+v violates sector constraint", r)
		}
	}
}

func TestApplyIdempotent(t *testing.T) {
	records := sampleRecords()
	spec := Spec{Years: []string{"2017", "2020"}}

	once := Apply(records, spec)
	twice := Apply(once, spec)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("expected idempotent filter, got %v then %v", topics(once), topics(twice))
	}
}

func TestApplyStaleValueMatchesNothing(t *testing.T) {
	got := Apply(sampleRecords(), Spec{Topics: []string{"no-such-topic"}})
	if len(got) != 0 {
		t.Errorf("expected no records, got %d", len(got))
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	records := sampleRecords()
	before := topics(records)
	Apply(records, Spec{Topics: []string{"oil"}})
	if !reflect.DeepEqual(before, topics(records)) {
		t.Error("expected input to be unchanged")
	}
}

func TestDefault(t *testing.T) {
	spec := Default(sampleRecords())
	want := Spec{Topics: []string{"gas"}, Sectors: []string{"Energy"}, Years: []string{"2017"}}
	if !reflect.DeepEqual(spec, want) {
		t.Errorf("expected %+v, got %+v", want, spec)
	}
}

func TestEmptyRecordsYieldEmptyOptionsAndSpec(t *testing.T) {
	if opts := DeriveOptions(nil, dataset.FieldTopic); len(opts) != 0 {
		t.Errorf("expected no options, got %v", opts)
	}
	spec := Default(nil)
	if len(spec.Topics) != 0 || len(spec.Sectors) != 0 || len(spec.Years) != 0 {
		t.Errorf("expected empty spec, got %+v", spec)
	}
	if !spec.IsEmpty() {
		t.Error("expected IsEmpty for default of empty records")
	}
	if got := Apply(nil, spec); len(got) != 0 {
		t.Errorf("expected no records, got %d", len(got))
	}
}

func TestSpecKeyCanonical(t *testing.T) {
	a := Spec{Topics: []string{"oil", "gas", "oil"}, Years: []string{"2020"}}
	b := Spec{Topics: []string{"gas", "oil"}, Years: []string{"2020"}, Sectors: []string{}}
	if a.Key() != b.Key() {
		t.Errorf("expected equal keys, got %q and %q", a.Key(), b.Key())
	}
	c := Spec{Topics: []string{"gas|oil"}}
	if c.Key() == (Spec{Topics: []string{"gas", "oil"}}).Key() {
		t.Error("expected separator in values to be escaped")
	}
}

func TestParseDimension(t *testing.T) {
	tests := map[string]dataset.Field{
		"topic":     dataset.FieldTopic,
		"Topics":    dataset.FieldTopic,
		"sectors":   dataset.FieldSector,
		"year":      dataset.FieldYear,
		"countries": dataset.FieldCountry,
		"pestle":    dataset.FieldPestle,
		"swot":      dataset.FieldSwot,
	}
	for in, want := range tests {
		got, err := ParseDimension(in)
		if err != nil {
			t.Errorf("ParseDimension(%q): unexpected error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseDimension(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := ParseDimension("likelihood"); err == nil {
		t.Error("expected error for non-filter field")
	}
}

func TestWith(t *testing.T) {
	spec, err := Spec{}.With(dataset.FieldCountry, []string{"India"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(spec.Values(dataset.FieldCountry), []string{"India"}) {
		t.Errorf("unexpected countries: %v", spec.Countries)
	}
	if _, err := (Spec{}).With(dataset.FieldIntensity, nil); err == nil {
		t.Error("expected error for unknown dimension")
	}
}
