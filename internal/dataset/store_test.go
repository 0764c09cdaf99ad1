package dataset

import "testing"

func TestNilStoreIsEmpty(t *testing.T) {
	var s *Store
	if s.Len() != 0 || s.Records() != nil || s.Generation() != 0 {
		t.Error("expected nil store to behave as empty")
	}
}

func TestStoreCopiesInput(t *testing.T) {
	in := []Record{{Topic: "gas"}, {Topic: "oil"}}
	s := NewStore(in)
	in[0].Topic = "changed"

	if s.Records()[0].Topic != "gas" {
		t.Error("expected store to be isolated from caller's slice")
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 records, got %d", s.Len())
	}
}

func TestStoreGenerationsAreUnique(t *testing.T) {
	a := NewStore(nil)
	b := NewStore(nil)
	if a.Generation() == 0 || a.Generation() == b.Generation() {
		t.Errorf("expected distinct non-zero generations, got %d and %d", a.Generation(), b.Generation())
	}
}

func TestStoreRecordsAppendDoesNotLeak(t *testing.T) {
	s := NewStore([]Record{{Topic: "a"}})
	out := append(s.Records(), Record{Topic: "b"})
	if len(out) != 2 || s.Len() != 1 {
		t.Error("expected append on Records() to leave the store unchanged")
	}
}

func TestStoreDigestIdentifiesContent(t *testing.T) {
	a := NewStore([]Record{{Topic: "oil", Year: Num(2017)}})
	b := NewStore([]Record{{Topic: "oil", Year: Num(2017)}})
	c := NewStore([]Record{{Topic: "gas", Year: Num(2017)}})

	if a.Generation() == b.Generation() {
		t.Fatal("expected distinct generations")
	}
	if a.Digest() == "" || a.Digest() != b.Digest() {
		t.Errorf("expected equal content to share a digest, got %q and %q", a.Digest(), b.Digest())
	}
	if a.Digest() == c.Digest() {
		t.Error("expected different content to have different digests")
	}
	if NewStore(nil).Digest() == a.Digest() {
		t.Error("expected empty store digest to differ")
	}

	var nilStore *Store
	if nilStore.Digest() != "" {
		t.Error("expected empty digest for nil store")
	}
}

func TestStoreDigestDependsOnOrder(t *testing.T) {
	first := NewStore([]Record{{Topic: "oil"}, {Topic: "gas"}})
	second := NewStore([]Record{{Topic: "gas"}, {Topic: "oil"}})
	if first.Digest() == second.Digest() {
		t.Error("expected reordered records to have different digests")
	}
}
