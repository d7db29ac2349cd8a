package paramset

import "testing"

func TestLookupKnownSets(t *testing.T) {
	for _, name := range Names() {
		set, err := Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", name, err)
		}
		if set.Name != name {
			t.Fatalf("Lookup(%q).Name = %q", name, set.Name)
		}
		if set.WinternitzW != 16 || set.N != 32 {
			t.Fatalf("Lookup(%q) = %+v, want w=16 n=32", name, set)
		}
		if set.Height != 10 && set.Height != 16 {
			t.Fatalf("Lookup(%q).Height = %d, want 10 or 16", name, set.Height)
		}
		if _, err := set.NewHash(); err != nil {
			t.Fatalf("Lookup(%q).NewHash(): %v", name, err)
		}
	}
}

func TestLookupUnknownSetFails(t *testing.T) {
	if _, err := Lookup("INVALID"); err == nil {
		t.Fatal("Lookup(\"INVALID\") should have failed")
	}
}
