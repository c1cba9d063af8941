package model

import "testing"

func TestLoadAveragesGPHAcrossSources(t *testing.T) {
	table, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	g5, ok := table["GULFSTREAM 5"]
	if !ok {
		t.Fatal("GULFSTREAM 5 not found")
	}
	want := (500 + 430 + 455 + 438) / 4
	if g5.GPH != want {
		t.Fatalf("got %d want %d", g5.GPH, want)
	}
	if g5.Source != "faa-gama;eurocontrol;conklin-decker;nbaa" {
		t.Fatalf("unexpected source concatenation: %q", g5.Source)
	}
}

func TestLoadSingleSourceModel(t *testing.T) {
	table, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	m, ok := table["EMBRAER PHENOM 300"]
	if !ok {
		t.Fatal("EMBRAER PHENOM 300 not found")
	}
	if m.GPH != 175 {
		t.Fatalf("got %d want 175", m.GPH)
	}
}
