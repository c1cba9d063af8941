package csvutil

import (
	"reflect"
	"testing"
)

func TestHivePathRoundTrip(t *testing.T) {
	cases := []struct {
		pairs [][2]string
		file  string
	}{
		{[][2]string{{"icao_number", "45d2ed"}, {"month", "2023-10"}}, "data.json"},
		{[][2]string{{"year", "2023"}}, "data.csv"},
		{nil, "status.json"},
	}
	for _, c := range cases {
		key := HivePath(c.pairs, c.file)
		gotPairs, gotFile, err := ParseHivePath(key)
		if err != nil {
			t.Fatalf("ParseHivePath(%q): %v", key, err)
		}
		if gotFile != c.file {
			t.Fatalf("file: got %q want %q", gotFile, c.file)
		}
		if !reflect.DeepEqual(gotPairs, c.pairs) && !(len(gotPairs) == 0 && len(c.pairs) == 0) {
			t.Fatalf("pairs: got %v want %v", gotPairs, c.pairs)
		}
	}
}

type testRow struct {
	A string
	B int
}

func (r testRow) Header() []string { return []string{"a", "b"} }
func (r testRow) Row() []string    { return []string{r.A, itoa(r.B)} }

func itoa(i int) string {
	return string(rune('0' + i))
}

func TestCSVRoundTrip(t *testing.T) {
	rows := []testRow{{A: "x", B: 1}, {A: "y", B: 2}}
	data, err := Encode(rows)
	if err != nil {
		t.Fatal(err)
	}

	got, err := Decode(data, func(record []string) (testRow, error) {
		return testRow{A: record[0], B: int(record[1][0] - '0')}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, rows) {
		t.Fatalf("got %+v want %+v", got, rows)
	}
}

func TestDecodeEmpty(t *testing.T) {
	got, err := Decode[testRow](nil, func(record []string) (testRow, error) {
		t.Fatal("parse should not be called for empty input")
		return testRow{}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no rows, got %d", len(got))
	}
}
