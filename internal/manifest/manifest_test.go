package manifest

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s := Status{
		2023: {IcaoMonthsToProcess: 120, IcaoMonthsProcessed: 118, URL: "https://example.test/leg/v2/all/year=2023/data.csv"},
	}
	data, err := Encode(s)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if got[2023] != s[2023] {
		t.Fatalf("got %+v want %+v", got[2023], s[2023])
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	s := Status{2022: {IcaoMonthsToProcess: 10, IcaoMonthsProcessed: 10, URL: "https://example.test/x"}}
	secret := []byte("test-secret")

	token, err := Sign(s, secret)
	if err != nil {
		t.Fatal(err)
	}

	got, err := Verify(token, secret)
	if err != nil {
		t.Fatal(err)
	}
	if got[2022] != s[2022] {
		t.Fatalf("got %+v want %+v", got[2022], s[2022])
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	s := Status{2022: {IcaoMonthsToProcess: 1, IcaoMonthsProcessed: 1, URL: "x"}}
	token, err := Sign(s, []byte("correct"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Verify(token, []byte("wrong")); err == nil {
		t.Fatal("expected verification failure with wrong secret")
	}
}
