package anonymize

import "testing"

func TestAnonymize_ContactLine(t *testing.T) {
	in := "contact ali@example.com or +90 532 123 45 67, PNR: AB12C3"
	want := "contact EMAIL_MASKED or PHONE_MASKED, PNR: PNR_MASKED"
	if got := Anonymize(in); got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestAnonymize_Table(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"tel:05321234567 ext", "tel:PHONE_MASKED ext"},
		{"call 0212-555-12-34x", "call PHONE_MASKED-34x"},
		{"order 1234567 done", "order PNR_MASKED done"},
		{"x1234567890", "x1234567890"},
		{"PNR ŞAB12C3 ve AB12C3Ş", "PNR ŞAB12C3 ve AB12C3Ş"},
		{"codes ABCDE ABCDEFGH ABCD", "codes PNR_MASKED ABCDEFGH ABCD"},
		{"AB12C3_x", "AB12C3_x"},
		{"çAB12C3", "çAB12C3"},
		{"12345 67890", "PHONE_MASKED"},
		{"+90 532 123 45 67 +44 20 7946 0958", "PHONE_MASKED PHONE_MASKED"},
		{"Uçuş: TK1234 ve PC2021 lütfen", "Uçuş: PNR_MASKED ve PNR_MASKED lütfen"},
		{"room 305, 3 nights", "room 305, 3 nights"},
	}
	for _, c := range cases {
		if got := Anonymize(c.in); got != c.want {
			t.Errorf("Anonymize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestAnonymize_MasksAreStable(t *testing.T) {
	in := "mail a.b@c.com, phone 0532 123 45 67, code XY9Z8W"
	once := Anonymize(in)
	if twice := Anonymize(once); twice != once {
		t.Fatalf("masking is not stable: %q then %q", once, twice)
	}
}

func TestMaskEmails_Only(t *testing.T) {
	if got := MaskEmails("ali@example.com AB12C3"); got != "EMAIL_MASKED AB12C3" {
		t.Fatalf("got %q", got)
	}
}
