package i18n

import (
	"testing"

	"profile_portal_backend/platform/phone"

	"golang.org/x/text/language"
)

func TestMatch(t *testing.T) {
	c := MustLoad()

	cases := []struct {
		header string
		want   language.Tag
	}{
		{"", Default},
		{"en-US,en;q=0.9", language.English},
		{"zh-TW,zh;q=0.9,en;q=0.8", Default},
		{"not a header;;", Default},
	}
	for _, tc := range cases {
		if got := c.Match(tc.header); got != tc.want {
			t.Errorf("Match(%q) = %s, want %s", tc.header, got, tc.want)
		}
	}
}

func TestPhoneMessages(t *testing.T) {
	c := MustLoad()

	got := c.Phone(language.English, phone.ValidateNational("091234567"))
	if got != "The phone number must have 10 digits; 9 entered." {
		t.Fatalf("unexpected WRONG_LENGTH message %q", got)
	}

	got = c.Phone(Default, phone.ValidateNational("0812345678"))
	if got != "台灣手機號碼必須以「09」開頭。" {
		t.Fatalf("unexpected WRONG_PREFIX message %q", got)
	}

	if c.Phone(Default, phone.ValidateNational("0912345678")) != "" {
		t.Fatal("expected empty message for a valid number")
	}
}

func TestEveryKindHasAMessageInEveryLanguage(t *testing.T) {
	c := MustLoad()

	for _, tag := range supported {
		for _, kind := range []phone.Kind{phone.Empty, phone.WrongLength, phone.WrongPrefix, phone.NonDigit} {
			key := "phone." + kind.String()
			if _, ok := c.messages[tag][key]; !ok {
				t.Errorf("catalog %s is missing %s", tag, key)
			}
		}
	}
}

func TestTFallsBackToKey(t *testing.T) {
	c := MustLoad()
	if got := c.T(language.English, "missing.key", nil); got != "missing.key" {
		t.Fatalf("expected key fallback, got %q", got)
	}
}
