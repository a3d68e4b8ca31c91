package storefront

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestCredentials_Verify(t *testing.T) {
	c, err := NewCredentials("admin", "pw", "")
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if !c.Verify("admin", "pw") {
		t.Fatalf("valid login rejected")
	}
	if !c.Verify("", "pw") {
		t.Fatalf("blank username should mean the configured one")
	}
	if c.Verify("root", "pw") || c.Verify("admin", "PW") || c.Verify("admin", "") {
		t.Fatalf("invalid login accepted")
	}
}

func TestCredentials_Hash(t *testing.T) {
	h, err := HashPassword("from-hash", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	c, err := NewCredentials("admin", "ignored", h)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !c.Verify("admin", "from-hash") || c.Verify("admin", "ignored") {
		t.Fatalf("hash should take precedence over password")
	}

	if _, err := NewCredentials("admin", "", "not-a-hash"); err == nil {
		t.Fatalf("expected error for malformed hash")
	}
	if _, err := NewCredentials("admin", "", ""); err == nil {
		t.Fatalf("expected error for empty password")
	}
}

func TestParsePrice(t *testing.T) {
	cases := map[string]float64{
		"12.50": 12.5,
		" 3 ":   3,
		"abc":   0,
		"":      0,
		"NaN":   0,
		"+Inf":  0,
		"-4.5":  -4.5,
	}
	for in, want := range cases {
		if got := parsePrice(in); got != want {
			t.Fatalf("parsePrice(%q)=%v want=%v", in, got, want)
		}
	}
}

func TestParseYear(t *testing.T) {
	if y := parseYear("2019"); y.String() != "2019" {
		t.Fatalf("year=%q", y.String())
	}
	if y := parseYear("twenty"); !y.IsZero() {
		t.Fatalf("year=%q want empty", y.String())
	}
}
