package crypto

import (
	"strings"
	"testing"
)

func TestSealOpenRoundTrip(t *testing.T) {
	payload := []byte(`{"token":"jwt-abc","user":{"id":21}}`)

	sealed, err := Seal(payload, "correct horse")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(sealed), "jwt-abc") {
		t.Error("plaintext leaked into sealed blob")
	}

	opened, err := Open(sealed, "correct horse")
	if err != nil {
		t.Fatal(err)
	}
	if string(opened) != string(payload) {
		t.Errorf("round trip mismatch: %q", opened)
	}
}

func TestOpenRejectsWrongPassword(t *testing.T) {
	sealed, err := Seal([]byte("secret"), "right")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Open(sealed, "wrong"); err == nil {
		t.Error("Open succeeded with wrong password")
	}
}

func TestOpenRejectsTamperedBlob(t *testing.T) {
	sealed, err := Seal([]byte("secret"), "pw")
	if err != nil {
		t.Fatal(err)
	}
	// Flip a ciphertext character.
	i := strings.Index(string(sealed), `"ciphertext": "`) + len(`"ciphertext": "`)
	b := []byte(string(sealed))
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	if _, err := Open(b, "pw"); err == nil {
		t.Error("Open accepted tampered ciphertext")
	}
}

func TestSealValidatesInput(t *testing.T) {
	if _, err := Seal([]byte("x"), ""); err == nil {
		t.Error("Seal accepted empty password")
	}
	if _, err := Seal(nil, "pw"); err == nil {
		t.Error("Seal accepted empty payload")
	}
}
