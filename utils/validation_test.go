package utils

import (
	"strings"
	"testing"
)

func TestValidateAccountID(t *testing.T) {
	valid := []string{
		"alice.near",
		"bob.testnet",
		"sub.alice.near",
		"a1-b2_c3.near",
		"aa",
	}
	for _, id := range valid {
		if result := ValidateAccountID(id); result.HasErrors() {
			t.Errorf("ValidateAccountID(%q) should pass: %s", id, result.Error())
		}
	}

	invalid := []string{
		"",
		"a",
		"Alice.near",
		"alice..near",
		"alice.near.",
		".alice.near",
		"alice near",
		"alice--bob.near",
		strings.Repeat("a", 65),
	}
	for _, id := range invalid {
		if result := ValidateAccountID(id); !result.HasErrors() {
			t.Errorf("ValidateAccountID(%q) should fail", id)
		}
	}
}

func TestValidatePublicKey(t *testing.T) {
	if result := ValidatePublicKey("ed25519:DcA2MzgpJbrUATQLLceocVckhhAqrkingax4oJ9kZ847"); result.HasErrors() {
		t.Errorf("should pass: %s", result.Error())
	}

	if result := ValidatePublicKey(""); !result.HasErrors() {
		t.Error("empty key should fail")
	}
	if result := ValidatePublicKey("secp256k1:abcdef"); !result.HasErrors() {
		t.Error("non-ed25519 key should fail")
	}
}

func TestValidateStringLength(t *testing.T) {
	if result := ValidateStringLength("hello world and more", "title", 15, 0); result.HasErrors() {
		t.Errorf("should pass: %s", result.Error())
	}
	if result := ValidateStringLength("short", "title", 15, 0); !result.HasErrors() {
		t.Error("short title should fail")
	}
	// Surrounding whitespace does not count toward the minimum.
	if result := ValidateStringLength("     hi     ", "title", 15, 0); !result.HasErrors() {
		t.Error("padded short title should fail")
	}
	if result := ValidateStringLength(strings.Repeat("a", 300), "title", 15, 255); !result.HasErrors() {
		t.Error("overlong title should fail")
	}
}

func TestValidationResultAccumulates(t *testing.T) {
	result := NewValidationResult()
	if result.HasErrors() {
		t.Fatal("fresh result should be valid")
	}

	result.AddError("title", "title is too short")
	result.AddError("body", "body is too short")

	if !result.HasErrors() {
		t.Fatal("result with errors should report them")
	}
	msg := result.Error()
	if !strings.Contains(msg, "title is too short") || !strings.Contains(msg, "body is too short") {
		t.Fatalf("error message should include both messages, got: %s", msg)
	}
}
