package nearauth

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func generateKey(t *testing.T) ed25519.PrivateKey {
	t.Helper()
	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("ed25519.GenerateKey failed: %v", err)
	}
	return privateKey
}

func signedToken(t *testing.T, key ed25519.PrivateKey, accountID, recipient string, at time.Time) string {
	t.Helper()
	nonce, err := TimestampNonce(at)
	if err != nil {
		t.Fatalf("TimestampNonce failed: %v", err)
	}
	token, err := SignAssertion(key, accountID, "Link my forum account", recipient, nonce, "")
	if err != nil {
		t.Fatalf("SignAssertion failed: %v", err)
	}
	return token
}

func TestVerifyRoundTrip(t *testing.T) {
	key := generateKey(t)
	v := &Verifier{ExpectedRecipient: "nearlink.example.com", MaxAge: 10 * time.Minute}

	token := signedToken(t, key, "alice.near", "nearlink.example.com", time.Now())

	accountID, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if accountID != "alice.near" {
		t.Errorf("accountID = %q, want alice.near", accountID)
	}
}

func TestVerifyWithCallbackURL(t *testing.T) {
	key := generateKey(t)
	v := &Verifier{ExpectedRecipient: "nearlink.example.com", MaxAge: 10 * time.Minute}

	nonce, err := TimestampNonce(time.Now())
	if err != nil {
		t.Fatalf("TimestampNonce failed: %v", err)
	}
	token, err := SignAssertion(key, "alice.near", "Link my forum account", "nearlink.example.com", nonce, "https://app.example.com/callback")
	if err != nil {
		t.Fatalf("SignAssertion failed: %v", err)
	}

	if _, err := v.Verify(context.Background(), token); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
}

func TestVerifyRecipientMismatch(t *testing.T) {
	key := generateKey(t)
	v := &Verifier{ExpectedRecipient: "nearlink.example.com", MaxAge: 10 * time.Minute}

	token := signedToken(t, key, "alice.near", "evil.example.com", time.Now())

	if _, err := v.Verify(context.Background(), token); !errors.Is(err, ErrRecipientMismatch) {
		t.Errorf("err = %v, want ErrRecipientMismatch", err)
	}
}

func TestVerifyStaleAssertion(t *testing.T) {
	key := generateKey(t)
	v := &Verifier{ExpectedRecipient: "nearlink.example.com", MaxAge: 10 * time.Minute}

	token := signedToken(t, key, "alice.near", "nearlink.example.com", time.Now().Add(-11*time.Minute))

	if _, err := v.Verify(context.Background(), token); !errors.Is(err, ErrAssertionExpired) {
		t.Errorf("err = %v, want ErrAssertionExpired", err)
	}
}

func TestVerifyFutureDatedAssertion(t *testing.T) {
	key := generateKey(t)
	v := &Verifier{ExpectedRecipient: "nearlink.example.com", MaxAge: 10 * time.Minute}

	token := signedToken(t, key, "alice.near", "nearlink.example.com", time.Now().Add(10*time.Minute))

	if _, err := v.Verify(context.Background(), token); !errors.Is(err, ErrAssertionExpired) {
		t.Errorf("err = %v, want ErrAssertionExpired", err)
	}
}

func TestVerifySimulatedClock(t *testing.T) {
	key := generateKey(t)
	signedAt := time.Now()
	v := &Verifier{
		ExpectedRecipient: "nearlink.example.com",
		MaxAge:            10 * time.Minute,
		Now:               func() time.Time { return signedAt.Add(9 * time.Minute) },
	}

	token := signedToken(t, key, "alice.near", "nearlink.example.com", signedAt)
	if _, err := v.Verify(context.Background(), token); err != nil {
		t.Fatalf("Verify within MaxAge failed: %v", err)
	}

	v.Now = func() time.Time { return signedAt.Add(11 * time.Minute) }
	if _, err := v.Verify(context.Background(), token); !errors.Is(err, ErrAssertionExpired) {
		t.Errorf("err = %v, want ErrAssertionExpired", err)
	}
}

func TestVerifyTamperedSignature(t *testing.T) {
	key := generateKey(t)
	v := &Verifier{ExpectedRecipient: "nearlink.example.com", MaxAge: 10 * time.Minute}

	token := signedToken(t, key, "alice.near", "nearlink.example.com", time.Now())

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		t.Fatalf("failed to decode token: %v", err)
	}
	var assertion Assertion
	if err := json.Unmarshal(raw, &assertion); err != nil {
		t.Fatalf("failed to unmarshal assertion: %v", err)
	}

	// Flip a bit in the signature.
	sig, _ := base64.StdEncoding.DecodeString(assertion.Signature)
	sig[0] ^= 0x01
	assertion.Signature = base64.StdEncoding.EncodeToString(sig)

	tampered, err := EncodeAssertion(assertion)
	if err != nil {
		t.Fatalf("EncodeAssertion failed: %v", err)
	}

	if _, err := v.Verify(context.Background(), tampered); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("err = %v, want ErrSignatureInvalid", err)
	}
}

func TestVerifyTamperedMessage(t *testing.T) {
	key := generateKey(t)
	v := &Verifier{ExpectedRecipient: "nearlink.example.com", MaxAge: 10 * time.Minute}

	token := signedToken(t, key, "alice.near", "nearlink.example.com", time.Now())

	raw, _ := base64.RawURLEncoding.DecodeString(token)
	var assertion Assertion
	json.Unmarshal(raw, &assertion)
	assertion.Message = "A different message"

	tampered, err := EncodeAssertion(assertion)
	if err != nil {
		t.Fatalf("EncodeAssertion failed: %v", err)
	}

	if _, err := v.Verify(context.Background(), tampered); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("err = %v, want ErrSignatureInvalid", err)
	}
}

func TestVerifyMalformedTokens(t *testing.T) {
	v := &Verifier{ExpectedRecipient: "nearlink.example.com", MaxAge: 10 * time.Minute}

	cases := []string{
		"",
		"!!!",
		base64.RawURLEncoding.EncodeToString([]byte("not json")),
		base64.RawURLEncoding.EncodeToString([]byte(`{"account_id":"alice.near"}`)),
	}
	for _, token := range cases {
		if _, err := v.Verify(context.Background(), token); !errors.Is(err, ErrAssertionMalformed) {
			t.Errorf("Verify(%q) err = %v, want ErrAssertionMalformed", token, err)
		}
	}
}

func TestPublicKeyEncoding(t *testing.T) {
	key := generateKey(t)
	pub := key.Public().(ed25519.PublicKey)

	encoded := EncodePublicKey(pub)
	decoded, err := DecodePublicKey(encoded)
	if err != nil {
		t.Fatalf("DecodePublicKey failed: %v", err)
	}
	if !pub.Equal(decoded) {
		t.Error("public key round trip lost the key")
	}

	if _, err := DecodePublicKey("secp256k1:abc"); !errors.Is(err, ErrAssertionMalformed) {
		t.Errorf("unsupported key type err = %v", err)
	}
	if _, err := DecodePublicKey("ed25519:0OIl"); !errors.Is(err, ErrAssertionMalformed) {
		t.Errorf("bad base58 err = %v", err)
	}
}

func TestTimestampNonce(t *testing.T) {
	at := time.Now()
	a, err := TimestampNonce(at)
	if err != nil {
		t.Fatalf("TimestampNonce failed: %v", err)
	}
	b, err := TimestampNonce(at)
	if err != nil {
		t.Fatalf("TimestampNonce failed: %v", err)
	}
	if a == b {
		t.Error("nonces for the same instant should differ in their random tail")
	}
}
