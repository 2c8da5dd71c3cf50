package linking

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
)

func TestGenerateLinkKeypair(t *testing.T) {
	key, publicPEM, err := GenerateLinkKeypair()
	if err != nil {
		t.Fatalf("GenerateLinkKeypair failed: %v", err)
	}

	if key.N.BitLen() != linkKeyBits {
		t.Errorf("key size = %d bits, want %d", key.N.BitLen(), linkKeyBits)
	}

	block, _ := pem.Decode([]byte(publicPEM))
	if block == nil || block.Type != "PUBLIC KEY" {
		t.Fatalf("public key is not PKIX PEM: %q", publicPEM)
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		t.Fatalf("failed to parse exported public key: %v", err)
	}
	rsaPub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		t.Fatalf("exported key is %T, want *rsa.PublicKey", parsed)
	}
	if rsaPub.N.Cmp(key.N) != 0 {
		t.Error("exported public key does not match the generated private key")
	}
}

func TestGenerateLinkKeypairNoReuse(t *testing.T) {
	a, _, err := GenerateLinkKeypair()
	if err != nil {
		t.Fatalf("GenerateLinkKeypair failed: %v", err)
	}
	b, _, err := GenerateLinkKeypair()
	if err != nil {
		t.Fatalf("GenerateLinkKeypair failed: %v", err)
	}
	if a.N.Cmp(b.N) == 0 {
		t.Error("two calls produced the same keypair")
	}
}
