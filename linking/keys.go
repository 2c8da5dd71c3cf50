package linking

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

const linkKeyBits = 2048

// GenerateLinkKeypair creates the ephemeral RSA keypair for a single linking
// attempt. The public half is returned as PKIX PEM, the format the forum's
// user-api-keys endpoint expects; the private half lives only in memory for
// the lifetime of the attempt's nonce record.
func GenerateLinkKeypair() (*rsa.PrivateKey, string, error) {
	key, err := rsa.GenerateKey(rand.Reader, linkKeyBits)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate keypair: %w", err)
	}

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal public key: %w", err)
	}

	publicPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: der,
	})

	return key, string(publicPEM), nil
}
