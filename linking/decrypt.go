package linking

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDecryptionFailed = errors.New("failed to decrypt credential payload")
	ErrCredentialFormat = errors.New("credential payload has an unexpected format")
)

// DecryptPayload decrypts the provider-issued credential blob with the
// attempt's private key. The forum renders the base64 with line breaks, so
// whitespace is stripped before decoding.
func DecryptPayload(key *rsa.PrivateKey, payload string) ([]byte, error) {
	compact := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, payload)

	if compact == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrDecryptionFailed)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed base64: %v", ErrDecryptionFailed, err)
	}

	plaintext, err := rsa.DecryptPKCS1v15(nil, key, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("%w: empty plaintext", ErrDecryptionFailed)
	}

	return plaintext, nil
}

// credentialPayload is the JSON document the forum encrypts into the blob.
type credentialPayload struct {
	Key   string `json:"key"`
	Nonce string `json:"nonce"`
	Push  bool   `json:"push"`
	API   int    `json:"api"`
}

// ParseCredential validates the decrypted payload and extracts the user API
// key. The payload is attacker-influenced ciphertext, so the schema is
// checked strictly: the key must be present and, when the payload echoes a
// nonce, it must match the nonce of this attempt.
func ParseCredential(plaintext []byte, expectedNonce string) (string, error) {
	var payload credentialPayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCredentialFormat, err)
	}

	if strings.TrimSpace(payload.Key) == "" {
		return "", fmt.Errorf("%w: missing key field", ErrCredentialFormat)
	}
	if payload.Nonce != "" && payload.Nonce != expectedNonce {
		return "", fmt.Errorf("%w: nonce mismatch", ErrCredentialFormat)
	}

	return payload.Key, nil
}
