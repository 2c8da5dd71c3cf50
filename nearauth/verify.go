package nearauth

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mr-tron/base58/base58"
)

const (
	// signMessage payloads are tagged so a signature can never double as a
	// transaction signature (2^31 + 413 per NEP-413).
	payloadTag uint32 = 2147484061

	nonceSize = 32

	// Tolerated forward clock drift between the signer and this service.
	maxClockSkew = 2 * time.Minute
)

var (
	ErrAssertionMalformed = errors.New("identity assertion is malformed")
	ErrRecipientMismatch  = errors.New("identity assertion recipient mismatch")
	ErrAssertionExpired   = errors.New("identity assertion is too old")
	ErrSignatureInvalid   = errors.New("identity assertion signature is invalid")
	ErrKeyNotAuthorized   = errors.New("signing key is not a full-access key on the account")
)

// Assertion is the signed proof of NEAR account ownership produced by a
// wallet's signMessage, carried on the wire as base64url(JSON).
type Assertion struct {
	AccountID   string `json:"account_id"`
	PublicKey   string `json:"public_key"`
	Signature   string `json:"signature"`
	Message     string `json:"message"`
	Nonce       string `json:"nonce"`
	Recipient   string `json:"recipient"`
	CallbackURL string `json:"callback_url,omitempty"`
}

// Verifier validates assertions against a configured recipient and a maximum
// signature age. When RPCURL is set it additionally confirms on-chain that
// the signing key is a full-access key on the asserted account.
type Verifier struct {
	ExpectedRecipient string
	MaxAge            time.Duration
	RPCURL            string
	HTTPClient        *http.Client

	// Now is overridable for tests that need a simulated clock.
	Now func() time.Time
}

// Verify checks the assertion end to end and returns the proven account id.
// The nonce's leading 8 bytes carry a big-endian unix-milli timestamp; MaxAge
// bounds how old that timestamp may be.
func (v *Verifier) Verify(ctx context.Context, token string) (string, error) {
	assertion, err := DecodeAssertion(token)
	if err != nil {
		return "", err
	}

	if assertion.Recipient != v.ExpectedRecipient {
		return "", ErrRecipientMismatch
	}

	nonce, err := base64.StdEncoding.DecodeString(assertion.Nonce)
	if err != nil || len(nonce) != nonceSize {
		return "", fmt.Errorf("%w: bad nonce", ErrAssertionMalformed)
	}

	now := time.Now()
	if v.Now != nil {
		now = v.Now()
	}
	signedAt := time.UnixMilli(int64(binary.BigEndian.Uint64(nonce[:8])))
	if signedAt.After(now.Add(maxClockSkew)) {
		return "", fmt.Errorf("%w: future-dated", ErrAssertionExpired)
	}
	if v.MaxAge > 0 && now.Sub(signedAt) > v.MaxAge {
		return "", ErrAssertionExpired
	}

	publicKey, err := DecodePublicKey(assertion.PublicKey)
	if err != nil {
		return "", err
	}

	signature, err := base64.StdEncoding.DecodeString(assertion.Signature)
	if err != nil || len(signature) != ed25519.SignatureSize {
		return "", fmt.Errorf("%w: bad signature encoding", ErrAssertionMalformed)
	}

	digest, err := payloadDigest(assertion.Message, nonce, assertion.Recipient, assertion.CallbackURL)
	if err != nil {
		return "", err
	}

	if !ed25519.Verify(publicKey, digest, signature) {
		return "", ErrSignatureInvalid
	}

	if v.RPCURL != "" {
		if err := v.checkAccessKey(ctx, assertion.AccountID, assertion.PublicKey); err != nil {
			return "", err
		}
	}

	return assertion.AccountID, nil
}

// DecodeAssertion parses an encoded assertion and checks field presence.
func DecodeAssertion(token string) (Assertion, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return Assertion{}, fmt.Errorf("%w: %v", ErrAssertionMalformed, err)
	}

	var assertion Assertion
	if err := json.Unmarshal(raw, &assertion); err != nil {
		return Assertion{}, fmt.Errorf("%w: %v", ErrAssertionMalformed, err)
	}

	if strings.TrimSpace(assertion.AccountID) == "" ||
		strings.TrimSpace(assertion.PublicKey) == "" ||
		strings.TrimSpace(assertion.Signature) == "" ||
		strings.TrimSpace(assertion.Message) == "" ||
		strings.TrimSpace(assertion.Nonce) == "" ||
		strings.TrimSpace(assertion.Recipient) == "" {
		return Assertion{}, fmt.Errorf("%w: missing fields", ErrAssertionMalformed)
	}

	return assertion, nil
}

// EncodeAssertion renders the wire form of an assertion.
func EncodeAssertion(assertion Assertion) (string, error) {
	raw, err := json.Marshal(assertion)
	if err != nil {
		return "", fmt.Errorf("failed to marshal assertion: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// SignAssertion produces an encoded assertion signed by the given key. The
// service itself never signs; this is the counterpart used by tests and by
// tooling that drives the linking flow.
func SignAssertion(privateKey ed25519.PrivateKey, accountID, message, recipient string, nonce [nonceSize]byte, callbackURL string) (string, error) {
	digest, err := payloadDigest(message, nonce[:], recipient, callbackURL)
	if err != nil {
		return "", err
	}
	signature := ed25519.Sign(privateKey, digest)

	return EncodeAssertion(Assertion{
		AccountID:   accountID,
		PublicKey:   EncodePublicKey(privateKey.Public().(ed25519.PublicKey)),
		Signature:   base64.StdEncoding.EncodeToString(signature),
		Message:     message,
		Nonce:       base64.StdEncoding.EncodeToString(nonce[:]),
		Recipient:   recipient,
		CallbackURL: callbackURL,
	})
}

// DecodePublicKey parses a NEAR "ed25519:<base58>" public key.
func DecodePublicKey(s string) (ed25519.PublicKey, error) {
	const prefix = "ed25519:"
	if !strings.HasPrefix(s, prefix) {
		return nil, fmt.Errorf("%w: unsupported key type", ErrAssertionMalformed)
	}

	raw, err := base58.Decode(strings.TrimPrefix(s, prefix))
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: bad public key", ErrAssertionMalformed)
	}

	return ed25519.PublicKey(raw), nil
}

// EncodePublicKey renders a key in NEAR's ed25519:<base58> form.
func EncodePublicKey(key ed25519.PublicKey) string {
	return "ed25519:" + base58.Encode(key)
}

// TimestampNonce builds a 32-byte signing nonce whose leading 8 bytes are the
// big-endian unix-milli timestamp, which is what lets Verify bound the
// signature's age. The rest is random.
func TimestampNonce(at time.Time) ([nonceSize]byte, error) {
	var nonce [nonceSize]byte
	binary.BigEndian.PutUint64(nonce[:8], uint64(at.UnixMilli()))
	if _, err := rand.Read(nonce[8:]); err != nil {
		return nonce, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return nonce, nil
}

// payloadDigest serializes the NEP-413 payload with Borsh (tag, message,
// nonce, recipient, optional callback url) and hashes it; signatures cover
// this digest.
func payloadDigest(message string, nonce []byte, recipient, callbackURL string) ([]byte, error) {
	if len(nonce) != nonceSize {
		return nil, fmt.Errorf("%w: nonce must be %d bytes", ErrAssertionMalformed, nonceSize)
	}

	var buf bytes.Buffer
	writeUint32(&buf, payloadTag)
	writeString(&buf, message)
	buf.Write(nonce)
	writeString(&buf, recipient)
	if callbackURL != "" {
		buf.WriteByte(1)
		writeString(&buf, callbackURL)
	} else {
		buf.WriteByte(0)
	}

	digest := sha256.Sum256(buf.Bytes())
	return digest[:], nil
}

// Borsh primitives: little-endian integers, length-prefixed UTF-8 strings.
func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeString(buf *bytes.Buffer, s string) {
	writeUint32(buf, uint32(len(s)))
	buf.WriteString(s)
}
