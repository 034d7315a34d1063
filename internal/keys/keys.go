// Package keys owns the server's RSA key pair used for the login key
// exchange. The public half is sent to clients as DER; the private half
// decrypts the shared secret and verify token they return.
package keys

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

// DefaultBits matches what vanilla clients expect for the login key.
const DefaultBits = 1024

var (
	ErrInvalidKey  = errors.New("keys: invalid key material")
	ErrKeyMismatch = errors.New("keys: public key does not match private key")
)

// Keyring is immutable after construction and safe for concurrent use.
type Keyring struct {
	priv      *rsa.PrivateKey
	publicDER []byte
}

func Generate(bits int) (*Keyring, error) {
	if bits <= 0 {
		bits = DefaultBits
	}
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, err
	}
	return FromPrivateKey(priv)
}

func FromPrivateKey(priv *rsa.PrivateKey) (*Keyring, error) {
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return &Keyring{priv: priv, publicDER: der}, nil
}

// Load reads a PEM private key (PKCS#1 or PKCS#8) and, when publicFile is set,
// a public key in DER or PEM that must match it.
func Load(publicFile, privateFile string) (*Keyring, error) {
	raw, err := os.ReadFile(privateFile)
	if err != nil {
		return nil, fmt.Errorf("private key load failed (%s): %w", privateFile, err)
	}
	priv, err := parsePrivate(raw)
	if err != nil {
		return nil, fmt.Errorf("private key parse failed (%s): %w", privateFile, err)
	}
	kr, err := FromPrivateKey(priv)
	if err != nil {
		return nil, err
	}
	if publicFile == "" {
		return kr, nil
	}
	pubRaw, err := os.ReadFile(publicFile)
	if err != nil {
		return nil, fmt.Errorf("public key load failed (%s): %w", publicFile, err)
	}
	if block, _ := pem.Decode(pubRaw); block != nil {
		pubRaw = block.Bytes
	}
	if !bytes.Equal(pubRaw, kr.publicDER) {
		return nil, fmt.Errorf("%w (%s)", ErrKeyMismatch, publicFile)
	}
	return kr, nil
}

// LoadOrGenerate loads from disk when a private key file is configured and
// otherwise generates an ephemeral key pair.
func LoadOrGenerate(publicFile, privateFile string) (*Keyring, error) {
	if privateFile != "" {
		kr, err := Load(publicFile, privateFile)
		if err != nil {
			return nil, err
		}
		log.Info().Str("private_key_file", privateFile).Msg("keys loaded")
		return kr, nil
	}
	kr, err := Generate(DefaultBits)
	if err != nil {
		return nil, err
	}
	log.Info().Int("bits", DefaultBits).Msg("keys generated (ephemeral)")
	return kr, nil
}

func parsePrivate(raw []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block", ErrInvalidKey)
	}
	if k, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return k, nil
	}
	k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	rk, ok := k.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA key", ErrInvalidKey)
	}
	return rk, nil
}

// PublicKey returns the DER (PKIX) encoding sent in EncryptionRequest.
func (k *Keyring) PublicKey() []byte {
	return k.publicDER
}

// Decrypt reverses a client's PKCS#1 v1.5 encryption.
func (k *Keyring) Decrypt(ciphertext []byte) ([]byte, error) {
	return rsa.DecryptPKCS1v15(rand.Reader, k.priv, ciphertext)
}

// Save writes the public key as DER and the private key as PKCS#1 PEM.
func (k *Keyring) Save(publicFile, privateFile string) error {
	if err := os.WriteFile(publicFile, k.publicDER, 0o644); err != nil {
		return err
	}
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(k.priv)}
	return os.WriteFile(privateFile, pem.EncodeToMemory(block), 0o600)
}

// Encrypt is the client half of the exchange: PKCS#1 v1.5 under a DER
// public key as received in EncryptionRequest.
func Encrypt(publicDER, plaintext []byte) ([]byte, error) {
	pub, err := x509.ParsePKIXPublicKey(publicDER)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	rk, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA key", ErrInvalidKey)
	}
	return rsa.EncryptPKCS1v15(rand.Reader, rk, plaintext)
}
