package pkix

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// The subsystem targets a single fixed key profile adequate for intra-farm TLS.
const rsaKeyBits = 2048

// KeyMaterial is an asymmetric key pair together with its PEM encodings.
// The private key is PKCS#8, the public key is PKIX.
type KeyMaterial struct {
	Key           *rsa.PrivateKey
	PrivateKeyPEM []byte
	PublicKeyPEM  []byte
}

// GenerateKeyMaterial produces a fresh RSA-2048 key pair from the system
// random source.
func GenerateKeyMaterial() (*KeyMaterial, error) {
	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("generate RSA key: %s%w", err.Error(), ErrCryptoFailure)
	}
	return NewKeyMaterial(key)
}

// NewKeyMaterial wraps an existing private key with its PEM encodings.
func NewKeyMaterial(key *rsa.PrivateKey) (*KeyMaterial, error) {
	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("marshal private key: %s%w", err.Error(), ErrEncodingFailure)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %s%w", err.Error(), ErrEncodingFailure)
	}

	return &KeyMaterial{
		Key:           key,
		PrivateKeyPEM: pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER}),
		PublicKeyPEM:  pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}),
	}, nil
}

// ParsePrivateKey decodes a PEM encoded RSA private key. PKCS#8 is the
// format this subsystem writes; PKCS#1 is accepted for keys produced by
// other tooling.
func ParsePrivateKey(raw []byte) (*rsa.PrivateKey, error) {
	pemBlock, _ := pem.Decode(raw)
	if pemBlock == nil {
		return nil, errors.New("invalid private key")
	}

	if key, err := x509.ParsePKCS8PrivateKey(pemBlock.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("unsupported private key type %T", key)
		}
		return rsaKey, nil
	}

	key, err := x509.ParsePKCS1PrivateKey(pemBlock.Bytes)
	if err != nil {
		return nil, err
	}
	return key, nil
}

// IsPublicKeyOf reports whether pub is the public half of priv.
func IsPublicKeyOf(priv *rsa.PrivateKey, pub crypto.PublicKey) bool {
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return false
	}
	return priv.PublicKey.Equal(rsaPub)
}
