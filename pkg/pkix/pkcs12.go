package pkix

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"software.sslmate.com/src/go-pkcs12"
)

// Bundle passphrases are generated, never user supplied. 24 characters over
// this alphabet comfortably clears the documented 20-printable-character
// minimum.
const passphraseLength = 24
const passphraseAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!#%&*+-=?@_"

// GeneratePassphrase produces a random printable passphrase of the fixed
// bundle length.
func GeneratePassphrase() (string, error) {
	buf := make([]byte, passphraseLength)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(passphraseAlphabet))))
		if err != nil {
			return "", fmt.Errorf("generate passphrase: %s%w", err.Error(), ErrCryptoFailure)
		}
		buf[i] = passphraseAlphabet[idx.Int64()]
	}
	return string(buf), nil
}

// EncodePKCS12 bundles the certificate, its chain and the private key into a
// PKCS#12 container protected by a freshly generated passphrase.
func EncodePKCS12(cert *IssuedCertificate, key *KeyMaterial) ([]byte, string, error) {
	if !IsPublicKeyOf(key.Key, cert.Certificate.PublicKey) {
		return nil, "", fmt.Errorf("certificate public key does not match the private key%w", ErrEncodingFailure)
	}

	passphrase, err := GeneratePassphrase()
	if err != nil {
		return nil, "", err
	}

	bundle, err := pkcs12.Encode(rand.Reader, key.Key, cert.Certificate, cert.Chain, passphrase)
	if err != nil {
		return nil, "", fmt.Errorf("encode PKCS#12 bundle: %s%w", err.Error(), ErrEncodingFailure)
	}
	return bundle, passphrase, nil
}
