package pkix

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"time"
)

// ParseCertificates decodes a PEM bundle into certificates in order of
// appearance. The first certificate is the leaf; any following certificates
// are its ancestors.
func ParseCertificates(raw []byte) ([]*x509.Certificate, error) {
	certs := make([]*x509.Certificate, 0, 4)
	for {
		pemBlock, remains := pem.Decode(raw)
		if pemBlock == nil {
			return nil, errors.New("invalid certificate")
		}

		cert, err := x509.ParseCertificate(pemBlock.Bytes)
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)

		if len(bytes.TrimSpace(remains)) == 0 {
			break
		}
		raw = remains
	}

	return certs, nil
}

// MarshalCertificates encodes certificates as a PEM bundle in the given order.
func MarshalCertificates(certs ...*x509.Certificate) ([]byte, error) {
	if len(certs) == 0 {
		return nil, errors.New("no certificate provided")
	}

	buf := bytes.Buffer{}
	for _, cert := range certs {
		block := pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}
		if err := pem.Encode(&buf, &block); err != nil {
			return nil, fmt.Errorf("encode certificate: %s%w", err.Error(), ErrEncodingFailure)
		}
	}
	return buf.Bytes(), nil
}

// Verify checks the leaf certificate against its chain and the given trust
// anchors at the given time. A self-signed certificate verifies against
// itself when passed as its own root.
func Verify(leaf *x509.Certificate, chain []*x509.Certificate, roots []*x509.Certificate, at time.Time) error {
	rootPool := x509.NewCertPool()
	for _, root := range roots {
		rootPool.AddCert(root)
	}

	intermediatePool := x509.NewCertPool()
	for _, cert := range chain {
		intermediatePool.AddCert(cert)
	}

	_, err := leaf.Verify(x509.VerifyOptions{
		Roots:         rootPool,
		Intermediates: intermediatePool,
		CurrentTime:   at,
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	})
	return err
}

// ValidateChain checks the structural chain invariant: each link is signed by
// the next one and the last link is self-signed.
func ValidateChain(leaf *x509.Certificate, chain []*x509.Certificate) error {
	current := leaf
	for i, next := range chain {
		if err := current.CheckSignatureFrom(next); err != nil {
			return fmt.Errorf("chain link %d does not sign its predecessor: %w", i, err)
		}
		current = next
	}
	if err := current.CheckSignature(current.SignatureAlgorithm, current.RawTBSCertificate, current.Signature); err != nil {
		return fmt.Errorf("chain does not end in a self-signed certificate: %w", err)
	}
	return nil
}
