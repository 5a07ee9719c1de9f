package pkix

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	gopkix "crypto/x509/pkix"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"
)

// DefaultMaxValidityDays is the ceiling on requested validity periods.
const DefaultMaxValidityDays = 3650

// Serial numbers are random 128-bit integers, so uniqueness within an
// authority holds without a central counter.
var serialLimit = new(big.Int).Lsh(big.NewInt(1), 128)

var dnsLabelPattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)

// CertificateRequest is the declared subject of a certificate to be issued.
type CertificateRequest struct {
	CommonName         string
	Organization       string
	OrganizationalUnit string
	Locality           string
	Country            string
	ValidityDays       int
}

// SigningContext is the authority a new certificate is signed with. Chain
// holds the authority's own ancestors, root last; it is empty when the
// authority is a root.
type SigningContext struct {
	Certificate *x509.Certificate
	Key         *rsa.PrivateKey
	Chain       []*x509.Certificate
}

// IssuedCertificate is the output of issuance. Chain holds the ancestors of
// the leaf, issuer first and root last; it is empty for self-signed
// certificates, which are their own trust anchor.
type IssuedCertificate struct {
	Certificate    *x509.Certificate
	CertificatePEM []byte
	Chain          []*x509.Certificate
	ChainPEM       []byte
}

// ValidateCommonName checks that cn is a syntactically valid DNS name,
// optionally with a single leading wildcard label.
func ValidateCommonName(cn string) error {
	name := strings.TrimPrefix(cn, "*.")
	if name == "" || len(cn) > 253 || strings.Contains(name, "*") {
		return fmt.Errorf("common name %q is not a valid DNS name%w", cn, ErrInvalidSubject)
	}
	for _, label := range strings.Split(name, ".") {
		if !dnsLabelPattern.MatchString(label) {
			return fmt.Errorf("common name %q contains an invalid DNS label %q%w", cn, label, ErrInvalidSubject)
		}
	}
	return nil
}

// ValidateValidityDays checks the requested validity period against a ceiling.
// A ceiling of zero means DefaultMaxValidityDays.
func ValidateValidityDays(days, maxDays int) error {
	if maxDays <= 0 {
		maxDays = DefaultMaxValidityDays
	}
	if days <= 0 || days > maxDays {
		return fmt.Errorf("validity of %d days is outside the allowed range of 1 to %d days%w", days, maxDays, ErrInvalidValidityPeriod)
	}
	return nil
}

// IssueCertificate issues a certificate binding the given key material.
//
// With a nil authority the certificate is self-signed, marked as a CA and
// usable both as a trust anchor and as a signing authority for later leaves.
// With an authority the issuer is the authority's subject, the certificate is
// signed by the authority's key, and the resulting chain is the authority's
// certificate followed by the authority's own chain.
func IssueCertificate(req CertificateRequest, key *KeyMaterial, authority *SigningContext) (*IssuedCertificate, error) {
	if err := ValidateCommonName(req.CommonName); err != nil {
		return nil, err
	}
	if err := ValidateValidityDays(req.ValidityDays, DefaultMaxValidityDays); err != nil {
		return nil, err
	}

	serial, err := rand.Int(rand.Reader, serialLimit)
	if err != nil {
		return nil, fmt.Errorf("generate serial number: %s%w", err.Error(), ErrCryptoFailure)
	}
	serial.Add(serial, big.NewInt(1))

	notBefore := time.Now().UTC().Truncate(time.Second)
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: gopkix.Name{
			CommonName:         req.CommonName,
			Organization:       subjectField(req.Organization),
			OrganizationalUnit: subjectField(req.OrganizationalUnit),
			Locality:           subjectField(req.Locality),
			Country:            subjectField(req.Country),
		},
		NotBefore:             notBefore,
		NotAfter:              notBefore.AddDate(0, 0, req.ValidityDays),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
	}

	parent := template
	signer := crypto.Signer(key.Key)
	var chain []*x509.Certificate
	if authority == nil {
		template.IsCA = true
		template.KeyUsage |= x509.KeyUsageCertSign | x509.KeyUsageCRLSign
	} else {
		parent = authority.Certificate
		signer = authority.Key
		chain = append([]*x509.Certificate{authority.Certificate}, authority.Chain...)
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, parent, &key.Key.PublicKey, signer)
	if err != nil {
		return nil, fmt.Errorf("create certificate: %s%w", err.Error(), ErrCryptoFailure)
	}
	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, fmt.Errorf("parse created certificate: %s%w", err.Error(), ErrCryptoFailure)
	}

	certPEM, err := MarshalCertificates(cert)
	if err != nil {
		return nil, err
	}
	var chainPEM []byte
	if len(chain) > 0 {
		chainPEM, err = MarshalCertificates(chain...)
		if err != nil {
			return nil, err
		}
	}

	return &IssuedCertificate{
		Certificate:    cert,
		CertificatePEM: certPEM,
		Chain:          chain,
		ChainPEM:       chainPEM,
	}, nil
}

func subjectField(value string) []string {
	if value == "" {
		return nil
	}
	return []string{value}
}
