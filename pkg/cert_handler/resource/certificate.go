package resource

import (
	"context"
	"crypto/x509"
	"fmt"
	"time"

	"github.com/renderwell/farmpki/pkg/cert_handler/model"
	"github.com/renderwell/farmpki/pkg/cert_handler/storage"
	"github.com/renderwell/farmpki/pkg/pkix"
	"github.com/sirupsen/logrus"
)

// CertificateResource is the lifecycle state machine of the certificate
// custom resource. It exclusively owns the key material and issued
// certificate of its logical resource.
type CertificateResource struct {
	secrets         storage.SecretStore
	maxValidityDays int
}

type CertificateOption func(*CertificateResource)

// CertificateWithMaxValidityDays lowers the ceiling on requested validity
// periods. Zero keeps the default.
func CertificateWithMaxValidityDays(days int) CertificateOption {
	return func(r *CertificateResource) {
		r.maxValidityDays = days
	}
}

func NewCertificateResource(secrets storage.SecretStore, options ...CertificateOption) *CertificateResource {
	r := &CertificateResource{
		secrets:         secrets,
		maxValidityDays: pkix.DefaultMaxValidityDays,
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// Create generates fresh key material, issues the certificate (self-signed
// when no signing authority is referenced) and persists private key,
// certificate and chain as separate secrets. The physical identity is
// derived only after every write succeeded, so a half-finished attempt never
// reports success.
func (r *CertificateResource) Create(ctx context.Context, logicalID string, props model.CertificateProperties) (Result, error) {
	if err := ValidateCertificateProperties(props, r.maxValidityDays); err != nil {
		return Result{}, err
	}

	key, err := pkix.GenerateKeyMaterial()
	if err != nil {
		return Result{}, err
	}

	var authority *pkix.SigningContext
	if props.SigningAuthority != nil {
		authority, err = r.loadSigningAuthority(ctx, *props.SigningAuthority)
		if err != nil {
			return Result{}, err
		}
	}

	issued, err := pkix.IssueCertificate(pkix.CertificateRequest{
		CommonName:         props.CommonName,
		Organization:       props.Organization,
		OrganizationalUnit: props.OrganizationalUnit,
		Locality:           props.Locality,
		Country:            props.Country,
		ValidityDays:       props.ValidityDays,
	}, key, authority)
	if err != nil {
		return Result{}, err
	}

	physicalID := MakePhysicalID(logicalID, issued.Certificate.SerialNumber)

	if _, err := putSecret(ctx, r.secrets, logicalID, KeySecretName(physicalID), key.PrivateKeyPEM, "private-key"); err != nil {
		return Result{}, err
	}
	if _, err := putSecret(ctx, r.secrets, logicalID, CertSecretName(physicalID), issued.CertificatePEM, "certificate"); err != nil {
		return Result{}, err
	}

	hasChain := len(issued.ChainPEM) > 0
	if hasChain {
		if _, err := putSecret(ctx, r.secrets, logicalID, ChainSecretName(physicalID), issued.ChainPEM, "certificate-chain"); err != nil {
			return Result{}, err
		}
	}

	logrus.Debugf("certificate resource %s created as %s", logicalID, physicalID)
	return Result{
		PhysicalResourceID: physicalID,
		Data:               certificateData(physicalID, issued.Certificate, hasChain),
	}, nil
}

// certificateData builds the public attributes of a certificate instance.
// Secret references carry no version token: the secrets of a physical
// identity are written exactly once, so the latest version is the only one,
// and Create and a later no-op Update report byte-identical attributes.
func certificateData(physicalID string, cert *x509.Certificate, hasChain bool) map[string]string {
	data := map[string]string{
		"certSecretRef": CertSecretName(physicalID),
		"keySecretRef":  KeySecretName(physicalID),
		"serialNumber":  cert.SerialNumber.String(),
		"subject":       cert.Subject.String(),
		"issuer":        cert.Issuer.String(),
		"notBefore":     cert.NotBefore.UTC().Format(time.RFC3339),
		"notAfter":      cert.NotAfter.UTC().Format(time.RFC3339),
	}
	if hasChain {
		data["chainSecretRef"] = ChainSecretName(physicalID)
	}
	return data
}

// Update compares the declared properties against the previously recorded
// ones. Unchanged identity means a no-op: the same physical identity, the
// same secret references and the same certificate attributes come back, with
// zero store writes. The attributes are rebuilt from one read of the stored
// certificate, which is public material. Any change to an identity-affecting
// field replaces the resource through the Create path; the old secrets stay
// untouched until the orchestrator issues a Delete against the old physical
// identity.
func (r *CertificateResource) Update(ctx context.Context, logicalID, physicalID string, props model.CertificateProperties, oldProps *model.CertificateProperties) (Result, error) {
	if err := ValidateCertificateProperties(props, r.maxValidityDays); err != nil {
		return Result{}, err
	}

	// No recorded prior state means an earlier attempt failed partway.
	// Treat the resource as absent and issue fresh material.
	if physicalID == "" || oldProps == nil {
		return r.Create(ctx, logicalID, props)
	}

	if props.IdentityEquals(*oldProps) {
		certPEM, err := r.secrets.GetSecret(ctx, model.SecretRef{Name: CertSecretName(physicalID)})
		if err != nil {
			return Result{}, fmt.Errorf("load current certificate: %w", err)
		}
		certs, err := pkix.ParseCertificates(certPEM)
		if err != nil {
			return Result{}, fmt.Errorf("parse current certificate: %w", err)
		}
		logrus.Debugf("certificate resource %s unchanged, keeping %s", logicalID, physicalID)
		return Result{
			PhysicalResourceID: physicalID,
			Data:               certificateData(physicalID, certs[0], props.SigningAuthority != nil),
		}, nil
	}

	return r.Create(ctx, logicalID, props)
}

// Delete removes every secret of the physical identity being retired.
func (r *CertificateResource) Delete(ctx context.Context, physicalID string) error {
	return deleteSecrets(ctx, r.secrets,
		KeySecretName(physicalID),
		CertSecretName(physicalID),
		ChainSecretName(physicalID),
	)
}

func (r *CertificateResource) loadSigningAuthority(ctx context.Context, authority model.SigningAuthority) (*pkix.SigningContext, error) {
	certPEM, err := r.secrets.GetSecret(ctx, model.SecretRef{Name: authority.CertSecretName})
	if err != nil {
		return nil, fmt.Errorf("load signing authority certificate: %w", err)
	}
	certs, err := pkix.ParseCertificates(certPEM)
	if err != nil {
		return nil, fmt.Errorf("signing authority certificate: %s%w", err.Error(), model.ErrInvalidParameter)
	}

	keyPEM, err := r.secrets.GetSecret(ctx, model.SecretRef{Name: authority.KeySecretName})
	if err != nil {
		return nil, fmt.Errorf("load signing authority key: %w", err)
	}
	key, err := pkix.ParsePrivateKey(keyPEM)
	if err != nil {
		return nil, fmt.Errorf("signing authority key: %s%w", err.Error(), model.ErrInvalidParameter)
	}
	if !pkix.IsPublicKeyOf(key, certs[0].PublicKey) {
		return nil, fmt.Errorf("signing authority key does not match its certificate%w", model.ErrInvalidParameter)
	}

	chain := certs[1:]
	if authority.ChainSecretName != "" {
		chainPEM, err := r.secrets.GetSecret(ctx, model.SecretRef{Name: authority.ChainSecretName})
		if err != nil {
			return nil, fmt.Errorf("load signing authority chain: %w", err)
		}
		ancestors, err := pkix.ParseCertificates(chainPEM)
		if err != nil {
			return nil, fmt.Errorf("signing authority chain: %s%w", err.Error(), model.ErrInvalidParameter)
		}
		chain = append(chain, ancestors...)
	}

	return &pkix.SigningContext{
		Certificate: certs[0],
		Key:         key,
		Chain:       chain,
	}, nil
}
