package resource

import (
	"context"
	"fmt"

	"github.com/renderwell/farmpki/pkg/cert_handler/model"
	"github.com/renderwell/farmpki/pkg/cert_handler/storage"
	"github.com/renderwell/farmpki/pkg/pkix"
	"github.com/sirupsen/logrus"
)

// Pkcs12Resource converts an existing PEM certificate and key into a
// password-protected PKCS#12 bundle. It reads but never mutates the upstream
// certificate secrets. A bundle is immutable once created: any Update is a
// full replacement with a fresh bundle and a fresh passphrase, because
// rotating a passphrase without coordinated redistribution to its consumers
// is unsafe.
type Pkcs12Resource struct {
	secrets storage.SecretStore
}

func NewPkcs12Resource(secrets storage.SecretStore) *Pkcs12Resource {
	return &Pkcs12Resource{secrets: secrets}
}

// Create reads the upstream certificate and key, converts them and persists
// bundle and passphrase as two new secrets. The physical identity is tied to
// the upstream leaf's serial number, so replacing the upstream certificate
// forces this resource to replace as well.
func (r *Pkcs12Resource) Create(ctx context.Context, logicalID string, props model.Pkcs12Properties) (Result, error) {
	if err := ValidatePkcs12Properties(props); err != nil {
		return Result{}, err
	}

	certPEM, err := r.secrets.GetSecret(ctx, model.SecretRef{Name: props.CertSecretName})
	if err != nil {
		return Result{}, fmt.Errorf("load source certificate: %w", err)
	}
	certs, err := pkix.ParseCertificates(certPEM)
	if err != nil {
		return Result{}, fmt.Errorf("source certificate: %s%w", err.Error(), model.ErrInvalidParameter)
	}

	keyPEM, err := r.secrets.GetSecret(ctx, model.SecretRef{Name: props.KeySecretName})
	if err != nil {
		return Result{}, fmt.Errorf("load source key: %w", err)
	}
	key, err := pkix.ParsePrivateKey(keyPEM)
	if err != nil {
		return Result{}, fmt.Errorf("source key: %s%w", err.Error(), model.ErrInvalidParameter)
	}
	keyMaterial, err := pkix.NewKeyMaterial(key)
	if err != nil {
		return Result{}, err
	}

	chain := certs[1:]
	if props.ChainSecretName != "" {
		chainPEM, err := r.secrets.GetSecret(ctx, model.SecretRef{Name: props.ChainSecretName})
		if err != nil {
			return Result{}, fmt.Errorf("load source chain: %w", err)
		}
		ancestors, err := pkix.ParseCertificates(chainPEM)
		if err != nil {
			return Result{}, fmt.Errorf("source chain: %s%w", err.Error(), model.ErrInvalidParameter)
		}
		chain = append(chain, ancestors...)
	}

	bundle, passphrase, err := pkix.EncodePKCS12(&pkix.IssuedCertificate{
		Certificate: certs[0],
		Chain:       chain,
	}, keyMaterial)
	if err != nil {
		return Result{}, err
	}

	physicalID := MakePhysicalID(logicalID, certs[0].SerialNumber)

	bundleRef, err := putSecret(ctx, r.secrets, logicalID, Pkcs12SecretName(physicalID), bundle, "pkcs12-bundle")
	if err != nil {
		return Result{}, err
	}
	passphraseRef, err := putSecret(ctx, r.secrets, logicalID, PassphraseSecretName(physicalID), []byte(passphrase), "pkcs12-passphrase")
	if err != nil {
		return Result{}, err
	}

	logrus.Debugf("pkcs12 resource %s created as %s", logicalID, physicalID)
	return Result{
		PhysicalResourceID: physicalID,
		Data: map[string]string{
			"pkcs12SecretRef":     bundleRef.String(),
			"passphraseSecretRef": passphraseRef.String(),
			"sourceSerialNumber":  certs[0].SerialNumber.String(),
		},
	}, nil
}

// Update always replaces the bundle in full.
func (r *Pkcs12Resource) Update(ctx context.Context, logicalID string, props model.Pkcs12Properties) (Result, error) {
	return r.Create(ctx, logicalID, props)
}

// Delete removes bundle and passphrase of the physical identity being
// retired.
func (r *Pkcs12Resource) Delete(ctx context.Context, physicalID string) error {
	logrus.Debugf("deleting pkcs12 resource %s", physicalID)
	return deleteSecrets(ctx, r.secrets,
		Pkcs12SecretName(physicalID),
		PassphraseSecretName(physicalID),
	)
}
