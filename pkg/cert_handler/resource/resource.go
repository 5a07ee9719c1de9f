// Package resource implements the lifecycle state machines behind the custom
// certificate and PKCS#12 resources. Every invocation is a cold evaluation:
// the handlers keep no state between calls and reconstruct their view of the
// world from the event payload and the secret store.
package resource

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/renderwell/farmpki/pkg/cert_handler/model"
	"github.com/renderwell/farmpki/pkg/cert_handler/storage"
	"github.com/sirupsen/logrus"
)

// Result is the successful outcome of a lifecycle operation: the physical
// identity of the resource instance plus its public, non-secret attributes.
type Result struct {
	PhysicalResourceID string
	Data               map[string]string
}

// MakePhysicalID derives the physical identity of a resource instance from
// its logical id and the certificate serial. A true replacement always
// issues a new serial, so it always yields a fresh physical identity, which
// is what signals the orchestrator to clean up the old instance afterwards.
func MakePhysicalID(logicalID string, serial *big.Int) string {
	return fmt.Sprintf("%s-%s", logicalID, serial.Text(16))
}

// Secret names are derived from the physical identity plus an artifact
// discriminator, so the secrets of different resource instances never share
// a name.
func KeySecretName(physicalID string) string   { return physicalID + "-key" }
func CertSecretName(physicalID string) string  { return physicalID + "-cert" }
func ChainSecretName(physicalID string) string { return physicalID + "-chain" }

func Pkcs12SecretName(physicalID string) string     { return physicalID + "-pkcs12" }
func PassphraseSecretName(physicalID string) string { return physicalID + "-passphrase" }

// deleteSecrets removes the given names, tolerating secrets that are already
// absent so a retried Delete cannot fail on its own earlier progress.
func deleteSecrets(ctx context.Context, secrets storage.SecretStore, names ...string) error {
	for _, name := range names {
		if err := secrets.DeleteSecret(ctx, name); err != nil {
			if errors.Is(err, model.ErrSecretNotFound) {
				logrus.Warnf("secret %s already absent, continuing delete", name)
				continue
			}
			return fmt.Errorf("delete secret %s: %w", name, err)
		}
	}
	return nil
}

// putSecret writes a secret and tags it with its owner and artifact kind so
// operators can attribute store contents.
func putSecret(ctx context.Context, secrets storage.SecretStore, logicalID, name string, value []byte, artifact string) (model.SecretRef, error) {
	ref, err := secrets.PutSecret(ctx, name, value)
	if err != nil {
		return model.SecretRef{}, fmt.Errorf("write secret %s: %w", name, err)
	}
	tags := map[string]string{
		"logical_resource_id": logicalID,
		"artifact":            artifact,
	}
	if err := secrets.TagSecret(ctx, name, tags); err != nil {
		return model.SecretRef{}, fmt.Errorf("tag secret %s: %w", name, err)
	}
	return ref, nil
}
