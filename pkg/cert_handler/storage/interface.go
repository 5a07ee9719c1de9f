package storage

import (
	"context"

	"github.com/renderwell/farmpki/pkg/cert_handler/model"
)

// SecretStore is the adapter over the external secret storage service. It is
// a storage proxy, not a source of truth: it owns no domain objects.
//
// PutSecret on an existing name creates a new version and keeps the old ones
// until the name is deleted. DeleteSecret is idempotent: deleting an absent
// name succeeds, which keeps retries after partial failures safe.
//
// Implementations report transient failures as model.ErrStoreUnavailable and
// permission failures as model.ErrAccessDenied.
type SecretStore interface {
	PutSecret(ctx context.Context, name string, value []byte) (model.SecretRef, error)
	GetSecret(ctx context.Context, ref model.SecretRef) ([]byte, error)
	DeleteSecret(ctx context.Context, name string) error
	TagSecret(ctx context.Context, name string, tags map[string]string) error
}
