package postgres

import (
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwe"
	"github.com/renderwell/farmpki/pkg/cert_handler/model"
)

const masterKeyLength = 32

// Secret values are stored as compact JWE: the content is encrypted with a
// fresh A256GCM key, which is wrapped under the configured master key.
func (s *SecretStorage) encrypt(value []byte) ([]byte, error) {
	blob, err := jwe.Encrypt(
		value,
		jwe.WithKey(jwa.A256KW, s.masterKey),
		jwe.WithContentEncryption(jwa.A256GCM),
	)
	if err != nil {
		return nil, fmt.Errorf("encrypt secret: %s%w", err.Error(), model.ErrStoreUnavailable)
	}
	return blob, nil
}

func (s *SecretStorage) decrypt(blob []byte) ([]byte, error) {
	value, err := jwe.Decrypt(blob, jwe.WithKey(jwa.A256KW, s.masterKey))
	if err != nil {
		return nil, fmt.Errorf("decrypt secret: %s%w", err.Error(), model.ErrAccessDenied)
	}
	return value, nil
}
