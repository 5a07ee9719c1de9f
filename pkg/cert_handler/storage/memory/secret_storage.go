// Package memory provides an in-process SecretStore with the same versioning
// contract as the postgres implementation. It backs tests and local runs
// without a database.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/renderwell/farmpki/pkg/cert_handler/model"
)

type record struct {
	versions [][]byte
	tags     map[string]string
}

type SecretStorage struct {
	mu      sync.Mutex
	secrets map[string]*record
}

func NewSecretStorage() *SecretStorage {
	return &SecretStorage{
		secrets: make(map[string]*record),
	}
}

func (s *SecretStorage) PutSecret(ctx context.Context, name string, value []byte) (model.SecretRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.secrets[name]
	if !ok {
		rec = &record{tags: make(map[string]string)}
		s.secrets[name] = rec
	}
	rec.versions = append(rec.versions, append([]byte(nil), value...))

	return model.SecretRef{Name: name, Version: int64(len(rec.versions))}, nil
}

func (s *SecretStorage) GetSecret(ctx context.Context, ref model.SecretRef) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.secrets[ref.Name]
	if !ok {
		return nil, fmt.Errorf("secret %s not found%w", ref.Name, model.ErrSecretNotFound)
	}

	version := ref.Version
	if version == 0 {
		version = int64(len(rec.versions))
	}
	if version < 1 || version > int64(len(rec.versions)) {
		return nil, fmt.Errorf("secret %s has no version %d%w", ref.Name, ref.Version, model.ErrSecretNotFound)
	}

	return append([]byte(nil), rec.versions[version-1]...), nil
}

func (s *SecretStorage) DeleteSecret(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.secrets, name)
	return nil
}

func (s *SecretStorage) TagSecret(ctx context.Context, name string, tags map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.secrets[name]
	if !ok {
		return fmt.Errorf("secret %s not found%w", name, model.ErrSecretNotFound)
	}
	for key, value := range tags {
		rec.tags[key] = value
	}
	return nil
}

// Tags returns a copy of the tags of a secret. Test helper.
func (s *SecretStorage) Tags(name string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.secrets[name]
	if !ok {
		return nil
	}
	tags := make(map[string]string, len(rec.tags))
	for key, value := range rec.tags {
		tags[key] = value
	}
	return tags
}

// VersionCount returns how many versions a secret has. Test helper.
func (s *SecretStorage) VersionCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.secrets[name]
	if !ok {
		return 0
	}
	return len(rec.versions)
}
