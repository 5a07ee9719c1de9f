package storage

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/renderwell/farmpki/pkg/cert_handler/model"
)

const (
	defaultRetryAttempts = 4
	defaultRetryDelay    = 200 * time.Millisecond
)

// RetrySecretStore decorates a SecretStore with a bounded exponential-backoff
// retry policy for transient failures. Fatal errors pass through on the
// first attempt.
type RetrySecretStore struct {
	inner    SecretStore
	attempts uint
	delay    time.Duration
}

type RetryOption func(*RetrySecretStore)

func RetryWithAttempts(attempts uint) RetryOption {
	return func(s *RetrySecretStore) {
		s.attempts = attempts
	}
}

func RetryWithDelay(delay time.Duration) RetryOption {
	return func(s *RetrySecretStore) {
		s.delay = delay
	}
}

func NewRetrySecretStore(inner SecretStore, options ...RetryOption) *RetrySecretStore {
	store := &RetrySecretStore{
		inner:    inner,
		attempts: defaultRetryAttempts,
		delay:    defaultRetryDelay,
	}
	for _, option := range options {
		option(store)
	}
	return store
}

func (s *RetrySecretStore) PutSecret(ctx context.Context, name string, value []byte) (model.SecretRef, error) {
	var ref model.SecretRef
	err := s.do(ctx, func() error {
		var err error
		ref, err = s.inner.PutSecret(ctx, name, value)
		return err
	})
	return ref, err
}

func (s *RetrySecretStore) GetSecret(ctx context.Context, ref model.SecretRef) ([]byte, error) {
	var value []byte
	err := s.do(ctx, func() error {
		var err error
		value, err = s.inner.GetSecret(ctx, ref)
		return err
	})
	return value, err
}

func (s *RetrySecretStore) DeleteSecret(ctx context.Context, name string) error {
	return s.do(ctx, func() error {
		return s.inner.DeleteSecret(ctx, name)
	})
}

func (s *RetrySecretStore) TagSecret(ctx context.Context, name string, tags map[string]string) error {
	return s.do(ctx, func() error {
		return s.inner.TagSecret(ctx, name, tags)
	})
}

func (s *RetrySecretStore) do(ctx context.Context, operation func() error) error {
	return retry.Do(
		operation,
		retry.RetryIf(model.IsTransient),
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
}
