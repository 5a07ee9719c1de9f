package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/renderwell/farmpki/pkg/cert_handler/model"
)

func (s *SecretStorage) PutSecret(ctx context.Context, name string, value []byte) (model.SecretRef, error) {
	blob, err := s.encrypt(value)
	if err != nil {
		return model.SecretRef{}, err
	}

	query := `
WITH ins AS (
	INSERT INTO secret (name, version, value, updated_at)
	VALUES ($1, 1, $2, $3)
	ON CONFLICT (name) DO UPDATE SET
		version = secret.version + 1,
		value = excluded.value,
		updated_at = excluded.updated_at
	RETURNING name, version, value
)
INSERT INTO secret_version (name, version, value, created_at)
SELECT name, version, value, $3 FROM ins
RETURNING version
`
	var version int64
	if err := s.dbPool.QueryRow(ctx, query, name, blob, time.Now().Unix()).Scan(&version); err != nil {
		return model.SecretRef{}, wrapStoreErr(err)
	}

	return model.SecretRef{Name: name, Version: version}, nil
}

func (s *SecretStorage) GetSecret(ctx context.Context, ref model.SecretRef) ([]byte, error) {
	var blob []byte
	var err error
	if ref.Version == 0 {
		err = s.dbPool.QueryRow(ctx, `SELECT value FROM secret WHERE name = $1`, ref.Name).Scan(&blob)
	} else {
		err = s.dbPool.QueryRow(
			ctx,
			`SELECT value FROM secret_version WHERE name = $1 AND version = $2`,
			ref.Name,
			ref.Version,
		).Scan(&blob)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("secret %s not found%w", ref.Name, model.ErrSecretNotFound)
	}
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	return s.decrypt(blob)
}

func (s *SecretStorage) DeleteSecret(ctx context.Context, name string) error {
	// Deleting an absent name is a no-op, so retries after partial
	// failures stay safe.
	if _, err := s.dbPool.Exec(ctx, `DELETE FROM secret_version WHERE name = $1`, name); err != nil {
		return wrapStoreErr(err)
	}
	if _, err := s.dbPool.Exec(ctx, `DELETE FROM secret WHERE name = $1`, name); err != nil {
		return wrapStoreErr(err)
	}
	return nil
}

func (s *SecretStorage) TagSecret(ctx context.Context, name string, tags map[string]string) error {
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %s%w", err.Error(), model.ErrStoreUnavailable)
	}

	result, err := s.dbPool.Exec(
		ctx,
		`UPDATE secret SET tags = tags || $2::JSONB WHERE name = $1`,
		name,
		string(tagsJSON),
	)
	if err != nil {
		return wrapStoreErr(err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("secret %s not found%w", name, model.ErrSecretNotFound)
	}
	return nil
}
