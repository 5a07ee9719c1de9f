package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/renderwell/farmpki/pkg/cert_handler/model"
	"github.com/renderwell/farmpki/pkg/util"
)

// SecretStorage persists secrets as versioned, encrypted-at-rest blobs. The
// schema lives in schema.sql: a `secret` table with the latest version per
// name and a `secret_version` history table.
type SecretStorage struct {
	dbPool    *pgxpool.Pool
	masterKey []byte
}

func NewSecretStorageWithPool(dbPool *pgxpool.Pool, masterKey []byte) (*SecretStorage, error) {
	if len(masterKey) != masterKeyLength {
		return nil, fmt.Errorf("master key must be %d bytes, got %d", masterKeyLength, len(masterKey))
	}
	return &SecretStorage{
		dbPool:    dbPool,
		masterKey: masterKey,
	}, nil
}

func NewSecretStorageWithConfig(config util.PostgresDatabaseConfig, masterKey []byte) (*SecretStorage, error) {
	dbPool, err := util.NewPostgresDBPool(config)
	if err != nil {
		return nil, err
	}
	return NewSecretStorageWithPool(dbPool, masterKey)
}

// wrapStoreErr maps driver errors onto the store error taxonomy. Permission
// errors are fatal; everything else from the driver is treated as transient
// and left to the caller's retry policy.
func wrapStoreErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42501" {
		return fmt.Errorf("%s%w", pgErr.Message, model.ErrAccessDenied)
	}
	return fmt.Errorf("%s%w", err.Error(), model.ErrStoreUnavailable)
}
