package storage_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/renderwell/farmpki/pkg/cert_handler/model"
	"github.com/renderwell/farmpki/pkg/cert_handler/storage"
	mock_storage "github.com/renderwell/farmpki/test/mock/cert_handler/storage"
	"github.com/stretchr/testify/suite"
)

type RetrySecretStoreTestSuite struct {
	suite.Suite

	ctx   context.Context
	ctrl  *gomock.Controller
	inner *mock_storage.MockSecretStore
	store *storage.RetrySecretStore
}

func TestRetrySecretStoreTestSuite(t *testing.T) {
	suite.Run(t, new(RetrySecretStoreTestSuite))
}

func (s *RetrySecretStoreTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.inner = mock_storage.NewMockSecretStore(s.ctrl)
	s.store = storage.NewRetrySecretStore(
		s.inner,
		storage.RetryWithAttempts(3),
		storage.RetryWithDelay(time.Millisecond),
	)
}

func (s *RetrySecretStoreTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *RetrySecretStoreTestSuite) TestTransientErrorIsRetried() {
	transient := fmt.Errorf("connection reset%w", model.ErrStoreUnavailable)
	ref := model.SecretRef{Name: "rcs-1-cert", Version: 1}

	gomock.InOrder(
		s.inner.EXPECT().PutSecret(gomock.Any(), "rcs-1-cert", []byte("value")).Return(model.SecretRef{}, transient),
		s.inner.EXPECT().PutSecret(gomock.Any(), "rcs-1-cert", []byte("value")).Return(model.SecretRef{}, transient),
		s.inner.EXPECT().PutSecret(gomock.Any(), "rcs-1-cert", []byte("value")).Return(ref, nil),
	)

	returned, err := s.store.PutSecret(s.ctx, "rcs-1-cert", []byte("value"))
	s.Require().NoError(err)
	s.Require().Equal(ref, returned)
}

func (s *RetrySecretStoreTestSuite) TestTransientErrorSurfacesAfterAttemptsExhausted() {
	transient := fmt.Errorf("connection reset%w", model.ErrStoreUnavailable)

	s.inner.EXPECT().
		GetSecret(gomock.Any(), model.SecretRef{Name: "rcs-1-cert"}).
		Return(nil, transient).
		Times(3)

	_, err := s.store.GetSecret(s.ctx, model.SecretRef{Name: "rcs-1-cert"})
	s.Require().True(errors.Is(err, model.ErrStoreUnavailable))
}

func (s *RetrySecretStoreTestSuite) TestFatalErrorIsNotRetried() {
	denied := fmt.Errorf("forbidden%w", model.ErrAccessDenied)

	s.inner.EXPECT().
		DeleteSecret(gomock.Any(), "rcs-1-cert").
		Return(denied).
		Times(1)

	err := s.store.DeleteSecret(s.ctx, "rcs-1-cert")
	s.Require().True(errors.Is(err, model.ErrAccessDenied))
}

func (s *RetrySecretStoreTestSuite) TestNotFoundIsNotRetried() {
	s.inner.EXPECT().
		TagSecret(gomock.Any(), "rcs-1-cert", gomock.Any()).
		Return(fmt.Errorf("secret rcs-1-cert not found%w", model.ErrSecretNotFound)).
		Times(1)

	err := s.store.TagSecret(s.ctx, "rcs-1-cert", map[string]string{"artifact": "certificate"})
	s.Require().True(errors.Is(err, model.ErrSecretNotFound))
}

func (s *RetrySecretStoreTestSuite) TestSuccessPassesThrough() {
	s.inner.EXPECT().
		GetSecret(gomock.Any(), model.SecretRef{Name: "rcs-1-cert", Version: 2}).
		Return([]byte("value"), nil).
		Times(1)

	value, err := s.store.GetSecret(s.ctx, model.SecretRef{Name: "rcs-1-cert", Version: 2})
	s.Require().NoError(err)
	s.Require().Equal([]byte("value"), value)
}
