package resource_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/renderwell/farmpki/pkg/cert_handler/model"
	"github.com/renderwell/farmpki/pkg/cert_handler/resource"
	"github.com/renderwell/farmpki/pkg/cert_handler/storage/memory"
	"github.com/renderwell/farmpki/pkg/pkix"
	"github.com/stretchr/testify/suite"
	gopkcs12 "software.sslmate.com/src/go-pkcs12"
)

type Pkcs12ResourceTestSuite struct {
	suite.Suite

	ctx      context.Context
	store    *memory.SecretStorage
	resource *resource.Pkcs12Resource

	upstreamKey  *pkix.KeyMaterial
	upstreamCert *pkix.IssuedCertificate
	props        model.Pkcs12Properties
}

func TestPkcs12ResourceTestSuite(t *testing.T) {
	suite.Run(t, new(Pkcs12ResourceTestSuite))
}

func (s *Pkcs12ResourceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewSecretStorage()
	s.resource = resource.NewPkcs12Resource(s.store)

	// Seed the upstream certificate resource's secrets: a CA-signed leaf
	// with its chain stored separately, the way the certificate resource
	// lays them out.
	caKey, err := pkix.GenerateKeyMaterial()
	s.Require().NoError(err)
	caCert, err := pkix.IssueCertificate(
		pkix.CertificateRequest{CommonName: "ca.renderfarm.local", ValidityDays: 3650},
		caKey,
		nil,
	)
	s.Require().NoError(err)

	s.upstreamKey, err = pkix.GenerateKeyMaterial()
	s.Require().NoError(err)
	s.upstreamCert, err = pkix.IssueCertificate(
		pkix.CertificateRequest{CommonName: "rcs.renderfarm.local", ValidityDays: 365},
		s.upstreamKey,
		&pkix.SigningContext{Certificate: caCert.Certificate, Key: caKey.Key},
	)
	s.Require().NoError(err)

	_, err = s.store.PutSecret(s.ctx, "rcs-1-cert", s.upstreamCert.CertificatePEM)
	s.Require().NoError(err)
	_, err = s.store.PutSecret(s.ctx, "rcs-1-key", s.upstreamKey.PrivateKeyPEM)
	s.Require().NoError(err)
	_, err = s.store.PutSecret(s.ctx, "rcs-1-chain", s.upstreamCert.ChainPEM)
	s.Require().NoError(err)

	s.props = model.Pkcs12Properties{
		CertSecretName:  "rcs-1-cert",
		KeySecretName:   "rcs-1-key",
		ChainSecretName: "rcs-1-chain",
	}
}

func (s *Pkcs12ResourceTestSuite) decodeBundle(result resource.Result) (string, []byte) {
	bundleRef, err := model.ParseSecretRef(result.Data["pkcs12SecretRef"])
	s.Require().NoError(err)
	bundle, err := s.store.GetSecret(s.ctx, bundleRef)
	s.Require().NoError(err)

	passphraseRef, err := model.ParseSecretRef(result.Data["passphraseSecretRef"])
	s.Require().NoError(err)
	passphrase, err := s.store.GetSecret(s.ctx, passphraseRef)
	s.Require().NoError(err)

	return string(passphrase), bundle
}

func (s *Pkcs12ResourceTestSuite) TestCreate() {
	result, err := s.resource.Create(s.ctx, "rcs-bundle", s.props)
	s.Require().NoError(err)

	expectedID := fmt.Sprintf("rcs-bundle-%s", s.upstreamCert.Certificate.SerialNumber.Text(16))
	s.Require().Equal(expectedID, result.PhysicalResourceID)
	s.Require().Equal(s.upstreamCert.Certificate.SerialNumber.String(), result.Data["sourceSerialNumber"])

	passphrase, bundle := s.decodeBundle(result)
	s.Require().Len(passphrase, 24)

	decodedKey, decodedCert, decodedChain, err := gopkcs12.DecodeChain(bundle, passphrase)
	s.Require().NoError(err)
	s.Require().Equal(s.upstreamCert.Certificate.Raw, decodedCert.Raw)
	s.Require().True(s.upstreamKey.Key.Equal(decodedKey))
	s.Require().Len(decodedChain, 1)
	s.Require().Equal("ca.renderfarm.local", decodedChain[0].Subject.CommonName)

	// Upstream secrets were read, never rewritten.
	s.Require().Equal(1, s.store.VersionCount("rcs-1-cert"))
	s.Require().Equal(1, s.store.VersionCount("rcs-1-key"))

	tags := s.store.Tags(result.PhysicalResourceID + "-pkcs12")
	s.Require().Equal("rcs-bundle", tags["logical_resource_id"])
	s.Require().Equal("pkcs12-bundle", tags["artifact"])
}

func (s *Pkcs12ResourceTestSuite) TestCreateWithoutChain() {
	props := s.props
	props.ChainSecretName = ""

	result, err := s.resource.Create(s.ctx, "rcs-bundle", props)
	s.Require().NoError(err)

	passphrase, bundle := s.decodeBundle(result)
	_, decodedCert, decodedChain, err := gopkcs12.DecodeChain(bundle, passphrase)
	s.Require().NoError(err)
	s.Require().Equal(s.upstreamCert.Certificate.Raw, decodedCert.Raw)
	s.Require().Empty(decodedChain)
}

func (s *Pkcs12ResourceTestSuite) TestCreateRejectsInvalidProperties() {
	_, err := s.resource.Create(s.ctx, "rcs-bundle", model.Pkcs12Properties{
		CertSecretName: "rcs-1-cert",
	})
	s.Require().True(errors.Is(err, model.ErrInvalidParameter))
}

func (s *Pkcs12ResourceTestSuite) TestCreateWithMissingUpstream() {
	props := s.props
	props.CertSecretName = "absent-cert"

	_, err := s.resource.Create(s.ctx, "rcs-bundle", props)
	s.Require().True(errors.Is(err, model.ErrSecretNotFound))
}

func (s *Pkcs12ResourceTestSuite) TestCreateWithMismatchedKey() {
	otherKey, err := pkix.GenerateKeyMaterial()
	s.Require().NoError(err)
	_, err = s.store.PutSecret(s.ctx, "rcs-1-key", otherKey.PrivateKeyPEM)
	s.Require().NoError(err)

	_, err = s.resource.Create(s.ctx, "rcs-bundle", s.props)
	s.Require().True(errors.Is(err, pkix.ErrEncodingFailure))
}

func (s *Pkcs12ResourceTestSuite) TestUpdateReplacesBundleAndPassphrase() {
	created, err := s.resource.Create(s.ctx, "rcs-bundle", s.props)
	s.Require().NoError(err)
	firstPassphrase, _ := s.decodeBundle(created)

	updated, err := s.resource.Update(s.ctx, "rcs-bundle", s.props)
	s.Require().NoError(err)

	// Same upstream serial, same physical identity, but a fresh bundle and
	// passphrase version.
	s.Require().Equal(created.PhysicalResourceID, updated.PhysicalResourceID)
	s.Require().Equal(2, s.store.VersionCount(updated.PhysicalResourceID+"-pkcs12"))
	secondPassphrase, _ := s.decodeBundle(updated)
	s.Require().NotEqual(firstPassphrase, secondPassphrase)
}

func (s *Pkcs12ResourceTestSuite) TestDeleteIsIdempotent() {
	created, err := s.resource.Create(s.ctx, "rcs-bundle", s.props)
	s.Require().NoError(err)

	s.Require().NoError(s.resource.Delete(s.ctx, created.PhysicalResourceID))
	_, err = s.store.GetSecret(s.ctx, model.SecretRef{Name: created.PhysicalResourceID + "-pkcs12"})
	s.Require().True(errors.Is(err, model.ErrSecretNotFound))

	s.Require().NoError(s.resource.Delete(s.ctx, created.PhysicalResourceID))
}
