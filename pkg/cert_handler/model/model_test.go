package model_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/renderwell/farmpki/pkg/cert_handler/model"
	"github.com/renderwell/farmpki/pkg/pkix"
	"github.com/renderwell/farmpki/pkg/util"
	"github.com/stretchr/testify/require"
)

func TestSecretRefString(t *testing.T) {
	require.Equal(t, "rcs-1a2b-cert", model.SecretRef{Name: "rcs-1a2b-cert"}.String())
	require.Equal(t, "rcs-1a2b-cert@v3", model.SecretRef{Name: "rcs-1a2b-cert", Version: 3}.String())
}

func TestParseSecretRef(t *testing.T) {
	ref, err := model.ParseSecretRef("rcs-1a2b-cert")
	require.NoError(t, err)
	require.Equal(t, model.SecretRef{Name: "rcs-1a2b-cert"}, ref)

	ref, err = model.ParseSecretRef("rcs-1a2b-cert@v3")
	require.NoError(t, err)
	require.Equal(t, model.SecretRef{Name: "rcs-1a2b-cert", Version: 3}, ref)

	for _, raw := range []string{"", "@v3", "name@vx", "name@v0", "name@v-1"} {
		_, err := model.ParseSecretRef(raw)
		require.Error(t, err, "reference %q", raw)
		require.True(t, errors.Is(err, model.ErrInvalidParameter), "reference %q", raw)
	}
}

func TestErrorClassification(t *testing.T) {
	transient := fmt.Errorf("connection reset%w", model.ErrStoreUnavailable)
	require.True(t, model.IsTransient(transient))
	require.False(t, model.IsTransient(fmt.Errorf("forbidden%w", model.ErrAccessDenied)))
	require.False(t, model.IsTransient(errors.New("plain")))

	require.True(t, model.IsUserError(fmt.Errorf("bad input%w", model.ErrInvalidParameter)))
	require.True(t, model.IsUserError(fmt.Errorf("bad cn%w", pkix.ErrInvalidSubject)))
	require.True(t, model.IsUserError(fmt.Errorf("bad days%w", pkix.ErrInvalidValidityPeriod)))
	require.False(t, model.IsUserError(transient))
}

func TestFailureReason(t *testing.T) {
	require.Empty(t, model.FailureReason(nil))

	// Crypto and encoding failures are reported generically: their wrapped
	// messages may mention key material.
	reason := model.FailureReason(fmt.Errorf("rsa: %s%w", "details", pkix.ErrCryptoFailure))
	require.Equal(t, "internal cryptographic operation failed", reason)
	reason = model.FailureReason(fmt.Errorf("pkcs12: %s%w", "details", pkix.ErrEncodingFailure))
	require.Equal(t, "internal encoding operation failed", reason)

	reason = model.FailureReason(fmt.Errorf("connection reset%w", model.ErrStoreUnavailable))
	require.Equal(t, "secret store unavailable: connection reset", reason)
	reason = model.FailureReason(fmt.Errorf("forbidden%w", model.ErrAccessDenied))
	require.Equal(t, "secret store access denied: forbidden", reason)

	reason = model.FailureReason(fmt.Errorf("common name is empty%w", model.ErrInvalidParameter))
	require.Equal(t, "common name is empty", reason)
}

func TestCertificatePropertiesIdentityEquals(t *testing.T) {
	base := model.CertificateProperties{
		CommonName:   "rcs.renderfarm.local",
		Organization: "RenderWell",
		ValidityDays: 365,
		SigningAuthority: &model.SigningAuthority{
			CertSecretName: "ca-1-cert",
			KeySecretName:  "ca-1-key",
		},
	}

	same := base
	same.SigningAuthority = util.Ptr(*base.SigningAuthority)
	require.True(t, base.IdentityEquals(same))

	changedCN := base
	changedCN.CommonName = "other.renderfarm.local"
	require.False(t, base.IdentityEquals(changedCN))

	changedDays := base
	changedDays.ValidityDays = 30
	require.False(t, base.IdentityEquals(changedDays))

	droppedAuthority := base
	droppedAuthority.SigningAuthority = nil
	require.False(t, base.IdentityEquals(droppedAuthority))

	changedAuthority := base
	changedAuthority.SigningAuthority = util.Ptr(model.SigningAuthority{
		CertSecretName: "ca-2-cert",
		KeySecretName:  "ca-2-key",
	})
	require.False(t, base.IdentityEquals(changedAuthority))
}
