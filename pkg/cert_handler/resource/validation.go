package resource

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/renderwell/farmpki/pkg/cert_handler/model"
	"github.com/renderwell/farmpki/pkg/pkix"
)

func ValidateCertificateProperties(props model.CertificateProperties, maxValidityDays int) error {
	if err := validation.ValidateStruct(&props,
		validation.Field(&props.CommonName, validation.Required),
		validation.Field(&props.ValidityDays, validation.Required),
	); err != nil {
		return fmt.Errorf("%s%w", err.Error(), model.ErrInvalidParameter)
	}

	if props.SigningAuthority != nil {
		authority := *props.SigningAuthority
		if err := validation.ValidateStruct(&authority,
			validation.Field(&authority.CertSecretName, validation.Required),
			validation.Field(&authority.KeySecretName, validation.Required),
		); err != nil {
			return fmt.Errorf("signing_authority: %s%w", err.Error(), model.ErrInvalidParameter)
		}
	}

	if err := pkix.ValidateCommonName(props.CommonName); err != nil {
		return err
	}
	return pkix.ValidateValidityDays(props.ValidityDays, maxValidityDays)
}

func ValidatePkcs12Properties(props model.Pkcs12Properties) error {
	if err := validation.ValidateStruct(&props,
		validation.Field(&props.CertSecretName, validation.Required),
		validation.Field(&props.KeySecretName, validation.Required),
	); err != nil {
		return fmt.Errorf("%s%w", err.Error(), model.ErrInvalidParameter)
	}
	return nil
}
