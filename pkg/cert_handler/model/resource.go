package model

import (
	"github.com/goccy/go-json"
)

type RequestType string
type ResourceType string
type Status string

const (
	RequestTypeCreate RequestType = "Create"
	RequestTypeUpdate RequestType = "Update"
	RequestTypeDelete RequestType = "Delete"

	ResourceTypeCertificate  ResourceType = "RenderFarm::Certificate"
	ResourceTypePkcs12Bundle ResourceType = "RenderFarm::Pkcs12Bundle"

	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Event is the inbound lifecycle event envelope delivered by the
// orchestrator. PhysicalResourceId is present for Update and Delete;
// OldResourceProperties only for Update.
type Event struct {
	RequestType           RequestType     `json:"RequestType"`
	ResourceType          ResourceType    `json:"ResourceType"`
	RequestID             string          `json:"RequestId,omitempty"`
	LogicalResourceID     string          `json:"LogicalResourceId"`
	PhysicalResourceID    string          `json:"PhysicalResourceId,omitempty"`
	ResourceProperties    json.RawMessage `json:"ResourceProperties,omitempty"`
	OldResourceProperties json.RawMessage `json:"OldResourceProperties,omitempty"`
}

// Response is the outbound envelope. Data carries public, non-secret
// attributes only; Reason is required when Status is FAILED.
type Response struct {
	Status             Status            `json:"Status"`
	PhysicalResourceID string            `json:"PhysicalResourceId,omitempty"`
	RequestID          string            `json:"RequestId,omitempty"`
	Reason             string            `json:"Reason,omitempty"`
	Data               map[string]string `json:"Data,omitempty"`
}

// SigningAuthority points at the secrets of an existing certificate resource
// acting as the signing authority. References, never values.
type SigningAuthority struct {
	CertSecretName  string `json:"cert_secret_name"`
	KeySecretName   string `json:"key_secret_name"`
	ChainSecretName string `json:"chain_secret_name,omitempty"`
}

// CertificateProperties are the declared properties of a certificate
// resource. All fields are identity affecting: changing any of them replaces
// the resource.
type CertificateProperties struct {
	CommonName         string            `json:"common_name"`
	Organization       string            `json:"organization,omitempty"`
	OrganizationalUnit string            `json:"organizational_unit,omitempty"`
	Locality           string            `json:"locality,omitempty"`
	Country            string            `json:"country,omitempty"`
	ValidityDays       int               `json:"validity_days"`
	SigningAuthority   *SigningAuthority `json:"signing_authority,omitempty"`
}

// IdentityEquals reports whether the identity-affecting fields match. A
// resource whose identity changed is replaced, never updated in place.
func (p CertificateProperties) IdentityEquals(other CertificateProperties) bool {
	if p.CommonName != other.CommonName ||
		p.Organization != other.Organization ||
		p.OrganizationalUnit != other.OrganizationalUnit ||
		p.Locality != other.Locality ||
		p.Country != other.Country ||
		p.ValidityDays != other.ValidityDays {
		return false
	}
	if (p.SigningAuthority == nil) != (other.SigningAuthority == nil) {
		return false
	}
	if p.SigningAuthority != nil && *p.SigningAuthority != *other.SigningAuthority {
		return false
	}
	return true
}

// Pkcs12Properties are the declared properties of a PKCS#12 conversion
// resource: the secret references of the upstream certificate and key.
type Pkcs12Properties struct {
	CertSecretName  string `json:"cert_secret_name"`
	KeySecretName   string `json:"key_secret_name"`
	ChainSecretName string `json:"chain_secret_name,omitempty"`
}
