package model

import (
	"fmt"
	"strconv"
	"strings"
)

// SecretRef is an opaque handle to a blob in the secret store. Version zero
// addresses the latest version.
type SecretRef struct {
	Name    string `json:"name"`
	Version int64  `json:"version,omitempty"`
}

// String renders the reference as "name" or "name@vN". This is the form
// placed in response Data; the secret value itself never appears there.
func (r SecretRef) String() string {
	if r.Version == 0 {
		return r.Name
	}
	return fmt.Sprintf("%s@v%d", r.Name, r.Version)
}

// ParseSecretRef parses the String form back into a SecretRef.
func ParseSecretRef(s string) (SecretRef, error) {
	name, version, found := strings.Cut(s, "@v")
	if name == "" {
		return SecretRef{}, fmt.Errorf("secret reference %q has no name%w", s, ErrInvalidParameter)
	}
	if !found {
		return SecretRef{Name: name}, nil
	}
	v, err := strconv.ParseInt(version, 10, 64)
	if err != nil || v <= 0 {
		return SecretRef{}, fmt.Errorf("secret reference %q has an invalid version%w", s, ErrInvalidParameter)
	}
	return SecretRef{Name: name, Version: v}, nil
}
