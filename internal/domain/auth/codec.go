package auth

import (
	"encoding/json"
	"errors"
	"strings"
)

// EncodePrincipal serializes a Principal into its Session slot representation.
func EncodePrincipal(p Principal) ([]byte, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return json.Marshal(p)
}

// DecodePrincipal parses a Session slot value. Any content that does not describe a
// well-formed Principal yields a *CorruptSessionError.
func DecodePrincipal(data []byte) (Principal, error) {
	if len(data) == 0 {
		return Principal{}, &CorruptSessionError{Cause: errors.New("empty value")}
	}
	var p Principal
	if err := json.Unmarshal(data, &p); err != nil {
		return Principal{}, &CorruptSessionError{Cause: err}
	}
	if err := p.validate(); err != nil {
		return Principal{}, &CorruptSessionError{Cause: err}
	}
	return p, nil
}

// SafeDeserializePrincipal returns the Principal stored in data, or nil when the
// value is absent or malformed. It never panics.
func SafeDeserializePrincipal(data []byte) *Principal {
	p, err := DecodePrincipal(data)
	if err != nil {
		return nil
	}
	return &p
}

func (p Principal) validate() error {
	if strings.TrimSpace(p.Identifier) == "" {
		return errors.New("principal identifier is empty")
	}
	if !p.Role.Valid() {
		return &InvalidRoleError{Value: string(p.Role)}
	}
	return nil
}
