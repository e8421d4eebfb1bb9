package entity

import "strings"

// CredentialSeparator joins the salt and the derived key inside a stored credential.
// Both parts are hex encoded, so the separator can never occur inside either of them.
const CredentialSeparator = "."

// Credential is the storable form of a password: a per-user salt and the key derived from it.
type Credential struct {
	Salt       string // Lowercase hex salt.
	DerivedKey string // Lowercase hex output of the key derivation function.
}

// String encodes the credential as "<salt>.<derivedKey>".
func (c Credential) String() string {
	return c.Salt + CredentialSeparator + c.DerivedKey
}

// ParseCredential splits a stored credential on the first separator.
// ok is false when the value carries no separator.
func ParseCredential(stored string) (cred Credential, ok bool) {
	salt, key, found := strings.Cut(stored, CredentialSeparator)
	if !found {
		return Credential{}, false
	}

	return Credential{Salt: salt, DerivedKey: key}, true
}
