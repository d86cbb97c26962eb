package store

import (
	"errors"

	"github.com/fernet/fernet-go"
)

// ErrSealBroken is returned when a sealed secret fails verification.
var ErrSealBroken = errors.New("credential store: sealed secret failed verification")

// Sealer encrypts credential secrets at rest with a fernet key.
type Sealer struct {
	key *fernet.Key
}

// NewSealer decodes a base64 fernet key.
func NewSealer(encodedKey string) (*Sealer, error) {
	k, err := fernet.DecodeKey(encodedKey)
	if err != nil {
		return nil, err
	}
	return &Sealer{key: k}, nil
}

// Seal encrypts plain. The empty string seals to the empty string.
func (s *Sealer) Seal(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}
	tok, err := fernet.EncryptAndSign([]byte(plain), s.key)
	if err != nil {
		return "", err
	}
	return string(tok), nil
}

// Open decrypts a value produced by Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	msg := fernet.VerifyAndDecrypt([]byte(sealed), 0, []*fernet.Key{s.key})
	if msg == nil {
		return "", ErrSealBroken
	}
	return string(msg), nil
}
