package relaycrypto

import (
	"crypto/hmac"
	"encoding/hex"

	"moff.io/wallet-connector/pkg/errors"
)

// Seal encrypts plain with a fresh IV and authenticates cipher||iv.
func Seal(plain, key []byte) (*Envelope, error) {
	iv, err := GenerateRandomBytes(16)
	if err != nil {
		return nil, errors.Wrap(err, "generate random bytes")
	}
	data, err := Aes256Encrypt(plain, key, iv)
	if err != nil {
		return nil, err
	}
	unsigned := append(append([]byte{}, data...), iv...)
	return &Envelope{
		Data: hex.EncodeToString(data),
		IV:   hex.EncodeToString(iv),
		Hmac: hex.EncodeToString(HmacSha256(unsigned, key)),
	}, nil
}

// Open verifies the envelope HMAC and decrypts its payload.
func Open(env *Envelope, key []byte) ([]byte, error) {
	iv, err := hex.DecodeString(env.IV)
	if err != nil {
		return nil, errors.Wrap(err, "decode iv hex")
	}
	data, err := hex.DecodeString(env.Data)
	if err != nil {
		return nil, errors.Wrap(err, "decode cipher hex")
	}
	mac, err := hex.DecodeString(env.Hmac)
	if err != nil {
		return nil, errors.Wrap(err, "decode hmac hex")
	}
	unsigned := append(append([]byte{}, data...), iv...)
	if !hmac.Equal(mac, HmacSha256(unsigned, key)) {
		return nil, errors.New("inconsistent session message hmac")
	}
	plain, err := Aes256Decrypt(data, key, iv)
	if err != nil {
		return nil, errors.Wrap(err, "aes256 decrypt")
	}
	return plain, nil
}
