package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

var ErrSealedTooShort = errors.New("sealed value too short")

// Sealer 对本地保存的令牌做对称加密，输出 base64(nonce|box)
type Sealer struct {
	key [32]byte
}

// NewSealer 由任意长度的口令派生 32 字节密钥
func NewSealer(secret string) *Sealer {
	return &Sealer{key: sha256.Sum256([]byte(secret))}
}

func (s *Sealer) Seal(plaintext string) (string, error) {
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", err
	}
	out := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return base64.StdEncoding.EncodeToString(out), nil
}

func (s *Sealer) Open(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	if len(data) < 24+secretbox.Overhead {
		return "", ErrSealedTooShort
	}

	var nonce [24]byte
	copy(nonce[:], data[:24])
	plain, ok := secretbox.Open(nil, data[24:], &nonce, &s.key)
	if !ok {
		return "", errors.New("sealed value rejected")
	}
	return string(plain), nil
}
