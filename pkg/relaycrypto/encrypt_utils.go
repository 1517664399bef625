package relaycrypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"

	"moff.io/wallet-connector/pkg/errors"
)

func Aes256Encrypt(content, encryptionKey, iv []byte) ([]byte, error) {
	bPlaintext := pkcs7Padding(content, aes.BlockSize)
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, errors.Wrap(err, "create new cipher block")
	}
	ciphertext := make([]byte, len(bPlaintext))
	mode := cipher.NewCBCEncrypter(block, iv)
	mode.CryptBlocks(ciphertext, bPlaintext)
	return ciphertext, nil
}

func Aes256Decrypt(cipherText []byte, encryptionKey []byte, iv []byte) ([]byte, error) {
	if len(cipherText) == 0 || len(cipherText)%aes.BlockSize != 0 {
		return nil, errors.New("cipher text is not a multiple of the block size")
	}
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, errors.Wrap(err, "create new cipher block")
	}
	plain := make([]byte, len(cipherText))
	mode := cipher.NewCBCDecrypter(block, iv)
	mode.CryptBlocks(plain, cipherText)
	return pkcs7Unpadding(plain, aes.BlockSize)
}

func pkcs7Padding(plain []byte, blockSize int) []byte {
	padding := blockSize - len(plain)%blockSize
	padText := bytes.Repeat([]byte{byte(padding)}, padding)
	return append(plain, padText...)
}

func pkcs7Unpadding(plain []byte, blockSize int) ([]byte, error) {
	n := len(plain)
	padding := int(plain[n-1])
	if padding == 0 || padding > blockSize || padding > n {
		return nil, errors.New("invalid padding")
	}
	for _, b := range plain[n-padding:] {
		if int(b) != padding {
			return nil, errors.New("invalid padding")
		}
	}
	return plain[:n-padding], nil
}

func GenerateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func HmacSha256(data, secret []byte) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write(data)
	return h.Sum(nil)
}

// Envelope is the hex-encoded encrypted form of one JSON-RPC message.
type Envelope struct {
	Data string `json:"data"`
	Hmac string `json:"hmac"`
	IV   string `json:"iv"`
}
