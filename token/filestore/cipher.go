package filestore

import (
	"crypto/rand"
	"encoding/json"
	"fmt"

	todoerrors "github.com/jrsteele09/go-todo-client/internal/errors"
	"github.com/jrsteele09/go-todo-client/token"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// argon2id parameters (RFC 9106 second recommended option, scaled down for
// an interactive client).
const (
	kdfTime    = 1
	kdfMemory  = 64 * 1024
	kdfThreads = 4
	saltLength = 16
)

type sealedBox struct {
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// boxCipher seals the credentials with XChaCha20-Poly1305. Each write uses
// a fresh salt and nonce; the derived key for the last salt is memoised
// because argon2 is deliberately slow.
type boxCipher struct {
	passphrase []byte
	lastSalt   []byte
	lastKey    []byte
}

func newBoxCipher(passphrase string) *boxCipher {
	return &boxCipher{passphrase: []byte(passphrase)}
}

func (c *boxCipher) key(salt []byte) []byte {
	if c.lastKey != nil && string(c.lastSalt) == string(salt) {
		return c.lastKey
	}
	key := argon2.IDKey(c.passphrase, salt, kdfTime, kdfMemory, kdfThreads, chacha20poly1305.KeySize)
	c.lastSalt = append([]byte(nil), salt...)
	c.lastKey = key
	return key
}

func (c *boxCipher) seal(creds token.Credentials) (*sealedBox, error) {
	plaintext, err := json.Marshal(creds)
	if err != nil {
		return nil, err
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(c.key(salt))
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	return &sealedBox{
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: aead.Seal(nil, nonce, plaintext, nil),
	}, nil
}

func (c *boxCipher) open(box *sealedBox) (token.Credentials, error) {
	aead, err := chacha20poly1305.NewX(c.key(box.Salt))
	if err != nil {
		return token.Credentials{}, err
	}
	if len(box.Nonce) != aead.NonceSize() {
		return token.Credentials{}, todoerrors.Wrapf(todoerrors.ErrStoreCorrupt, "bad nonce length %d", len(box.Nonce))
	}
	plaintext, err := aead.Open(nil, box.Nonce, box.Ciphertext, nil)
	if err != nil {
		return token.Credentials{}, todoerrors.Wrapf(todoerrors.ErrStoreCorrupt, "decrypt: %s", err.Error())
	}

	var creds token.Credentials
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return token.Credentials{}, fmt.Errorf("decode sealed credentials: %w", err)
	}
	return creds, nil
}
