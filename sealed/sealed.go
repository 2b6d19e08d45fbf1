// Package sealed implements the authenticated-encryption primitive
// the filter treats as an external collaborator (spec.md §1, §6): it
// seals a ticket's JSON bytes into the opaque string carried as the
// Hawk "id" parameter, and unseals it back. No Go port of hapi's Iron
// or nginx-dlg-auth's ciron exists in this corpus (see DESIGN.md), so
// this package is built from the same ingredients the teacher already
// reaches for in token/token.go: HKDF-derived sub-keys plus an HMAC,
// extended here with AES-CTR encryption because, unlike token.go's
// plaintext payload, a ticket's pwd field must stay confidential in
// transit.
package sealed

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"
)

const (
	version = "dlgseal1"

	saltSize = 16
	ivSize   = aes.BlockSize
	keySize  = 32 // AES-256
	macSize  = sha256.Size

	hkdfInfoEncryption = "dlgauth/v1/encryption"
	hkdfInfoIntegrity  = "dlgauth/v1/integrity"
)

// ErrUnsealFailed covers any failure to authenticate or decrypt a
// sealed payload: bad format, unknown password id, HMAC mismatch, or
// ciphertext corruption. The filter maps all of these to a single
// UnsealFailed kind (spec.md §7), so they are deliberately not
// distinguished further here.
var ErrUnsealFailed = errors.New("sealed: unable to unseal payload")

// PasswordEntry is one row of a location's password table: a secret
// selected by the id embedded in the sealed payload, enabling
// password rotation without invalidating already-issued tickets.
type PasswordEntry struct {
	ID     string
	Secret []byte
}

// PasswordTable is an ordered list of PasswordEntry, capped by the
// caller (config.MaxPasswordTableEntries) at load time.
type PasswordTable []PasswordEntry

func (t PasswordTable) lookup(id string) ([]byte, bool) {
	for _, e := range t {
		if e.ID == id {
			return e.Secret, true
		}
	}
	return nil, false
}

// Seal encrypts-then-MACs data under password (single-password mode,
// no password id recorded) and returns the opaque sealed string.
func Seal(data []byte, password []byte) (string, error) {
	return sealWithID(data, "", password)
}

// SealWithID is Seal's password-table counterpart: passwordID is
// embedded in the sealed payload so Unseal can select the matching
// table entry.
func SealWithID(data []byte, passwordID string, password []byte) (string, error) {
	return sealWithID(data, passwordID, password)
}

func sealWithID(data []byte, passwordID string, password []byte) (string, error) {
	encSalt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, encSalt); err != nil {
		return "", errors.Wrap(err, "sealed: generating encryption salt")
	}
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", errors.Wrap(err, "sealed: generating iv")
	}
	macSalt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, macSalt); err != nil {
		return "", errors.Wrap(err, "sealed: generating mac salt")
	}

	encKey, err := derive(password, encSalt, hkdfInfoEncryption)
	if err != nil {
		return "", err
	}
	block, err := aes.NewCipher(encKey)
	if err != nil {
		return "", errors.Wrap(err, "sealed: aes.NewCipher")
	}
	ciphertext := make([]byte, len(data))
	cipher.NewCTR(block, iv).XORKeyStream(ciphertext, data)

	parts := []string{
		version,
		passwordID,
		b64(encSalt),
		b64(iv),
		b64(ciphertext),
		b64(macSalt),
	}
	macInput := strings.Join(parts, "*")

	macKey, err := derive(password, macSalt, hkdfInfoIntegrity)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, macKey)
	mac.Write([]byte(macInput))

	return macInput + "*" + b64(mac.Sum(nil)), nil
}

// Unseal reverses Seal/SealWithID. Exactly one of table or
// singlePassword must be usable: if the sealed payload carries a
// non-empty password id, table is consulted; otherwise singlePassword
// is used directly. This mirrors ciron_unseal's "accepts either a
// password or the password table" contract (spec.md §6).
func Unseal(sealedValue string, table PasswordTable, singlePassword []byte) ([]byte, error) {
	fields := strings.Split(sealedValue, "*")
	if len(fields) != 7 {
		return nil, ErrUnsealFailed
	}
	ver, passwordID, encSaltB64, ivB64, ciphertextB64, macSaltB64, macB64 := fields[0], fields[1], fields[2], fields[3], fields[4], fields[5], fields[6]
	if ver != version {
		return nil, ErrUnsealFailed
	}

	var password []byte
	if passwordID != "" {
		secret, ok := table.lookup(passwordID)
		if !ok {
			return nil, ErrUnsealFailed
		}
		password = secret
	} else {
		if len(singlePassword) == 0 {
			return nil, ErrUnsealFailed
		}
		password = singlePassword
	}

	encSalt, err := unb64(encSaltB64)
	if err != nil {
		return nil, ErrUnsealFailed
	}
	iv, err := unb64(ivB64)
	if err != nil || len(iv) != ivSize {
		return nil, ErrUnsealFailed
	}
	ciphertext, err := unb64(ciphertextB64)
	if err != nil {
		return nil, ErrUnsealFailed
	}
	macSalt, err := unb64(macSaltB64)
	if err != nil {
		return nil, ErrUnsealFailed
	}
	gotMAC, err := unb64(macB64)
	if err != nil {
		return nil, ErrUnsealFailed
	}

	macInput := strings.Join([]string{ver, passwordID, encSaltB64, ivB64, ciphertextB64, macSaltB64}, "*")
	macKey, err := derive(password, macSalt, hkdfInfoIntegrity)
	if err != nil {
		return nil, ErrUnsealFailed
	}
	mac := hmac.New(sha256.New, macKey)
	mac.Write([]byte(macInput))
	if !hmac.Equal(mac.Sum(nil), gotMAC) {
		return nil, ErrUnsealFailed
	}

	encKey, err := derive(password, encSalt, hkdfInfoEncryption)
	if err != nil {
		return nil, ErrUnsealFailed
	}
	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, ErrUnsealFailed
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCTR(block, iv).XORKeyStream(plaintext, ciphertext)

	return plaintext, nil
}

func derive(password, salt []byte, info string) ([]byte, error) {
	r := hkdf.New(sha256.New, password, salt, []byte(info))
	key := make([]byte, keySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, errors.Wrap(err, "sealed: HKDF derive")
	}
	return key, nil
}

func b64(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func unb64(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}
