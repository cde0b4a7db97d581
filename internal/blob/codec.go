// Copyright 2025 JulesFS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package blob

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidToken is returned when a token cannot be decoded or
// authenticated. A token that decodes but references no blob row yields
// common.ErrNotFound instead.
var ErrInvalidToken = errors.New("invalid blob token")

// Codec seals blob row ids into opaque tokens and opens them again.
// Tokens are AES-GCM ciphertexts, base64url-encoded, with the nonce
// prepended. An altered or truncated token fails authentication, so a
// token is also proof that it was issued by this store.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec builds a Codec from a raw AES key of 16, 24 or 32 bytes.
func NewCodec(key []byte) (*Codec, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("blob token key: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("blob token cipher: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// Seal encrypts a blob row id into a token.
func (c *Codec) Seal(id string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("token nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(id), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a token back into the blob row id it was sealed from.
func (c *Codec) Open(token string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("token %q: %w", token, ErrInvalidToken)
	}
	if len(raw) < c.aead.NonceSize() {
		return "", fmt.Errorf("token %q: %w", token, ErrInvalidToken)
	}
	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	id, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("token %q: %w", token, ErrInvalidToken)
	}
	return string(id), nil
}
