// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"filippo.io/age"
)

// ageHeader starts every age-encrypted file in its binary format.
var ageHeader = []byte("age-encryption.org/")

// IsSealed reports whether data is an age-encrypted snapshot.
func IsSealed(data []byte) bool {
	return bytes.HasPrefix(data, ageHeader)
}

// ParseRecipients parses age X25519 public keys (age1...).
func ParseRecipients(keys []string) ([]age.Recipient, error) {
	recipients := make([]age.Recipient, 0, len(keys))
	for _, key := range keys {
		recipient, err := age.ParseX25519Recipient(key)
		if err != nil {
			return nil, fmt.Errorf("parsing recipient key %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}
	return recipients, nil
}

// LoadIdentities reads age identities from an identity file in the
// format age-keygen writes.
func LoadIdentities(path string) ([]age.Identity, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening identity file: %w", err)
	}
	defer file.Close()

	identities, err := age.ParseIdentities(file)
	if err != nil {
		return nil, fmt.Errorf("parsing identity file %s: %w", path, err)
	}
	return identities, nil
}

// GenerateIdentity creates an X25519 keypair and returns the secret
// identity (AGE-SECRET-KEY-1...) and its public recipient (age1...).
func GenerateIdentity() (identity, recipient string, err error) {
	generated, err := age.GenerateX25519Identity()
	if err != nil {
		return "", "", fmt.Errorf("generating age identity: %w", err)
	}
	return generated.String(), generated.Recipient().String(), nil
}

// seal encrypts plaintext to recipients.
func seal(w io.Writer, plaintext []byte, recipients []age.Recipient) error {
	writer, err := age.Encrypt(w, recipients...)
	if err != nil {
		return fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return fmt.Errorf("writing snapshot to age encryptor: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalizing age encryption: %w", err)
	}
	return nil
}

// unseal decrypts an age-encrypted snapshot with any of identities.
func unseal(ciphertext []byte, identities []age.Identity) ([]byte, error) {
	if len(identities) == 0 {
		return nil, fmt.Errorf("snapshot is encrypted and no identity was given")
	}
	reader, err := age.Decrypt(bytes.NewReader(ciphertext), identities...)
	if err != nil {
		return nil, fmt.Errorf("decrypting snapshot: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted snapshot: %w", err)
	}
	return plaintext, nil
}
