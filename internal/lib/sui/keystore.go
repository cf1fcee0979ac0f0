package sui

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/lisuify/lisuify/internal/lib/misc"
)

// Keystore holds the keys of a sui.keystore file: a json array of base64 encoded, scheme
// flagged private keys.
type Keystore struct {
	log  *slog.Logger
	keys map[string]*KeyPair
	// in file order
	addresses []string
}

func LoadKeystore(log *slog.Logger, path string) (*Keystore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading keystore: %s: %w", path, err)
	}
	var entries []string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("keystore %s is not a json string array: %w", path, ErrInvalidKey)
	}
	ks := &Keystore{log: log, keys: map[string]*KeyPair{}}
	for i, entry := range entries {
		kp, err := ParseKey(entry)
		if err != nil {
			return nil, fmt.Errorf("keystore %s entry %d: %w", path, i, err)
		}
		ks.add(kp)
	}
	misc.Debugf(log, "loaded %d keys from %s", len(ks.addresses), path)
	return ks, nil
}

// ParseKey decodes a single base64 keystore entry.
func ParseKey(entry string) (*KeyPair, error) {
	raw, err := base64.StdEncoding.DecodeString(entry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty key: %w", ErrInvalidKey)
	}
	switch SignatureScheme(raw[0]) {
	case SchemeEd25519:
		return NewEd25519KeyPair(raw[1:])
	case SchemeSecp256k1:
		return NewSecp256k1KeyPair(raw[1:])
	}
	return nil, fmt.Errorf("unsupported key scheme %s: %w", SignatureScheme(raw[0]), ErrInvalidKey)
}

// EncodeKey is the keystore form of the key pair.
func EncodeKey(kp *KeyPair) string {
	var secret []byte
	if kp.scheme == SchemeSecp256k1 {
		secret = kp.secp256k1.Serialize()
	} else {
		secret = kp.ed25519.Seed()
	}
	return base64.StdEncoding.EncodeToString(append([]byte{byte(kp.scheme)}, secret...))
}

func (ks *Keystore) add(kp *KeyPair) {
	if _, found := ks.keys[kp.Address()]; !found {
		ks.addresses = append(ks.addresses, kp.Address())
	}
	ks.keys[kp.Address()] = kp
}

func (ks *Keystore) Addresses() []string {
	return slices.Clone(ks.addresses)
}

func (ks *Keystore) HasAccount(address string) bool {
	_, found := ks.keys[NormalizeAddress(address)]
	return found
}

// Signer returns the key for address, or ErrUnknownWallet.
func (ks *Keystore) Signer(address string) (*KeyPair, error) {
	kp, found := ks.keys[NormalizeAddress(address)]
	if !found {
		return nil, fmt.Errorf("%s: %w", address, ErrUnknownWallet)
	}
	return kp, nil
}
