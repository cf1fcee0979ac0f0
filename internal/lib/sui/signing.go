package sui

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/ed25519"
)

// SignatureScheme is the flag byte prefixing keys, signatures and address derivation.
type SignatureScheme byte

const (
	SchemeEd25519   SignatureScheme = 0x00
	SchemeSecp256k1 SignatureScheme = 0x01
)

func (s SignatureScheme) String() string {
	switch s {
	case SchemeEd25519:
		return "ed25519"
	case SchemeSecp256k1:
		return "secp256k1"
	}
	return fmt.Sprintf("unknown(%d)", byte(s))
}

// transaction data intent: scope TransactionData, version V0, app id Sui
var transactionIntent = []byte{0, 0, 0}

// Signer signs transactions on behalf of a single address.
type Signer interface {
	Address() string
	// SignTransaction returns the serialized (base64) signature of the BCS TransactionData.
	SignTransaction(txBytes []byte) (string, error)
}

// KeyPair is a private key loaded from a keystore.
type KeyPair struct {
	scheme    SignatureScheme
	ed25519   ed25519.PrivateKey
	secp256k1 *secp256k1.PrivateKey
	address   string
}

func NewEd25519KeyPair(seed []byte) (*KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("ed25519 seed length %d: %w", len(seed), ErrInvalidKey)
	}
	kp := &KeyPair{scheme: SchemeEd25519, ed25519: ed25519.NewKeyFromSeed(seed)}
	kp.address = DeriveAddress(kp.scheme, kp.PublicKey())
	return kp, nil
}

func NewSecp256k1KeyPair(raw []byte) (*KeyPair, error) {
	if len(raw) != secp256k1.PrivKeyBytesLen {
		return nil, fmt.Errorf("secp256k1 key length %d: %w", len(raw), ErrInvalidKey)
	}
	kp := &KeyPair{scheme: SchemeSecp256k1, secp256k1: secp256k1.PrivKeyFromBytes(raw)}
	kp.address = DeriveAddress(kp.scheme, kp.PublicKey())
	return kp, nil
}

func (kp *KeyPair) Scheme() SignatureScheme { return kp.scheme }
func (kp *KeyPair) Address() string         { return kp.address }

func (kp *KeyPair) PublicKey() []byte {
	if kp.scheme == SchemeSecp256k1 {
		return kp.secp256k1.PubKey().SerializeCompressed()
	}
	return kp.ed25519.Public().(ed25519.PublicKey)
}

// Sign signs the (already hashed) message digest.
func (kp *KeyPair) Sign(digest []byte) []byte {
	if kp.scheme == SchemeSecp256k1 {
		hash := sha256.Sum256(digest)
		// compact signatures carry a leading recovery byte we don't send
		return secpecdsa.SignCompact(kp.secp256k1, hash[:], true)[1:]
	}
	return ed25519.Sign(kp.ed25519, digest)
}

func (kp *KeyPair) SignTransaction(txBytes []byte) (string, error) {
	digest := TransactionDigest(txBytes)
	sig := kp.Sign(digest[:])
	serialized := make([]byte, 0, 1+len(sig)+len(kp.PublicKey()))
	serialized = append(serialized, byte(kp.scheme))
	serialized = append(serialized, sig...)
	serialized = append(serialized, kp.PublicKey()...)
	return base64.StdEncoding.EncodeToString(serialized), nil
}

// TransactionDigest is the blake2b-256 hash of the intent prefixed transaction data - the
// message actually signed.
func TransactionDigest(txBytes []byte) [32]byte {
	msg := make([]byte, 0, len(transactionIntent)+len(txBytes))
	msg = append(msg, transactionIntent...)
	msg = append(msg, txBytes...)
	return blake2b.Sum256(msg)
}

// DeriveAddress returns the sui address for the given public key: blake2b-256(flag || pubkey).
func DeriveAddress(scheme SignatureScheme, publicKey []byte) string {
	data := make([]byte, 0, 1+len(publicKey))
	data = append(data, byte(scheme))
	data = append(data, publicKey...)
	hash := blake2b.Sum256(data)
	return Address(hash).String()
}
