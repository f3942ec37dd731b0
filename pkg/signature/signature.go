// Package signature provides secp256k1 signing and verification over the
// canonical message strings used throughout the contract coordination
// protocol. It is a thin wrapper around go-ethereum/crypto, the same
// secp256k1 primitive the teacher's pkg/ethereum package used for key
// generation and recovery.
package signature

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// KeyPair is a secp256k1 public/private key pair, hex-encoded.
type KeyPair struct {
	PubKey     string `json:"pubKey"`
	PrivateKey string `json:"privateKey"`
}

// GenerateKeyPair mints a new random secp256k1 keypair.
func GenerateKeyPair() (KeyPair, error) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		return KeyPair{}, fmt.Errorf("generate key: %w", err)
	}
	return KeyPair{
		PubKey:     pubKeyHex(priv),
		PrivateKey: hex.EncodeToString(crypto.FromECDSA(priv)),
	}, nil
}

func pubKeyHex(priv *ecdsa.PrivateKey) string {
	return hex.EncodeToString(crypto.FromECDSAPub(&priv.PublicKey))
}

// Sign signs message with privateKeyHex and returns the signature hex-encoded.
// message is hashed with Keccak256 before signing, matching the teacher's own
// use of crypto.Sign throughout pkg/ethereum.
func Sign(message string, privateKeyHex string) (string, error) {
	priv, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return "", fmt.Errorf("parse private key: %w", err)
	}
	digest := crypto.Keccak256([]byte(message))
	sig, err := crypto.Sign(digest, priv)
	if err != nil {
		return "", fmt.Errorf("sign message: %w", err)
	}
	return hex.EncodeToString(sig), nil
}

// Verify reports whether signatureHex is a valid secp256k1 signature over
// message under publicKeyHex. It never returns an error: malformed inputs
// simply fail to verify, matching the protocol's "verify never throws"
// requirement.
func Verify(signatureHex, message, publicKeyHex string) bool {
	sigBytes, err := hex.DecodeString(strings.TrimPrefix(signatureHex, "0x"))
	if err != nil {
		return false
	}
	pubBytes, err := hex.DecodeString(strings.TrimPrefix(publicKeyHex, "0x"))
	if err != nil {
		return false
	}

	digest := crypto.Keccak256([]byte(message))

	// crypto.Sign returns a 65-byte [R || S || V] signature; recovery
	// signatures need the trailing V stripped for SigToPub, but
	// VerifySignature wants exactly 64 bytes (no V).
	sig := sigBytes
	if len(sig) == 65 {
		sig = sig[:64]
	}
	if len(sig) != 64 {
		return false
	}

	return crypto.VerifySignature(pubBytes, digest, sig)
}
