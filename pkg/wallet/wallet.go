// Package wallet wraps a secp256k1 key and provides message and
// transaction signing for the agent.
package wallet

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"
)

// Wallet holds a private key and signs on behalf of the agent.
type Wallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewFromPrivateKey builds a wallet from a hex-encoded private key,
// with or without a 0x prefix.
func NewFromPrivateKey(privateKeyHex string) (*Wallet, error) {
	keyHex := strings.TrimSpace(privateKeyHex)
	keyHex = strings.TrimPrefix(keyHex, "0x")
	keyHex = strings.TrimPrefix(keyHex, "0X")

	key, err := ethcrypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return fromKey(key), nil
}

// NewFromMnemonic builds a wallet from a BIP-39 mnemonic, deriving the
// account at m/44'/60'/0'/0/<index>.
func NewFromMnemonic(mnemonic string, index uint32) (*Wallet, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic")
	}

	seed := bip39.NewSeed(mnemonic, "")
	key, err := deriveKey(seed, []uint32{
		hardened(44), hardened(60), hardened(0), 0, index,
	})
	if err != nil {
		return nil, fmt.Errorf("key derivation failed: %w", err)
	}

	return fromKey(key), nil
}

// NewFromKeystoreFile builds a wallet from a go-ethereum keystore JSON file.
func NewFromKeystoreFile(path, passphrase string) (*Wallet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet file: %w", err)
	}

	key, err := keystore.DecryptKey(data, passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt wallet file: %w", err)
	}

	return fromKey(key.PrivateKey), nil
}

// Generate creates a wallet with a fresh random key.
func Generate() (*Wallet, error) {
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return fromKey(key), nil
}

func fromKey(key *ecdsa.PrivateKey) *Wallet {
	return &Wallet{
		key:     key,
		address: ethcrypto.PubkeyToAddress(key.PublicKey),
	}
}

// Address returns the wallet's address.
func (w *Wallet) Address() common.Address {
	return w.address
}

// PrivateKeyHex returns the hex-encoded private key without the 0x prefix.
func (w *Wallet) PrivateKeyHex() string {
	return hex.EncodeToString(ethcrypto.FromECDSA(w.key))
}

// SignPersonal signs a message with the EIP-191 personal-message prefix.
// The returned 65-byte signature uses V in {27, 28}.
func (w *Wallet) SignPersonal(message []byte) ([]byte, error) {
	hash := PersonalHash(message)
	sig, err := ethcrypto.Sign(hash, w.key)
	if err != nil {
		return nil, fmt.Errorf("signing failed: %w", err)
	}
	sig[64] += 27
	return sig, nil
}

// SignHash signs a raw 32-byte digest without any prefixing.
// The returned 65-byte signature uses V in {27, 28}.
func (w *Wallet) SignHash(hash []byte) ([]byte, error) {
	if len(hash) != 32 {
		return nil, fmt.Errorf("hash must be 32 bytes, got %d", len(hash))
	}
	sig, err := ethcrypto.Sign(hash, w.key)
	if err != nil {
		return nil, fmt.Errorf("signing failed: %w", err)
	}
	sig[64] += 27
	return sig, nil
}

// SignTx signs a transaction for the given chain ID using EIP-155.
func (w *Wallet) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signer := types.LatestSignerForChainID(chainID)
	signed, err := types.SignTx(tx, signer, w.key)
	if err != nil {
		return nil, fmt.Errorf("transaction signing failed: %w", err)
	}
	return signed, nil
}

// PersonalHash returns the EIP-191 personal-message digest of a message.
func PersonalHash(message []byte) []byte {
	prefix := []byte("\x19Ethereum Signed Message:\n" + strconv.Itoa(len(message)))
	return ethcrypto.Keccak256(prefix, message)
}

// RecoverPersonal recovers the signer address from an EIP-191
// personal-message signature. V may be 0/1 or 27/28.
func RecoverPersonal(message, sig []byte) (common.Address, error) {
	if len(sig) != 65 {
		return common.Address{}, fmt.Errorf("signature must be 65 bytes, got %d", len(sig))
	}

	norm := make([]byte, 65)
	copy(norm, sig)
	if norm[64] >= 27 {
		norm[64] -= 27
	}

	pub, err := ethcrypto.SigToPub(PersonalHash(message), norm)
	if err != nil {
		return common.Address{}, fmt.Errorf("signature recovery failed: %w", err)
	}

	return ethcrypto.PubkeyToAddress(*pub), nil
}

// SameAddress compares two addresses case-insensitively.
func SameAddress(a, b string) bool {
	trim := func(s string) string {
		s = strings.TrimPrefix(s, "0x")
		s = strings.TrimPrefix(s, "0X")
		return strings.ToLower(s)
	}
	return trim(a) == trim(b)
}
