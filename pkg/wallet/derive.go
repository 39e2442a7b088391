package wallet

import (
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// BIP-32 child derivation over secp256k1, enough to walk the standard
// Ethereum path m/44'/60'/0'/0/i from a BIP-39 seed.

const hardenedOffset = 0x80000000

func hardened(i uint32) uint32 {
	return i + hardenedOffset
}

func deriveKey(seed []byte, path []uint32) (*ecdsa.PrivateKey, error) {
	mac := hmac.New(sha512.New, []byte("Bitcoin seed"))
	mac.Write(seed)
	sum := mac.Sum(nil)

	key := new(big.Int).SetBytes(sum[:32])
	chainCode := sum[32:]
	n := ethcrypto.S256().Params().N

	if key.Sign() == 0 || key.Cmp(n) >= 0 {
		return nil, fmt.Errorf("invalid master key")
	}

	for _, index := range path {
		var data []byte
		if index >= hardenedOffset {
			// Hardened: 0x00 || ser256(key) || ser32(index)
			data = append([]byte{0x00}, pad32(key.Bytes())...)
		} else {
			// Normal: serP(point(key)) || ser32(index)
			priv, err := ethcrypto.ToECDSA(pad32(key.Bytes()))
			if err != nil {
				return nil, err
			}
			data = ethcrypto.CompressPubkey(&priv.PublicKey)
		}
		var idx [4]byte
		binary.BigEndian.PutUint32(idx[:], index)
		data = append(data, idx[:]...)

		mac := hmac.New(sha512.New, chainCode)
		mac.Write(data)
		sum := mac.Sum(nil)

		il := new(big.Int).SetBytes(sum[:32])
		if il.Cmp(n) >= 0 {
			return nil, fmt.Errorf("derived key out of range at index %d", index)
		}

		key = new(big.Int).Mod(new(big.Int).Add(key, il), n)
		if key.Sign() == 0 {
			return nil, fmt.Errorf("derived zero key at index %d", index)
		}
		chainCode = sum[32:]
	}

	return ethcrypto.ToECDSA(pad32(key.Bytes()))
}

func pad32(b []byte) []byte {
	if len(b) >= 32 {
		return b
	}
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}
