package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Environment variables recognized as overrides. Values set in the config
// file win only when the variable is unset.
const (
	EnvPrivateKey  = "AGENTPAY_PRIVATE_KEY"
	EnvMnemonic    = "AGENTPAY_MNEMONIC"
	EnvRPCURL      = "AGENTPAY_RPC_URL"
	EnvNetwork     = "AGENTPAY_NETWORK"
	EnvTokenSecret = "AGENTPAY_TOKEN_SECRET"

	EnvIPFSAPIURL    = "IPFS_API_URL"
	EnvPinataJWT     = "PINATA_JWT"
	EnvIrysNodeURL   = "IRYS_NODE_URL"
	EnvIrysToken     = "IRYS_TOKEN"
	EnvFilebaseToken = "FILEBASE_TOKEN"
)

// LoadEnvFile loads a .env file into the process environment. A missing
// file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// ApplyEnv overlays environment variables onto the config. Credentials are
// typically supplied this way rather than committed to a config file.
func (c *Config) ApplyEnv() {
	setIfEnv(&c.Wallet.PrivateKey, EnvPrivateKey)
	setIfEnv(&c.Wallet.Mnemonic, EnvMnemonic)
	setIfEnv(&c.Network.RPCURL, EnvRPCURL)
	setIfEnv(&c.Network.Name, EnvNetwork)
	setIfEnv(&c.Payments.TokenSecret, EnvTokenSecret)

	setIfEnv(&c.Storage.Backends.IPFS.APIURL, EnvIPFSAPIURL)
	setIfEnv(&c.Storage.Backends.Pinata.JWT, EnvPinataJWT)
	setIfEnv(&c.Storage.Backends.Irys.NodeURL, EnvIrysNodeURL)
	setIfEnv(&c.Storage.Backends.Irys.Token, EnvIrysToken)
	setIfEnv(&c.Storage.Backends.Filebase.Token, EnvFilebaseToken)
}

func setIfEnv(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
