package registry

import (
	"bytes"
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/DeBrosOfficial/agentpay/pkg/chain"
	"github.com/DeBrosOfficial/agentpay/pkg/networks"
	"github.com/DeBrosOfficial/agentpay/pkg/wallet"
)

// fakeBackend confirms transactions immediately, attaching the logs queued
// via queueLogs to the next receipt. View calls answer from callReturn.
type fakeBackend struct {
	mu         sync.Mutex
	sent       []*types.Transaction
	receipts   map[common.Hash]*types.Receipt
	pendingLog []*types.Log
	callReturn []byte
	callData   [][]byte
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{receipts: make(map[common.Hash]*types.Receipt)}
}

func (f *fakeBackend) queueLogs(logs ...*types.Log) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pendingLog = logs
}

func (f *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint64(len(f.sent)), nil
}

func (f *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (f *fakeBackend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	return 120_000, nil
}

func (f *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, tx)
	f.receipts[tx.Hash()] = &types.Receipt{
		Status: types.ReceiptStatusSuccessful,
		TxHash: tx.Hash(),
		Logs:   f.pendingLog,
	}
	f.pendingLog = nil
	return nil
}

func (f *fakeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.receipts[txHash]; ok {
		return r, nil
	}
	return nil, ethereum.NotFound
}

func (f *fakeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callData = append(f.callData, call.Data)
	return f.callReturn, nil
}

func (f *fakeBackend) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

func (f *fakeBackend) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (f *fakeBackend) BlockNumber(ctx context.Context) (uint64, error) {
	return 100, nil
}

func testChain(t *testing.T, backend chain.Backend) (*chain.Client, *wallet.Wallet) {
	t.Helper()
	w, err := wallet.Generate()
	if err != nil {
		t.Fatalf("wallet.Generate() error: %v", err)
	}
	network, err := networks.Lookup("base-sepolia")
	if err != nil {
		t.Fatalf("networks.Lookup() error: %v", err)
	}
	return chain.NewClient(backend, network, w, chain.Options{ReceiptPollInterval: 5 * time.Millisecond}, nil), w
}

func TestFeedbackAuthEncoding(t *testing.T) {
	auth := FeedbackAuth{
		AgentID:       big.NewInt(42),
		Client:        common.HexToAddress("0x1111111111111111111111111111111111111111"),
		IndexLimit:    5,
		Expiry:        0x0102030405060708,
		ChainID:       big.NewInt(84532),
		Registry:      common.HexToAddress("0x2222222222222222222222222222222222222222"),
		SignerAddress: common.HexToAddress("0x3333333333333333333333333333333333333333"),
	}

	encoded := auth.Encode()
	if len(encoded) != authStructLen {
		t.Fatalf("encoded length = %d, want %d", len(encoded), authStructLen)
	}

	if !bytes.Equal(encoded[:32], common.LeftPadBytes(big.NewInt(42).Bytes(), 32)) {
		t.Error("agent id not big-endian padded in bytes [0:32]")
	}
	if !bytes.Equal(encoded[32:52], auth.Client.Bytes()) {
		t.Error("client address not at bytes [32:52]")
	}
	wantLimit := []byte{0, 0, 0, 0, 0, 0, 0, 5}
	if !bytes.Equal(encoded[52:60], wantLimit) {
		t.Errorf("index limit bytes = %x, want %x", encoded[52:60], wantLimit)
	}
	wantExpiry := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if !bytes.Equal(encoded[60:68], wantExpiry) {
		t.Errorf("expiry bytes = %x, want %x", encoded[60:68], wantExpiry)
	}
	if !bytes.Equal(encoded[68:100], common.LeftPadBytes(big.NewInt(84532).Bytes(), 32)) {
		t.Error("chain id not big-endian padded in bytes [68:100]")
	}
	if !bytes.Equal(encoded[100:120], auth.Registry.Bytes()) {
		t.Error("registry address not at bytes [100:120]")
	}
	if !bytes.Equal(encoded[120:140], auth.SignerAddress.Bytes()) {
		t.Error("signer address not at bytes [120:140]")
	}
}

func TestSignFeedbackAuth(t *testing.T) {
	w, err := wallet.Generate()
	if err != nil {
		t.Fatalf("wallet.Generate() error: %v", err)
	}

	auth := FeedbackAuth{
		AgentID:       big.NewInt(7),
		Client:        common.HexToAddress("0x1111111111111111111111111111111111111111"),
		IndexLimit:    1,
		Expiry:        uint64(time.Now().Add(time.Hour).Unix()),
		ChainID:       big.NewInt(84532),
		Registry:      common.HexToAddress("0x2222222222222222222222222222222222222222"),
		SignerAddress: w.Address(),
	}

	blob, err := SignFeedbackAuth(w, auth)
	if err != nil {
		t.Fatalf("SignFeedbackAuth() error: %v", err)
	}
	if len(blob) != authBlobLen {
		t.Fatalf("blob length = %d, want %d", len(blob), authBlobLen)
	}
	if !bytes.Equal(blob[:authStructLen], auth.Encode()) {
		t.Error("blob does not start with the encoded struct")
	}

	// The trailing 65 bytes recover to the signer over the struct hash.
	hash := ethcrypto.Keccak256(auth.Encode())
	recovered, err := wallet.RecoverPersonal(hash, blob[authStructLen:])
	if err != nil {
		t.Fatalf("RecoverPersonal() error: %v", err)
	}
	if recovered != w.Address() {
		t.Errorf("recovered %s, want %s", recovered.Hex(), w.Address().Hex())
	}

	// A wallet that is not the named signer is refused.
	other, _ := wallet.Generate()
	if _, err := SignFeedbackAuth(other, auth); err == nil {
		t.Error("SignFeedbackAuth() accepted a wallet that is not the named signer")
	}
}

func TestIdentityRegisterParsesEvent(t *testing.T) {
	backend := newFakeBackend()
	chainClient, w := testChain(t, backend)

	client, err := NewIdentityClient(chainClient, nil)
	if err != nil {
		t.Fatalf("NewIdentityClient() error: %v", err)
	}

	backend.queueLogs(&types.Log{
		Address: client.Address(),
		Topics: []common.Hash{
			client.abi.Events["Registered"].ID,
			common.BigToHash(big.NewInt(42)),
			common.BytesToHash(w.Address().Bytes()),
		},
	})

	identity, err := client.Register(context.Background(), "ipfs://bafyagent")
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if identity.AgentID.Cmp(big.NewInt(42)) != 0 {
		t.Errorf("agent id = %s, want 42", identity.AgentID)
	}
	if identity.Owner != w.Address().Hex() {
		t.Errorf("owner = %s, want %s", identity.Owner, w.Address().Hex())
	}
	if identity.MetadataURI != "ipfs://bafyagent" {
		t.Errorf("metadata URI = %s", identity.MetadataURI)
	}
}

func TestIdentityRegisterMissingEvent(t *testing.T) {
	backend := newFakeBackend()
	chainClient, _ := testChain(t, backend)

	client, err := NewIdentityClient(chainClient, nil)
	if err != nil {
		t.Fatalf("NewIdentityClient() error: %v", err)
	}

	if _, err := client.Register(context.Background(), "ipfs://bafyagent"); err == nil {
		t.Error("Register() should fail when the receipt carries no Registered event")
	}
}

func TestIdentityViews(t *testing.T) {
	backend := newFakeBackend()
	chainClient, _ := testChain(t, backend)

	client, err := NewIdentityClient(chainClient, nil)
	if err != nil {
		t.Fatalf("NewIdentityClient() error: %v", err)
	}

	out, err := client.abi.Methods["getMetadata"].Outputs.Pack("ipfs://bafymeta")
	if err != nil {
		t.Fatalf("Pack() error: %v", err)
	}
	backend.callReturn = out

	uri, err := client.GetMetadata(context.Background(), big.NewInt(1))
	if err != nil {
		t.Fatalf("GetMetadata() error: %v", err)
	}
	if uri != "ipfs://bafymeta" {
		t.Errorf("metadata = %s, want ipfs://bafymeta", uri)
	}

	owner := common.HexToAddress("0x4444444444444444444444444444444444444444")
	out, err = client.abi.Methods["ownerOf"].Outputs.Pack(owner)
	if err != nil {
		t.Fatalf("Pack() error: %v", err)
	}
	backend.callReturn = out

	got, err := client.OwnerOf(context.Background(), big.NewInt(1))
	if err != nil {
		t.Fatalf("OwnerOf() error: %v", err)
	}
	if got != owner {
		t.Errorf("owner = %s, want %s", got.Hex(), owner.Hex())
	}
}

func TestGiveFeedback(t *testing.T) {
	backend := newFakeBackend()
	chainClient, w := testChain(t, backend)

	client, err := NewReputationClient(chainClient, nil)
	if err != nil {
		t.Fatalf("NewReputationClient() error: %v", err)
	}

	auth := client.NewAuth(big.NewInt(42), w.Address(), 1, time.Hour, w.Address())
	blob, err := SignFeedbackAuth(w, auth)
	if err != nil {
		t.Fatalf("SignFeedbackAuth() error: %v", err)
	}

	event := client.abi.Events["NewFeedback"]
	data, err := event.Inputs.NonIndexed().Pack(uint8(95), uint64(3))
	if err != nil {
		t.Fatalf("Pack() error: %v", err)
	}
	backend.queueLogs(&types.Log{
		Address: client.Address(),
		Topics: []common.Hash{
			event.ID,
			common.BigToHash(big.NewInt(42)),
			common.BytesToHash(w.Address().Bytes()),
		},
		Data: data,
	})

	index, err := client.GiveFeedback(context.Background(), big.NewInt(42), 95, "ipfs://bafyreview", blob)
	if err != nil {
		t.Fatalf("GiveFeedback() error: %v", err)
	}
	if index != 3 {
		t.Errorf("index = %d, want 3", index)
	}
}

func TestGiveFeedbackRejectsBadInput(t *testing.T) {
	backend := newFakeBackend()
	chainClient, _ := testChain(t, backend)

	client, err := NewReputationClient(chainClient, nil)
	if err != nil {
		t.Fatalf("NewReputationClient() error: %v", err)
	}

	blob := make([]byte, authBlobLen)
	if _, err := client.GiveFeedback(context.Background(), big.NewInt(1), 101, "", blob); err == nil {
		t.Error("GiveFeedback() accepted a score above 100")
	}
	if _, err := client.GiveFeedback(context.Background(), big.NewInt(1), 50, "", blob[:10]); err == nil {
		t.Error("GiveFeedback() accepted a truncated authorization blob")
	}
}

func TestReadFeedbackAndSummary(t *testing.T) {
	backend := newFakeBackend()
	chainClient, w := testChain(t, backend)

	client, err := NewReputationClient(chainClient, nil)
	if err != nil {
		t.Fatalf("NewReputationClient() error: %v", err)
	}

	out, err := client.abi.Methods["readFeedback"].Outputs.Pack(uint8(88), "ipfs://bafyreview", false)
	if err != nil {
		t.Fatalf("Pack() error: %v", err)
	}
	backend.callReturn = out

	fb, err := client.ReadFeedback(context.Background(), big.NewInt(42), w.Address(), 0)
	if err != nil {
		t.Fatalf("ReadFeedback() error: %v", err)
	}
	if fb.Score != 88 || fb.URI != "ipfs://bafyreview" || fb.Revoked {
		t.Errorf("feedback = %+v", fb)
	}

	out, err = client.abi.Methods["getSummary"].Outputs.Pack(uint64(12), uint8(91))
	if err != nil {
		t.Fatalf("Pack() error: %v", err)
	}
	backend.callReturn = out

	sum, err := client.GetSummary(context.Background(), big.NewInt(42))
	if err != nil {
		t.Fatalf("GetSummary() error: %v", err)
	}
	if sum.Count != 12 || sum.AverageScore != 91 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestValidationFlow(t *testing.T) {
	backend := newFakeBackend()
	chainClient, _ := testChain(t, backend)

	client, err := NewValidationClient(chainClient, nil)
	if err != nil {
		t.Fatalf("NewValidationClient() error: %v", err)
	}

	var requestHash [32]byte
	copy(requestHash[:], ethcrypto.Keccak256([]byte("work artifact")))

	validator := common.HexToAddress("0x5555555555555555555555555555555555555555")
	if err := client.Request(context.Background(), validator, big.NewInt(42), "ipfs://bafyrequest", requestHash); err != nil {
		t.Fatalf("Request() error: %v", err)
	}
	if err := client.Respond(context.Background(), requestHash, 100, "ipfs://bafyresponse"); err != nil {
		t.Fatalf("Respond() error: %v", err)
	}
	if err := client.Respond(context.Background(), requestHash, 101, ""); err == nil {
		t.Error("Respond() accepted a response above 100")
	}

	out, err := client.abi.Methods["getValidationStatus"].Outputs.Pack(validator, big.NewInt(42), uint8(100), true)
	if err != nil {
		t.Fatalf("Pack() error: %v", err)
	}
	backend.callReturn = out

	status, err := client.Status(context.Background(), requestHash)
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if status.Validator != validator.Hex() || !status.Responded || status.Response != 100 {
		t.Errorf("status = %+v", status)
	}
	if status.AgentID.Cmp(big.NewInt(42)) != 0 {
		t.Errorf("agent id = %s, want 42", status.AgentID)
	}

	// Both writes went to the validation registry.
	if len(backend.sent) != 2 {
		t.Fatalf("sent %d transactions, want 2", len(backend.sent))
	}
	for i, tx := range backend.sent {
		if *tx.To() != client.Address() {
			t.Errorf("tx %d to = %s, want %s", i, tx.To().Hex(), client.Address().Hex())
		}
	}
}