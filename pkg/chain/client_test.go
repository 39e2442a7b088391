package chain

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/DeBrosOfficial/agentpay/pkg/networks"
	"github.com/DeBrosOfficial/agentpay/pkg/wallet"
)

// fakeBackend is an in-memory Backend that confirms every sent transaction.
type fakeBackend struct {
	mu       sync.Mutex
	sent     []*types.Transaction
	receipts map[common.Hash]*types.Receipt
	status   uint64
	block    uint64
	logs     []types.Log
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		receipts: make(map[common.Hash]*types.Receipt),
		status:   types.ReceiptStatusSuccessful,
		block:    100,
	}
}

func (f *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return 7, nil
}

func (f *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (f *fakeBackend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	return 21000, nil
}

func (f *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, tx)
	f.receipts[tx.Hash()] = &types.Receipt{
		Status: f.status,
		TxHash: tx.Hash(),
	}
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
	return nil, nil
}

func (f *fakeBackend) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	logs := f.logs
	f.logs = nil
	return logs, nil
}

func (f *fakeBackend) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return big.NewInt(1_000_000), nil
}

func (f *fakeBackend) BlockNumber(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.block, nil
}

func testClient(t *testing.T, backend Backend) *Client {
	t.Helper()
	w, err := wallet.Generate()
	if err != nil {
		t.Fatalf("wallet.Generate() error: %v", err)
	}
	network, err := networks.Lookup("base-sepolia")
	if err != nil {
		t.Fatalf("networks.Lookup() error: %v", err)
	}
	return NewClient(backend, network, w, Options{ReceiptPollInterval: 5 * time.Millisecond}, nil)
}

func TestTransactConfirms(t *testing.T) {
	backend := newFakeBackend()
	client := testClient(t, backend)

	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	receipt, err := client.Transact(context.Background(), to, big.NewInt(1000), nil)
	if err != nil {
		t.Fatalf("Transact() error: %v", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		t.Errorf("receipt status = %d, want success", receipt.Status)
	}
	if len(backend.sent) != 1 {
		t.Fatalf("sent %d transactions, want 1", len(backend.sent))
	}

	tx := backend.sent[0]
	if tx.Nonce() != 7 {
		t.Errorf("nonce = %d, want 7", tx.Nonce())
	}
	if tx.Value().Cmp(big.NewInt(1000)) != 0 {
		t.Errorf("value = %s, want 1000", tx.Value())
	}
	if *tx.To() != to {
		t.Errorf("to = %s, want %s", tx.To().Hex(), to.Hex())
	}
}

func TestTransactRevertedReceipt(t *testing.T) {
	backend := newFakeBackend()
	backend.status = types.ReceiptStatusFailed
	client := testClient(t, backend)

	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	_, err := client.Transact(context.Background(), to, nil, nil)
	if err == nil {
		t.Fatal("expected error for reverted transaction")
	}
}

func TestTransactWithoutSigner(t *testing.T) {
	network, _ := networks.Lookup("base-sepolia")
	client := NewClient(newFakeBackend(), network, nil, Options{}, nil)

	_, err := client.Transact(context.Background(), common.Address{}, nil, nil)
	if err == nil {
		t.Fatal("expected error for write without signer")
	}
}

func TestWaitMinedCancellation(t *testing.T) {
	backend := newFakeBackend()
	client := testClient(t, backend)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	// Receipt never appears for this hash.
	_, err := client.WaitMined(ctx, common.HexToHash("0xdead"))
	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestSubscribeLogsDeliversAndCancels(t *testing.T) {
	backend := newFakeBackend()
	client := testClient(t, backend)

	sub, err := client.SubscribeLogs(context.Background(), ethereum.FilterQuery{}, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("SubscribeLogs() error: %v", err)
	}

	backend.mu.Lock()
	backend.block = 105
	backend.logs = []types.Log{{BlockNumber: 101}}
	backend.mu.Unlock()

	select {
	case lg := <-sub.Logs():
		if lg.BlockNumber != 101 {
			t.Errorf("log block = %d, want 101", lg.BlockNumber)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for log delivery")
	}

	sub.Unsubscribe()
	select {
	case _, open := <-sub.Logs():
		if open {
			// Drain residual buffered log and re-check closure.
			if _, open := <-sub.Logs(); open {
				t.Error("channel still open after Unsubscribe")
			}
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after Unsubscribe")
	}
}

type closableBackend struct {
	*fakeBackend
	closed bool
}

func (c *closableBackend) Close() { c.closed = true }

func TestCloseReleasesBackend(t *testing.T) {
	backend := &closableBackend{fakeBackend: newFakeBackend()}
	client := testClient(t, backend)

	client.Close()
	if !backend.closed {
		t.Error("Close() did not release the backend connection")
	}

	// Backends without a Close method are a no-op.
	testClient(t, newFakeBackend()).Close()
}
