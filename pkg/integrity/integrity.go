// Package integrity provides verified execution of registered functions.
// A function is registered once under a name together with a checksum of
// its descriptor; executing an unregistered name or a function that raises
// an execution exception yields an integrity error. Each successful
// execution produces a proof binding the function checksum to hashes of
// the input and output, signed by the agent's wallet when one is present.
package integrity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/agentpay/pkg/errors"
	"github.com/DeBrosOfficial/agentpay/pkg/logging"
	"github.com/DeBrosOfficial/agentpay/pkg/wallet"
)

// Func is an executable registered with the verifier.
type Func func(ctx context.Context, input []byte) ([]byte, error)

// Record describes a registered function.
type Record struct {
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Checksum     string    `json:"checksum"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// Proof attests to one verified execution.
type Proof struct {
	Function   string `json:"function"`
	Checksum   string `json:"checksum"`
	InputHash  string `json:"inputHash"`
	OutputHash string `json:"outputHash"`
	ExecutedAt int64  `json:"executedAt"`
	Signer     string `json:"signer,omitempty"`
	Signature  string `json:"signature,omitempty"`
}

type registration struct {
	fn     Func
	record Record
}

// Verifier holds the registered functions and executes them with
// integrity checks. The wallet may be nil; proofs are then unsigned.
type Verifier struct {
	mu     sync.RWMutex
	funcs  map[string]registration
	wallet *wallet.Wallet
	logger *logging.ColoredLogger
}

// NewVerifier builds an empty verifier.
func NewVerifier(w *wallet.Wallet, logger *logging.ColoredLogger) *Verifier {
	return &Verifier{
		funcs:  make(map[string]registration),
		wallet: w,
		logger: logger,
	}
}

// Register adds a function under a unique name and returns its record.
func (v *Verifier) Register(name, description string, fn Func) (Record, error) {
	if name == "" {
		return Record{}, errors.NewValidationError("name", "function name is required", name)
	}
	if fn == nil {
		return Record{}, errors.NewValidationError("fn", "function is required", name)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if _, exists := v.funcs[name]; exists {
		return Record{}, errors.NewValidationError("name",
			fmt.Sprintf("function %q is already registered", name), name)
	}

	record := Record{
		Name:         name,
		Description:  description,
		Checksum:     hashHex([]byte(name + "\n" + description)),
		RegisteredAt: time.Now(),
	}
	v.funcs[name] = registration{fn: fn, record: record}

	if v.logger != nil {
		v.logger.ComponentDebug(logging.ComponentGeneral, "function registered",
			zap.String("name", name),
			zap.String("checksum", record.Checksum),
		)
	}
	return record, nil
}

// Registered returns the records of all registered functions, sorted by name.
func (v *Verifier) Registered() []Record {
	v.mu.RLock()
	defer v.mu.RUnlock()

	records := make([]Record, 0, len(v.funcs))
	for _, reg := range v.funcs {
		records = append(records, reg.record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	return records
}

// Execute runs a registered function and returns its output together with
// an execution proof. An unregistered name, a returned error, or a panic
// inside the function all surface as integrity errors.
func (v *Verifier) Execute(ctx context.Context, name string, input []byte) (output []byte, proof *Proof, err error) {
	v.mu.RLock()
	reg, ok := v.funcs[name]
	v.mu.RUnlock()
	if !ok {
		return nil, nil, errors.NewIntegrityError(name, "function is not registered", nil)
	}

	defer func() {
		if r := recover(); r != nil {
			output, proof = nil, nil
			err = errors.NewIntegrityError(name, "execution exception", fmt.Errorf("panic: %v", r))
			if v.logger != nil {
				v.logger.ComponentError(logging.ComponentGeneral, "function panicked",
					zap.String("name", name),
					zap.Any("panic", r),
				)
			}
		}
	}()

	output, runErr := reg.fn(ctx, input)
	if runErr != nil {
		return nil, nil, errors.NewIntegrityError(name, "execution exception", runErr)
	}

	p := Proof{
		Function:   name,
		Checksum:   reg.record.Checksum,
		InputHash:  hashHex(input),
		OutputHash: hashHex(output),
		ExecutedAt: time.Now().Unix(),
	}
	if v.wallet != nil {
		sig, sigErr := v.wallet.SignPersonal(proofMessage(p))
		if sigErr != nil {
			return nil, nil, errors.NewIntegrityError(name, "proof signing failed", sigErr)
		}
		p.Signer = v.wallet.Address().Hex()
		p.Signature = "0x" + hex.EncodeToString(sig)
	}
	return output, &p, nil
}

// VerifyProof checks that a signed proof's signature recovers to its
// claimed signer. It returns false on any malformed input.
func VerifyProof(p Proof) bool {
	if p.Signature == "" || p.Signer == "" {
		return false
	}

	sigHex := p.Signature
	if len(sigHex) > 2 && sigHex[:2] == "0x" {
		sigHex = sigHex[2:]
	}
	sig, err := hex.DecodeString(sigHex)
	if err != nil || len(sig) != 65 {
		return false
	}

	signer, err := wallet.RecoverPersonal(proofMessage(p), sig)
	if err != nil {
		return false
	}
	return wallet.SameAddress(signer.Hex(), p.Signer)
}

// proofMessage is the fixed-format text the executing wallet signs.
// It commits to the function checksum and both payload hashes.
func proofMessage(p Proof) []byte {
	return []byte(fmt.Sprintf(
		"agentpay execution proof\nfunction: %s\nchecksum: %s\ninput: %s\noutput: %s\ntimestamp: %d",
		p.Function, p.Checksum, p.InputHash, p.OutputHash, p.ExecutedAt,
	))
}

func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
