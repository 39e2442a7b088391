package integrity

import (
	"context"
	"strings"
	"testing"

	"github.com/DeBrosOfficial/agentpay/pkg/errors"
	"github.com/DeBrosOfficial/agentpay/pkg/wallet"
)

func echo(ctx context.Context, input []byte) ([]byte, error) {
	return input, nil
}

func TestRegisterAndExecute(t *testing.T) {
	v := NewVerifier(nil, nil)

	record, err := v.Register("echo", "returns its input", echo)
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if record.Checksum == "" {
		t.Error("record has no checksum")
	}

	out, proof, err := v.Execute(context.Background(), "echo", []byte("hello"))
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if string(out) != "hello" {
		t.Errorf("output = %q, want hello", out)
	}
	if proof.Checksum != record.Checksum {
		t.Errorf("proof checksum = %s, want %s", proof.Checksum, record.Checksum)
	}
	if proof.InputHash == "" || proof.OutputHash == "" {
		t.Error("proof is missing payload hashes")
	}
	if proof.Signature != "" {
		t.Error("proof should be unsigned without a wallet")
	}
}

func TestExecuteUnregisteredFunction(t *testing.T) {
	v := NewVerifier(nil, nil)

	_, _, err := v.Execute(context.Background(), "missing", nil)
	if !errors.IsIntegrity(err) {
		t.Fatalf("Execute() error = %v, want integrity error", err)
	}
	if !strings.Contains(err.Error(), "not registered") {
		t.Errorf("error = %v, want unregistered function message", err)
	}
}

func TestExecuteRecoversPanic(t *testing.T) {
	v := NewVerifier(nil, nil)
	if _, err := v.Register("boom", "", func(ctx context.Context, input []byte) ([]byte, error) {
		panic("unexpected state")
	}); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	_, _, err := v.Execute(context.Background(), "boom", nil)
	if !errors.IsIntegrity(err) {
		t.Fatalf("Execute() error = %v, want integrity error", err)
	}
	if !strings.Contains(err.Error(), "execution exception") {
		t.Errorf("error = %v, want execution exception", err)
	}
}

func TestExecuteWrapsFunctionError(t *testing.T) {
	v := NewVerifier(nil, nil)
	if _, err := v.Register("fail", "", func(ctx context.Context, input []byte) ([]byte, error) {
		return nil, context.DeadlineExceeded
	}); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	_, _, err := v.Execute(context.Background(), "fail", nil)
	if !errors.IsIntegrity(err) {
		t.Fatalf("Execute() error = %v, want integrity error", err)
	}
}

func TestRegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	v := NewVerifier(nil, nil)

	if _, err := v.Register("", "", echo); !errors.IsValidation(err) {
		t.Errorf("empty name error = %v, want validation error", err)
	}
	if _, err := v.Register("echo", "", nil); !errors.IsValidation(err) {
		t.Errorf("nil fn error = %v, want validation error", err)
	}

	if _, err := v.Register("echo", "", echo); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if _, err := v.Register("echo", "", echo); !errors.IsValidation(err) {
		t.Errorf("duplicate error = %v, want validation error", err)
	}
}

func TestRegisteredSortedByName(t *testing.T) {
	v := NewVerifier(nil, nil)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if _, err := v.Register(name, "", echo); err != nil {
			t.Fatalf("Register(%s) error: %v", name, err)
		}
	}

	records := v.Registered()
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	for i, want := range []string{"alpha", "mid", "zeta"} {
		if records[i].Name != want {
			t.Errorf("records[%d] = %s, want %s", i, records[i].Name, want)
		}
	}
}

func TestSignedProofRoundTrip(t *testing.T) {
	w, err := wallet.Generate()
	if err != nil {
		t.Fatalf("wallet.Generate() error: %v", err)
	}
	v := NewVerifier(w, nil)
	if _, err := v.Register("echo", "", echo); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	_, proof, err := v.Execute(context.Background(), "echo", []byte("payload"))
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if proof.Signer != w.Address().Hex() {
		t.Errorf("signer = %s, want %s", proof.Signer, w.Address().Hex())
	}
	if !VerifyProof(*proof) {
		t.Error("VerifyProof() = false for a freshly signed proof")
	}

	tampered := *proof
	tampered.OutputHash = strings.Repeat("0", 64)
	if VerifyProof(tampered) {
		t.Error("VerifyProof() = true for a tampered proof")
	}

	unsigned := *proof
	unsigned.Signature = ""
	if VerifyProof(unsigned) {
		t.Error("VerifyProof() = true without a signature")
	}
}
