package signing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/waxio/cloudwallet-go/pkg/session"
	"github.com/waxio/cloudwallet-go/pkg/testutil"
	"github.com/waxio/cloudwallet-go/pkg/types"
)

func newTestAssembler(t *testing.T, mgr *session.Manager, co *testutil.MockCosigner, endpoint *testutil.MockEndpoint) *Assembler {
	t.Helper()
	router := newTestRouter(t, endpoint, testutil.NewMockBridge(), mgr)

	cfg := &AssemblerConfig{
		Router:  router,
		Session: mgr,
		Logger:  zaptest.NewLogger(t),
	}
	if co != nil {
		cfg.Cosigner = co
		cfg.ChainID = make([]byte, 32)
	}
	a, err := NewAssembler(cfg)
	require.NoError(t, err)
	return a
}

func TestNewAssembler_RequiresChainIDWithCosigner(t *testing.T) {
	mgr := session.NewManager()
	router := newTestRouter(t, &testutil.MockEndpoint{}, testutil.NewMockBridge(), mgr)

	_, err := NewAssembler(&AssemblerConfig{
		Router:   router,
		Session:  mgr,
		Cosigner: &testutil.MockCosigner{},
		Logger:   zaptest.NewLogger(t),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chain ID is required")
}

func TestAvailableKeys_CombinesSessionAndCosignerKeys(t *testing.T) {
	mgr := session.NewManager()
	mgr.SetIdentity("alice", []string{"PUB_K1_a"})
	co := &testutil.MockCosigner{Keys: []string{"PUB_K1_co"}}
	a := newTestAssembler(t, mgr, co, &testutil.MockEndpoint{})

	keys := a.AvailableKeys(context.Background())
	assert.Equal(t, []string{"PUB_K1_a", "PUB_K1_co"}, keys)
}

func TestAvailableKeys_CosignerFailureOmitsItsKeys(t *testing.T) {
	mgr := session.NewManager()
	mgr.SetIdentity("alice", []string{"PUB_K1_a"})
	co := &testutil.MockCosigner{KeysErr: errors.New("kms unreachable")}
	a := newTestAssembler(t, mgr, co, &testutil.MockEndpoint{})

	keys := a.AvailableKeys(context.Background())
	assert.Equal(t, []string{"PUB_K1_a"}, keys)
}

func TestAssemblerSign_WalletPaysWithoutCosigner(t *testing.T) {
	endpoint := &testutil.MockEndpoint{
		SignResponse: &types.SigningResponse{
			Verified:              true,
			Signatures:            []string{"SIG_WALLET"},
			SerializedTransaction: types.ByteSequence{9},
		},
	}
	a := newTestAssembler(t, session.NewManager(), nil, endpoint)

	tx := types.Transaction{Serialized: types.ByteSequence{1}}
	result, err := a.Sign(context.Background(), tx, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"SIG_WALLET"}, result.Signatures)
}

func TestAssemblerSign_AppendsCosignerSignatures(t *testing.T) {
	endpoint := &testutil.MockEndpoint{
		SignResponse: &types.SigningResponse{
			Verified:              true,
			Signatures:            []string{"SIG_WALLET"},
			SerializedTransaction: types.ByteSequence{7, 7},
		},
	}
	co := &testutil.MockCosigner{Signatures: []string{"SIG_CO"}}
	a := newTestAssembler(t, session.NewManager(), co, endpoint)

	tx := types.Transaction{Serialized: types.ByteSequence{1}}
	result, err := a.Sign(context.Background(), tx, true)
	require.NoError(t, err)

	// Wallet signatures first, co-signer's appended.
	assert.Equal(t, []string{"SIG_WALLET", "SIG_CO"}, result.Signatures)

	// The co-signer saw the wallet-signed serialized form, not the input.
	signed := co.SignedTransactions()
	require.Len(t, signed, 1)
	assert.Equal(t, []byte{7, 7}, signed[0])
}

func TestAssemblerSign_InputTransactionNeverMutated(t *testing.T) {
	endpoint := &testutil.MockEndpoint{
		SignResponse: &types.SigningResponse{
			Verified:              true,
			Signatures:            []string{"SIG_WALLET"},
			SerializedTransaction: types.ByteSequence{7, 7},
		},
	}
	co := &testutil.MockCosigner{Signatures: []string{"SIG_CO"}}
	a := newTestAssembler(t, session.NewManager(), co, endpoint)

	tx := types.Transaction{Serialized: types.ByteSequence{1, 2}}
	_, err := a.Sign(context.Background(), tx, true)
	require.NoError(t, err)
	assert.Equal(t, types.ByteSequence{1, 2}, tx.Serialized)
	assert.Nil(t, tx.Actions)
}

func TestAssemblerSign_CosignerFailureFailsTheRequest(t *testing.T) {
	endpoint := &testutil.MockEndpoint{
		SignResponse: &types.SigningResponse{
			Verified:              true,
			Signatures:            []string{"SIG_WALLET"},
			SerializedTransaction: types.ByteSequence{7},
		},
	}
	co := &testutil.MockCosigner{SignErr: errors.New("kms unreachable")}
	a := newTestAssembler(t, session.NewManager(), co, endpoint)

	_, err := a.Sign(context.Background(), types.Transaction{Serialized: types.ByteSequence{1}}, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "co-signing failed")
}

func TestAssemblerSign_BandwidthFlagTracksCosignerPresence(t *testing.T) {
	// Without a co-signer the wallet covers bandwidth; with one it doesn't.
	// The flag reaches the prompt posted into the confirmation window.
	for _, withCosigner := range []bool{false, true} {
		window := testutil.NewMockWindow(signedMessage(true, []string{"SIG"}, nil))
		mockBridge := testutil.NewMockBridge(window)
		mgr := session.NewManager()
		router := newTestRouter(t, &testutil.MockEndpoint{}, mockBridge, mgr)
		cfg := &AssemblerConfig{Router: router, Session: mgr, Logger: zaptest.NewLogger(t)}
		if withCosigner {
			cfg.Cosigner = &testutil.MockCosigner{Signatures: []string{"SIG_CO"}}
			cfg.ChainID = make([]byte, 32)
		}
		a, err := NewAssembler(cfg)
		require.NoError(t, err)

		_, err = a.Sign(context.Background(), types.Transaction{Serialized: types.ByteSequence{1}}, false)
		require.NoError(t, err)

		posted := window.Posted()
		require.NotEmpty(t, posted)
		prompt := posted[0].(*types.TransactionPrompt)
		assert.Equal(t, !withCosigner, prompt.WaxPaysBandwidth)
	}
}
