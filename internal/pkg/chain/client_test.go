package chain

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kollektive-hackathon/arbiter-agent/internal/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		ChainId:      10143,
		RpcUrl:       "http://127.0.0.1:8545",
		ArenaAddress: common.HexToAddress("0xA658Fa34515794c1C38D5Beb7D412E11d50A141C"),
	}
}

func TestReadHandleRequiresTransport(t *testing.T) {
	r := NewResolver()

	_, err := r.ReadHandle(&config.Config{})
	assert.ErrorIs(t, err, ErrHandleUnavailable)

	_, err = r.ReadHandle(nil)
	assert.ErrorIs(t, err, ErrHandleUnavailable)
}

func TestReadHandleCachedByNetworkIdentity(t *testing.T) {
	r := NewResolver()

	first, err := r.ReadHandle(testConfig())
	require.NoError(t, err)

	second, err := r.ReadHandle(testConfig())
	require.NoError(t, err)
	assert.Same(t, first, second)

	other := testConfig()
	other.ChainId = 1
	third, err := r.ReadHandle(other)
	require.NoError(t, err)
	assert.NotSame(t, first, third)

	moved := testConfig()
	moved.RpcUrl = "http://127.0.0.1:9545"
	fourth, err := r.ReadHandle(moved)
	require.NoError(t, err)
	assert.NotSame(t, first, fourth)
}

func TestWriteHandleRequiresSigner(t *testing.T) {
	r := NewResolver()

	_, err := r.WriteHandle(testConfig())
	assert.ErrorIs(t, err, ErrNoSigner)

	bad := testConfig()
	bad.PrivateKey = "not-a-key"
	_, err = r.WriteHandle(bad)
	assert.ErrorIs(t, err, ErrNoSigner)
}

func TestWriteHandleNeverCached(t *testing.T) {
	r := NewResolver()

	cfg := testConfig()
	cfg.PrivateKey = "0x4f3edf983ac636a65a842ce7c78d9aa706d3b113bce9c46f30d7d21715b23b1d"

	first, err := r.WriteHandle(cfg)
	require.NoError(t, err)
	second, err := r.WriteHandle(cfg)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, first.Account(), second.Account())
	assert.NotEqual(t, ZeroAddress, first.Account())
}
