package metadata

import (
	"context"
	"path/filepath"
	"testing"

	"go-multisig/internal/codec"
	"go-multisig/internal/errs"

	"github.com/itering/scale.go/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testMetadata() *types.MetadataStruct {
	return &types.MetadataStruct{
		Metadata: types.MetadataTag{
			Modules: []types.MetadataModules{
				{
					Name:  "System",
					Index: 0,
					Calls: []types.MetadataCalls{{Name: "remark", Lookup: "0001"}},
				},
				{
					Name:  "Multisig",
					Index: 31,
					Calls: []types.MetadataCalls{
						{Name: "as_multi_threshold_1", Lookup: "1f00"},
						{Name: "asMulti", Lookup: "1f01"},
						{Name: "broken", Lookup: "zz"},
					},
					Errors: []types.MetadataModuleError{
						{Name: "MinimumThreshold"},
						{Name: "AlreadyApproved"},
					},
				},
			},
		},
	}
}

func TestRegistry(t *testing.T) {
	reg, err := NewRegistry(testMetadata())
	require.NoError(t, err)

	idx, err := reg.CallIndex("Multisig", "as_multi_threshold_1")
	require.NoError(t, err)
	assert.Equal(t, codec.CallIndex{Section: 31, Method: 0}, idx)

	// v13 style camelCase names resolve from snake_case
	idx, err = reg.CallIndex("Multisig", "as_multi")
	require.NoError(t, err)
	assert.Equal(t, codec.CallIndex{Section: 31, Method: 1}, idx)

	_, err = reg.CallIndex("Multisig", "broken")
	require.Error(t, err)

	pallet, name, ok := reg.ErrorName(31, 1)
	require.True(t, ok)
	assert.Equal(t, "Multisig", pallet)
	assert.Equal(t, "AlreadyApproved", name)

	_, _, ok = reg.ErrorName(0, 0)
	assert.False(t, ok)

	_, err = NewRegistry(nil)
	require.Error(t, err)
}

type fakeChain struct {
	raw   string
	err   error
	calls int
}

func (f *fakeChain) GetMetadata(context.Context, string) (string, error) {
	f.calls++
	return f.raw, f.err
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode("0x00010203")
	require.True(t, errs.IsDecode(err))
}

func TestMetadataClient_Errors(t *testing.T) {
	chain := &fakeChain{raw: "0xdeadbeef"}
	client := NewMetadataClient(chain, "", zap.NewNop())

	_, err := client.Runtime(context.Background(), 30, "0x01")
	require.True(t, errs.IsDecode(err))
	_, err = client.Runtime(context.Background(), 30, "0x01")
	require.Error(t, err)
	assert.Equal(t, 2, chain.calls, "failures are not cached")

	fileClient := NewMetadataClient(chain, filepath.Join(t.TempDir(), "missing"), zap.NewNop())
	_, err = fileClient.Runtime(context.Background(), 30, "")
	require.Error(t, err)
	assert.Equal(t, 2, chain.calls)
}

func TestRegisterCustomTypes_MissingFile(t *testing.T) {
	require.NoError(t, RegisterCustomTypes("", zap.NewNop()))
	require.Error(t, RegisterCustomTypes(filepath.Join(t.TempDir(), "types.json"), zap.NewNop()))
}
