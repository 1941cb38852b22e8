package metadata

import (
	"context"

	"go-multisig/internal/codec"

	"github.com/itering/scale.go/types"
)

type (
	// ChainRPC fetches the hex encoded runtime metadata at a block.
	ChainRPC interface {
		GetMetadata(ctx context.Context, blockHash string) (string, error)
	}

	// Runtime is the decoded metadata of one spec version with its call and
	// error registry.
	Runtime struct {
		SpecVersion int
		Meta        *types.MetadataStruct
		Registry    *Registry
	}

	// Registry resolves call and error indices from runtime metadata.
	Registry struct {
		calls  map[string]codec.CallIndex
		errors map[[2]uint8][2]string
	}
)

var _ codec.Registry = (*Registry)(nil)

var (
	META_CLIENT_FETCHING      = "Fetching metadata for spec version %d at block %s"
	META_CLIENT_FROM_FILE     = "Loading metadata from file %s"
	META_FAILED_TO_FETCH      = "Failed to fetch metadata for spec version %d"
	META_FAILED_TO_DECODE     = "Failed to decode metadata for spec version %d"
	META_FAILED_TO_READ_TYPES = "Failed to read decoder types file %s"
	META_REGISTERED_TYPES     = "Registered custom decoder types from %s"
)
