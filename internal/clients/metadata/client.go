package metadata

import (
	"context"
	"os"
	"strconv"
	"strings"

	"go-multisig/internal/errs"
	"go-multisig/internal/messages"

	"github.com/go-faster/errors"
	scalecodec "github.com/itering/scale.go"
	"github.com/itering/scale.go/source"
	"github.com/itering/scale.go/types"
	"github.com/itering/scale.go/utiles"
	"github.com/puzpuzpuz/xsync/v2"
	"go.uber.org/zap"
)

// MetadataClient fetches and decodes runtime metadata, once per spec version.
type MetadataClient struct {
	chain    ChainRPC
	file     string
	runtimes *xsync.MapOf[string, *Runtime]
	logger   *zap.Logger
}

// NewMetadataClient reads metadata through chain. When file is set it is used
// instead of the node for every spec version.
func NewMetadataClient(chain ChainRPC, file string, logger *zap.Logger) *MetadataClient {
	return &MetadataClient{
		chain:    chain,
		file:     file,
		runtimes: xsync.NewMapOf[*Runtime](),
		logger:   logger,
	}
}

// Runtime returns the decoded runtime of specVersion, reading the metadata at
// blockHash on first use.
func (metaClient *MetadataClient) Runtime(ctx context.Context, specVersion int, blockHash string) (*Runtime, error) {
	key := strconv.Itoa(specVersion)
	if runtime, ok := metaClient.runtimes.Load(key); ok {
		return runtime, nil
	}

	var (
		meta *types.MetadataStruct
		err  error
	)
	if metaClient.file != "" {
		messages.NewMultisigMessage(messages.LOG_LEVEL_INFO, "", nil, META_CLIENT_FROM_FILE, metaClient.file).Log(metaClient.logger)
		meta, err = LoadFromFile(metaClient.file)
	} else {
		meta, err = metaClient.fetch(ctx, specVersion, blockHash)
	}
	if err != nil {
		return nil, err
	}

	registry, err := NewRegistry(meta)
	if err != nil {
		return nil, errs.NewDecodeError("runtime registry", err)
	}
	runtime, _ := metaClient.runtimes.LoadOrStore(key, &Runtime{SpecVersion: specVersion, Meta: meta, Registry: registry})
	return runtime, nil
}

func (metaClient *MetadataClient) fetch(ctx context.Context, specVersion int, blockHash string) (*types.MetadataStruct, error) {
	messages.NewMultisigMessage(messages.LOG_LEVEL_INFO, "", nil, META_CLIENT_FETCHING, specVersion, blockHash).Log(metaClient.logger)
	raw, err := metaClient.chain.GetMetadata(ctx, blockHash)
	if err != nil {
		messages.NewMultisigMessage(messages.LOG_LEVEL_ERROR, messages.GetComponent(NewMetadataClient), err, META_FAILED_TO_FETCH, specVersion).Log(metaClient.logger)
		return nil, err
	}
	meta, err := Decode(raw)
	if err != nil {
		messages.NewMultisigMessage(messages.LOG_LEVEL_ERROR, messages.GetComponent(NewMetadataClient), err, META_FAILED_TO_DECODE, specVersion).Log(metaClient.logger)
		return nil, err
	}
	return meta, nil
}

// Decode decodes hex encoded runtime metadata.
func Decode(rawHex string) (meta *types.MetadataStruct, err error) {
	// the decoder panics on malformed input
	defer func() {
		if r := recover(); r != nil {
			meta, err = nil, errs.NewDecodeError("runtime metadata", errors.Errorf("%v", r))
		}
	}()

	m := scalecodec.MetadataDecoder{}
	m.Init(utiles.HexToBytes(strings.TrimSpace(rawHex)))
	if err := m.Process(); err != nil {
		return nil, errs.NewDecodeError("runtime metadata", err)
	}
	return &m.Metadata, nil
}

// LoadFromFile decodes metadata saved as a hex string in a file.
func LoadFromFile(path string) (*types.MetadataStruct, error) {
	rawMeta, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read metadata file %s", path)
	}
	return Decode(string(rawMeta))
}

// RegisterCustomTypes registers the runtime base types and, when path is
// set, the chain specific type definitions used by the decoders.
func RegisterCustomTypes(path string, logger *zap.Logger) error {
	types.RuntimeType{}.Reg()
	if path == "" {
		return nil
	}
	c, err := os.ReadFile(path)
	if err != nil {
		messages.NewMultisigMessage(messages.LOG_LEVEL_ERROR, messages.GetComponent(RegisterCustomTypes), err, META_FAILED_TO_READ_TYPES, path).Log(logger)
		return errors.Wrapf(err, "read decoder types file %s", path)
	}
	types.RegCustomTypes(source.LoadTypeRegistry(c))
	messages.NewMultisigMessage(messages.LOG_LEVEL_DEBUG, "", nil, META_REGISTERED_TYPES, path).Log(logger)
	return nil
}
