package specversion

import (
	"context"

	"go-multisig/internal/connection"
	"go-multisig/internal/errs"
	"go-multisig/internal/messages"

	"go.uber.org/zap"
)

// Guard rejects runtimes the multisig storage layout was not pinned against.
type Guard struct {
	chain     ChainRPC
	supported SpecVersionRangeList
	logger    *zap.Logger
}

func NewGuard(chain ChainRPC, supported SpecVersionRangeList, logger *zap.Logger) *Guard {
	return &Guard{chain: chain, supported: supported, logger: logger}
}

// Check reads the runtime version at blockHash (best block if empty) and
// returns an UnsupportedRuntimeError when it is outside the supported ranges.
func (guard *Guard) Check(ctx context.Context, blockHash string) (*connection.RuntimeVersion, error) {
	version, err := guard.chain.GetRuntimeVersion(ctx, blockHash)
	if err != nil {
		messages.NewMultisigMessage(messages.LOG_LEVEL_ERROR, messages.GetComponent(NewGuard), err, SPEC_VERSION_FAILED).Log(guard.logger)
		return nil, err
	}

	if len(guard.supported) == 0 {
		messages.NewMultisigMessage(messages.LOG_LEVEL_WARNING, "", nil, SPEC_VERSION_NO_PINNING, version.SpecName, version.SpecVersion).Log(guard.logger)
		return version, nil
	}

	messages.NewMultisigMessage(messages.LOG_LEVEL_DEBUG, "", nil, SPEC_VERSION_CHECKING, version.SpecName, version.SpecVersion).Log(guard.logger)
	if !guard.supported.Contains(version.SpecName, version.SpecVersion) {
		messages.NewMultisigMessage(messages.LOG_LEVEL_ERROR, messages.GetComponent(NewGuard), nil, SPEC_VERSION_UNSUPPORTED, version.SpecName, version.SpecVersion).Log(guard.logger)
		return version, &errs.UnsupportedRuntimeError{SpecName: version.SpecName, SpecVersion: version.SpecVersion}
	}
	return version, nil
}
