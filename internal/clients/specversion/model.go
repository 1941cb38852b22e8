package specversion

import (
	"context"

	"go-multisig/internal/connection"
)

type (
	// SpecVersionRange is a span of runtime spec versions the storage and
	// call layouts are known to match. Last 0 leaves the range open.
	SpecVersionRange struct {
		SpecName string `json:"spec_name"`
		First    int    `json:"first"`
		Last     int    `json:"last"`
	}

	SpecVersionRangeList []SpecVersionRange

	ChainRPC interface {
		GetRuntimeVersion(ctx context.Context, blockHash string) (*connection.RuntimeVersion, error)
	}
)

var (
	SPEC_VERSION_CHECKING    = "Checking runtime %s/%d against supported spec versions"
	SPEC_VERSION_UNSUPPORTED = "Runtime %s/%d is not supported"
	SPEC_VERSION_NO_PINNING  = "No supported spec versions configured, accepting runtime %s/%d"
	SPEC_VERSION_FAILED      = "Failed to read runtime version"
)

// Contains reports whether the runtime specName/specVersion falls in one of
// the ranges. A range without a spec name matches every chain.
func (specVersionRangeList SpecVersionRangeList) Contains(specName string, specVersion int) bool {
	for _, spec := range specVersionRangeList {
		if spec.SpecName != "" && spec.SpecName != specName {
			continue
		}
		if specVersion < spec.First {
			continue
		}
		if spec.Last != 0 && specVersion > spec.Last {
			continue
		}
		return true
	}
	return false
}
