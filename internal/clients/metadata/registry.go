package metadata

import (
	"strings"

	"go-multisig/internal/codec"

	"github.com/go-faster/errors"
	"github.com/itering/scale.go/types"
)

// NewRegistry indexes the calls and errors of every module in meta.
func NewRegistry(meta *types.MetadataStruct) (*Registry, error) {
	if meta == nil {
		return nil, errors.New("nil metadata")
	}
	reg := &Registry{
		calls:  map[string]codec.CallIndex{},
		errors: map[[2]uint8][2]string{},
	}
	for _, module := range meta.Metadata.Modules {
		for _, call := range module.Calls {
			idx, err := codec.ParseCallIndex(call.Lookup)
			if err != nil {
				continue
			}
			reg.calls[registryKey(module.Name, call.Name)] = idx
		}
		for errIdx, moduleErr := range module.Errors {
			reg.errors[[2]uint8{uint8(module.Index), uint8(errIdx)}] = [2]string{module.Name, moduleErr.Name}
		}
	}
	return reg, nil
}

func (r *Registry) CallIndex(pallet, call string) (codec.CallIndex, error) {
	idx, ok := r.calls[registryKey(pallet, call)]
	if !ok {
		return codec.CallIndex{}, errors.Errorf("call %s.%s not in runtime metadata", pallet, call)
	}
	return idx, nil
}

func (r *Registry) ErrorName(module uint8, errorIndex uint8) (string, string, bool) {
	names, ok := r.errors[[2]uint8{module, errorIndex}]
	if !ok {
		return "", "", false
	}
	return names[0], names[1], true
}

// call names are snake_case from v14 metadata and camelCase before
func registryKey(pallet, call string) string {
	return strings.ToLower(pallet) + "." + strings.ToLower(strings.ReplaceAll(call, "_", ""))
}
