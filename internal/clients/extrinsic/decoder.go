package extrinsic

import (
	"strings"

	"go-multisig/internal/clients/metadata"
	"go-multisig/internal/errs"

	"github.com/go-faster/errors"
	scale "github.com/itering/scale.go"
	"github.com/itering/scale.go/types"
	"github.com/itering/substrate-api-rpc/util"
)

// includedCall is what the runtime decoded from an included extrinsic.
type includedCall struct {
	Module   string
	Function string
	Signed   bool
}

func decodeIncluded(rawExtrinsic string, runtime *metadata.Runtime) (call *includedCall, err error) {
	if runtime == nil || runtime.Meta == nil {
		return nil, errs.NewDecodeError("extrinsic", errors.New("no metadata"))
	}
	defer func() {
		if r := recover(); r != nil {
			call, err = nil, errs.NewDecodeError("extrinsic", errors.Errorf("%v", r))
		}
	}()

	extrinsicDecoder := scale.ExtrinsicDecoder{}
	extrinsicDecoderOption := types.ScaleDecoderOption{Metadata: runtime.Meta, Spec: runtime.SpecVersion}
	extrinsicDecoder.Init(types.ScaleBytes{Data: util.HexToBytes(rawExtrinsic)}, &extrinsicDecoderOption)
	extrinsicDecoder.Process()

	decodedExtrinsic, ok := extrinsicDecoder.Value.(map[string]interface{})
	if !ok {
		return nil, errs.NewDecodeError("extrinsic", errors.Errorf("unexpected value %T", extrinsicDecoder.Value))
	}
	module, err := getCallModule(decodedExtrinsic)
	if err != nil {
		return nil, err
	}
	function, err := getCallFunction(decodedExtrinsic)
	if err != nil {
		return nil, err
	}
	return &includedCall{Module: module, Function: function, Signed: isSigned(decodedExtrinsic)}, nil
}

func getCallModule(decodedExtrinsic map[string]interface{}) (string, error) {
	callModule, ok := decodedExtrinsic[extrinsicCallModuleField].(string)
	if !ok {
		return "", errs.NewDecodeError(extrinsicCallModuleField, errors.New("missing field"))
	}
	return strings.ToLower(callModule), nil
}

func getCallFunction(decodedExtrinsic map[string]interface{}) (string, error) {
	callFunction, ok := decodedExtrinsic[extrinsicFunctionField].(string)
	if !ok {
		return "", errs.NewDecodeError(extrinsicFunctionField, errors.New("missing field"))
	}
	return callFunction, nil
}

func isSigned(decodedExtrinsic map[string]interface{}) bool {
	_, ok := decodedExtrinsic[extrinsicSignatureField]
	return ok
}
