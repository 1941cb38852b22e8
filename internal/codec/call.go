package codec

import (
	"encoding/hex"
	"fmt"

	"github.com/go-faster/errors"
)

type (
	// CallIndex locates a call in the runtime: pallet index and call index.
	CallIndex struct {
		Section uint8
		Method  uint8
	}

	// Call is a runtime call with SCALE encoded arguments.
	Call struct {
		Pallet string
		Name   string
		Index  CallIndex
		Args   []byte
	}

	// Registry resolves runtime call and error indices, normally from metadata.
	Registry interface {
		CallIndex(pallet, call string) (CallIndex, error)
		ErrorName(module uint8, errorIndex uint8) (pallet string, name string, ok bool)
	}

	// StaticRegistry is a Registry backed by fixed tables.
	StaticRegistry struct {
		Calls  map[string]CallIndex
		Errors map[[2]uint8][2]string
	}
)

// NewCall resolves the call index of pallet.call in reg.
func NewCall(reg Registry, pallet, name string, args []byte) (Call, error) {
	idx, err := reg.CallIndex(pallet, name)
	if err != nil {
		return Call{}, err
	}
	return Call{Pallet: pallet, Name: name, Index: idx, Args: args}, nil
}

// Encode returns the call as it is hashed and placed in an extrinsic.
func (c Call) Encode() []byte {
	out := make([]byte, 0, 2+len(c.Args))
	out = append(out, c.Index.Section, c.Index.Method)
	return append(out, c.Args...)
}

func (c Call) String() string {
	return fmt.Sprintf("%s.%s(0x%s)", c.Pallet, c.Name, hex.EncodeToString(c.Args))
}

func (i CallIndex) String() string {
	return fmt.Sprintf("%02x%02x", i.Section, i.Method)
}

// DecodeCall splits an encoded call into its index and arguments. Pallet and
// name stay empty.
func DecodeCall(encoded []byte) (Call, error) {
	if len(encoded) < 2 {
		return Call{}, errors.Errorf("encoded call too short: %d bytes", len(encoded))
	}
	args := make([]byte, len(encoded)-2)
	copy(args, encoded[2:])
	return Call{Index: CallIndex{Section: encoded[0], Method: encoded[1]}, Args: args}, nil
}

// ParseCallIndex parses the 4 hex digit lookup form used by metadata.
func ParseCallIndex(lookup string) (CallIndex, error) {
	raw, err := hex.DecodeString(lookup)
	if err != nil || len(raw) != 2 {
		return CallIndex{}, errors.Errorf("invalid call lookup %q", lookup)
	}
	return CallIndex{Section: raw[0], Method: raw[1]}, nil
}

func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{
		Calls:  map[string]CallIndex{},
		Errors: map[[2]uint8][2]string{},
	}
}

func (r *StaticRegistry) AddCall(pallet, call string, idx CallIndex) *StaticRegistry {
	r.Calls[pallet+"."+call] = idx
	return r
}

func (r *StaticRegistry) AddError(module, errorIndex uint8, pallet, name string) *StaticRegistry {
	r.Errors[[2]uint8{module, errorIndex}] = [2]string{pallet, name}
	return r
}

func (r *StaticRegistry) CallIndex(pallet, call string) (CallIndex, error) {
	idx, ok := r.Calls[pallet+"."+call]
	if !ok {
		return CallIndex{}, errors.Errorf("call %s.%s not found in registry", pallet, call)
	}
	return idx, nil
}

func (r *StaticRegistry) ErrorName(module uint8, errorIndex uint8) (string, string, bool) {
	names, ok := r.Errors[[2]uint8{module, errorIndex}]
	if !ok {
		return "", "", false
	}
	return names[0], names[1], true
}
