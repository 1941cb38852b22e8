package multisig

import (
	"go-multisig/internal/callhash"
	"go-multisig/internal/codec"

	"github.com/go-faster/errors"
)

const (
	palletName = "Multisig"

	callAsMultiThreshold1 = "as_multi_threshold_1"
	callAsMulti           = "as_multi"
	callApproveAsMulti    = "approve_as_multi"
	callCancelAsMulti     = "cancel_as_multi"
)

// ActionKind is the extrinsic the coordinator decided on.
type ActionKind int

const (
	ActionPropose ActionKind = iota + 1
	ActionApprove
	// ActionApproveAsMulti is the final approval, carrying the call so it
	// executes atomically.
	ActionApproveAsMulti
	ActionCancel
)

func (k ActionKind) String() string {
	switch k {
	case ActionPropose:
		return "propose"
	case ActionApprove:
		return "approve"
	case ActionApproveAsMulti:
		return "approve_as_multi"
	case ActionCancel:
		return "cancel"
	}
	return "unknown"
}

// ExtrinsicSpec is a fully parameterised, unsigned multisig action.
type ExtrinsicSpec struct {
	Kind             ActionKind
	Fingerprint      callhash.Fingerprint
	Threshold        uint16
	OtherSignatories []codec.AccountID
	// Timepoint is nil only for a propose.
	Timepoint *Timepoint
	// Call is the encoded inner call. Set for propose and final approval.
	Call      []byte
	MaxWeight uint64
	StoreCall bool
}

// Executes reports whether a successful dispatch of this action runs the
// inner call.
func (s *ExtrinsicSpec) Executes() bool {
	return s.Kind == ActionApproveAsMulti || (s.Kind == ActionPropose && s.Threshold == 1)
}

// Build encodes the action as a Multisig pallet call.
func (s *ExtrinsicSpec) Build(reg codec.Registry) (codec.Call, error) {
	var (
		name string
		enc  = &codec.Encoder{}
	)

	switch s.Kind {
	case ActionPropose:
		if len(s.Call) == 0 {
			return codec.Call{}, ErrCallBodyRequired
		}
		if s.Threshold == 1 {
			name = callAsMultiThreshold1
			enc.Push(s.OtherSignatories).Raw(s.Call)
			break
		}
		name = callAsMulti
		enc.Push(s.Threshold).
			Push(s.OtherSignatories).
			None().
			Push(s.Call).
			Push(s.StoreCall).
			Push(s.MaxWeight)
	case ActionApprove:
		if s.Timepoint == nil {
			return codec.Call{}, errors.New("approve requires a timepoint")
		}
		name = callApproveAsMulti
		enc.Push(s.Threshold).
			Push(s.OtherSignatories).
			Some(*s.Timepoint).
			Push([32]byte(s.Fingerprint)).
			Push(s.MaxWeight)
	case ActionApproveAsMulti:
		if s.Timepoint == nil {
			return codec.Call{}, errors.New("final approval requires a timepoint")
		}
		if len(s.Call) == 0 {
			return codec.Call{}, ErrCallBodyRequired
		}
		name = callAsMulti
		enc.Push(s.Threshold).
			Push(s.OtherSignatories).
			Some(*s.Timepoint).
			Push(s.Call).
			Push(false).
			Push(s.MaxWeight)
	case ActionCancel:
		if s.Timepoint == nil {
			return codec.Call{}, errors.New("cancel requires a timepoint")
		}
		name = callCancelAsMulti
		enc.Push(s.Threshold).
			Push(s.OtherSignatories).
			Push(*s.Timepoint).
			Push([32]byte(s.Fingerprint))
	default:
		return codec.Call{}, errors.Errorf("unknown action kind %d", s.Kind)
	}

	args, err := enc.Bytes()
	if err != nil {
		return codec.Call{}, errors.Wrapf(err, "encode %s", name)
	}
	return codec.NewCall(reg, palletName, name, args)
}
