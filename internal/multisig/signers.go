package multisig

import (
	"fmt"
	"sort"

	"go-multisig/internal/codec"
)

// SignerSet is the fixed set of signatories of a multisig account and its
// approval threshold. The signatories are kept sorted, which is the order the
// runtime expects them in.
type SignerSet struct {
	threshold   uint16
	signatories []codec.AccountID
}

// NewSignerSet validates and sorts the signatories.
func NewSignerSet(threshold uint16, signatories ...codec.AccountID) (SignerSet, error) {
	if len(signatories) < 2 {
		return SignerSet{}, &InvalidSignerSetError{Reason: "at least two signatories are required"}
	}
	if len(signatories) > maxSignatories {
		return SignerSet{}, &InvalidSignerSetError{Reason: fmt.Sprintf("at most %d signatories are allowed", maxSignatories)}
	}
	if threshold < 1 || int(threshold) > len(signatories) {
		return SignerSet{}, &InvalidSignerSetError{
			Reason: fmt.Sprintf("threshold %d outside [1, %d]", threshold, len(signatories)),
		}
	}

	sorted := append([]codec.AccountID(nil), signatories...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return SignerSet{}, &InvalidSignerSetError{Reason: fmt.Sprintf("duplicate signatory %s", sorted[i])}
		}
	}
	return SignerSet{threshold: threshold, signatories: sorted}, nil
}

func (s SignerSet) Threshold() uint16 {
	return s.threshold
}

// Signatories returns a copy of the sorted signatories.
func (s SignerSet) Signatories() []codec.AccountID {
	return append([]codec.AccountID(nil), s.signatories...)
}

func (s SignerSet) Contains(id codec.AccountID) bool {
	i := sort.Search(len(s.signatories), func(i int) bool { return !s.signatories[i].Less(id) })
	return i < len(s.signatories) && s.signatories[i] == id
}

// Others returns the sorted signatories without self.
func (s SignerSet) Others(self codec.AccountID) []codec.AccountID {
	others := make([]codec.AccountID, 0, len(s.signatories))
	for _, id := range s.signatories {
		if id != self {
			others = append(others, id)
		}
	}
	return others
}

func (s SignerSet) IsZero() bool {
	return s.threshold == 0
}
