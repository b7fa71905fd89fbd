package vm

import (
	"fmt"
	"strings"

	"github.com/qinglongcn/vitalchain/fault"
	"github.com/qinglongcn/vitalchain/resource"
)

var (
	ErrInputAsserted     = fault.ConflictError("input index asserted twice")
	ErrOutputAsserted    = fault.ConflictError("output index asserted twice")
	ErrAlreadyMinted     = fault.ConflictError("mint attempted twice")
	ErrOutputNotAsserted = fault.ConflictError("output index not asserted")
	ErrAlreadyDeployed   = fault.ConflictError("tag already deployed")
	ErrNameRegistered    = fault.ConflictError("name already registered")

	ErrInputOutOfRange  = fault.LookupError("input index out of range")
	ErrOutputOutOfRange = fault.LookupError("output index out of range")
	ErrResourceNotBound = fault.LookupError("input location has no bound resource")
	ErrResourceMismatch = fault.LookupError("asserted resource does not match ledger")
	ErrNameNotAsserted  = fault.LookupError("name input not asserted")
	ErrNotDeployed      = fault.LookupError("vrc20 tag not deployed")

	ErrNothingToMove     = fault.ConservationError("move all with nothing left to move")
	ErrUncostedRemainder = fault.ConservationError("asserted resources left uncosted")
	ErrMintLimit         = fault.ConservationError("mint exceeds limit per mint")
	ErrMaxSupply         = fault.ConservationError("mint exceeds max supply")

	ErrTagMismatch = fault.InvalidError("deploy tag does not match the costed name")
	ErrFinalized   = fault.InvalidError("context already finalized")
)

// Remainder 某个输入尚未被扣减的资源
type Remainder struct {
	Input    uint8
	Resource resource.Resource
}

// RemainderError 执行结束时仍有未扣减的资源
type RemainderError struct {
	Remainders []Remainder
}

func (e *RemainderError) Error() string {
	parts := make([]string, len(e.Remainders))
	for i, r := range e.Remainders {
		parts[i] = fmt.Sprintf("input %d: %s", r.Input, r.Resource)
	}
	return fmt.Sprintf("%s: %s", ErrUncostedRemainder, strings.Join(parts, ", "))
}

func (e *RemainderError) Unwrap() error { return ErrUncostedRemainder }
