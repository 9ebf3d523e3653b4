package transaction

import "encoding/binary"

// Class is the semantic class of a transaction, derived from the first four
// bytes of the call payload interpreted as a little-endian selector.
//
// Classification feeds the scoring path that influences block content, so
// the selector ranges are statically fixed and the mapping must be identical
// on every node.
type Class uint8

const (
	// ClassStandard is the class of ordinary transactions and of any
	// payload that does not match a known selector range.
	ClassStandard Class = 0
	// ClassFinancial is the class of financial operations (transfers,
	// swaps, settlement).
	ClassFinancial Class = 1
	// ClassSystem is the class of system maintenance operations.
	ClassSystem Class = 2
	// ClassGovernance is the class of governance operations.
	ClassGovernance Class = 3

	// NumClasses is the number of transaction classes.
	NumClasses = 4
)

// Selector ranges. The ranges are disjoint; selectors outside all ranges
// (including the zero selector) classify as Standard.
const (
	selectorSystemStart     uint32 = 0x0000_0001
	selectorSystemEnd       uint32 = 0x1000_0000
	selectorFinancialStart  uint32 = 0x1000_0000
	selectorFinancialEnd    uint32 = 0x6000_0000
	selectorGovernanceStart uint32 = 0x6000_0000
	selectorGovernanceEnd   uint32 = 0x8000_0000
)

// String returns the string representation of a transaction class.
func (c Class) String() string {
	switch c {
	case ClassStandard:
		return "standard"
	case ClassFinancial:
		return "financial"
	case ClassSystem:
		return "system"
	case ClassGovernance:
		return "governance"
	default:
		return "[unknown]"
	}
}

// Classify maps a call payload to its semantic class.
//
// Classify is a pure, total function: any payload shorter than four bytes,
// and any selector outside the known ranges, classifies as Standard.
func Classify(callData []byte) Class {
	if len(callData) < 4 {
		return ClassStandard
	}

	selector := binary.LittleEndian.Uint32(callData[:4])
	switch {
	case selector >= selectorSystemStart && selector < selectorSystemEnd:
		return ClassSystem
	case selector >= selectorFinancialStart && selector < selectorFinancialEnd:
		return ClassFinancial
	case selector >= selectorGovernanceStart && selector < selectorGovernanceEnd:
		return ClassGovernance
	default:
		return ClassStandard
	}
}
