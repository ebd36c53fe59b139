/*
 *	Copyright 2026 The gradsync Authors
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

package hlo

// OpType is an enum of the operations this IR distinguishes.
//
// It is deliberately closed: the gradient-accumulation rewrite only needs to
// recognize the accumulation add, the transparent (shape/type-preserving)
// unary ops it can traverse through, the loss-scale multiply, all-reduce,
// parameters and the root tuple. Every other HLO operation is represented as
// OpTypeOpaque, which the rewrite treats as a non-match.
type OpType int

//go:generate go tool enumer -type=OpType -trimprefix=OpType -output=gen_optype_enumer.go optype.go

const (
	OpTypeInvalid OpType = iota
	OpTypeParameter
	OpTypeAdd
	OpTypeMultiply
	OpTypeConvert
	OpTypeReshape
	OpTypeCopy
	OpTypeBitcast
	OpTypeTranspose
	OpTypeAllReduce
	OpTypeTuple
	OpTypeOpaque
)

// IsTransparent returns whether the op preserves the identity of the value it
// forwards, modulo element type and layout: the locator traverses through
// these when searching for an all-reduce.
func (t OpType) IsTransparent() bool {
	switch t {
	case OpTypeConvert, OpTypeReshape, OpTypeCopy, OpTypeBitcast, OpTypeTranspose:
		return true
	}
	return false
}

// ReduceOpType selects among the basic types of reduction of a collective
// operation.
type ReduceOpType int

const (
	// ReduceOpUndefined is an undefined value.
	ReduceOpUndefined ReduceOpType = iota

	// ReduceOpSum reduces by summing all elements being reduced.
	ReduceOpSum

	// ReduceOpProduct reduces by multiplying all elements being reduced.
	ReduceOpProduct

	// ReduceOpMax reduces by taking the maximum value.
	ReduceOpMax

	// ReduceOpMin reduces by taking the minimum value.
	ReduceOpMin
)

//go:generate go tool enumer -type=ReduceOpType -trimprefix=ReduceOp -output=gen_reduceoptype_enumer.go optype.go
