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

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Ryb7532/gradsync/types/shapes"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
)

// NodeID is the stable handle of a Node within its Computation arena.
// Handles are never reused, including for removed nodes.
type NodeID int

// InvalidNodeID indicates a node that does not exist.
const InvalidNodeID = NodeID(-1)

// AllReduceSpec carries the collective configuration of an all-reduce node:
// how to reduce, which replicas participate, and the communication channel,
// if the reduction crosses a hardware communication fabric.
type AllReduceSpec struct {
	ReduceOp ReduceOpType

	// ReplicaGroups is a collection of replica groups: each group ([]int) is
	// the set of participants that reduce among themselves, given as indices
	// into the device assignment.
	ReplicaGroups [][]int

	// ChannelID associates the collective with a communication endpoint.
	// It must be unique within a Module. Zero means no channel was assigned.
	ChannelID int64

	ConstrainLayout    bool
	UseGlobalDeviceIDs bool
}

// Clone returns a deep copy of the spec.
func (s AllReduceSpec) Clone() AllReduceSpec {
	s2 := s
	s2.ReplicaGroups = make([][]int, 0, len(s.ReplicaGroups))
	for _, group := range s.ReplicaGroups {
		s2.ReplicaGroups = append(s2.ReplicaGroups, slices.Clone(group))
	}
	return s2
}

// Node is a vertex of a Computation: an operation, its shape and its operand
// edges. Nodes are created through the Computation builder methods and
// addressed by NodeID; operand and user relations are index lookups into the
// owning arena, never raw cross-references.
type Node struct {
	comp   *Computation
	id     NodeID
	opType OpType
	shape  shapes.Shape

	// operands are the incoming edges, one per operand slot.
	operands []NodeID

	// users is the reverse index: one entry per operand edge of another node
	// pointing here. A node using this one through two slots appears twice.
	users []NodeID

	// metaOpName is a free-form metadata annotation, used by rewrite passes
	// to tag nodes for downstream schedulers.
	metaOpName string

	// opaqueName names the operation of an OpTypeOpaque node, for printing.
	opaqueName string

	paramName  string
	paramIndex int

	allReduce *AllReduceSpec

	removed bool
}

// Op returns the operation type of the node.
func (n *Node) Op() OpType {
	if n == nil {
		return OpTypeInvalid
	}
	return n.opType
}

// ID is the stable handle of this node within its Computation.
func (n *Node) ID() NodeID {
	if n == nil {
		return InvalidNodeID
	}
	return n.id
}

// Computation that owns this node.
func (n *Node) Computation() *Computation { return n.comp }

// Shape of the node's value.
func (n *Node) Shape() shapes.Shape { return n.shape }

// DType returns the element type of the node's shape.
func (n *Node) DType() dtypes.DType { return n.shape.DType }

// NumOperands returns the number of operand edges.
func (n *Node) NumOperands() int { return len(n.operands) }

// OperandID returns the handle of the i-th operand.
func (n *Node) OperandID(i int) NodeID {
	if i < 0 || i >= len(n.operands) {
		exceptions.Panicf("Node.OperandID(%d) out-of-bounds: %s has %d operands", i, n, len(n.operands))
	}
	return n.operands[i]
}

// Operand returns the i-th operand node.
func (n *Node) Operand(i int) *Node {
	return n.comp.Node(n.OperandID(i))
}

// Operands returns the operand nodes, in slot order.
func (n *Node) Operands() []*Node {
	ops := make([]*Node, 0, len(n.operands))
	for _, id := range n.operands {
		ops = append(ops, n.comp.Node(id))
	}
	return ops
}

// Users returns the distinct nodes holding an operand edge to this node, in
// the order the edges were created. A node that consumes this one through
// several slots appears once.
func (n *Node) Users() []*Node {
	seen := make(map[NodeID]bool, len(n.users))
	users := make([]*Node, 0, len(n.users))
	for _, id := range n.users {
		if seen[id] {
			continue
		}
		seen[id] = true
		users = append(users, n.comp.Node(id))
	}
	return users
}

// NumUsers returns the number of distinct consumers of this node.
func (n *Node) NumUsers() int { return len(n.Users()) }

// MetadataOpName returns the metadata annotation of the node, or "".
func (n *Node) MetadataOpName() string { return n.metaOpName }

// SetMetadataOpName sets the metadata annotation of the node.
func (n *Node) SetMetadataOpName(name string) { n.metaOpName = name }

// AllReduce returns the collective spec of an OpTypeAllReduce node.
// It panics for any other op type.
func (n *Node) AllReduce() AllReduceSpec {
	n.AssertValid()
	if n.opType != OpTypeAllReduce {
		exceptions.Panicf("Node.AllReduce() called on %s node %s", n.opType, n)
	}
	return *n.allReduce
}

// ParameterIndex returns the index of an OpTypeParameter node within its
// computation's parameter list. It panics for any other op type.
func (n *Node) ParameterIndex() int {
	n.AssertValid()
	if n.opType != OpTypeParameter {
		exceptions.Panicf("Node.ParameterIndex() called on %s node %s", n.opType, n)
	}
	return n.paramIndex
}

// ParameterName returns the name of an OpTypeParameter node.
// It panics for any other op type.
func (n *Node) ParameterName() string {
	n.AssertValid()
	if n.opType != OpTypeParameter {
		exceptions.Panicf("Node.ParameterName() called on %s node %s", n.opType, n)
	}
	return n.paramName
}

// AssertValid panics if n is nil, removed or belongs to no computation.
func (n *Node) AssertValid() {
	if n == nil {
		exceptions.Panicf("Node is nil")
	}
	if n.comp == nil {
		exceptions.Panicf("Node #%d is not attached to a Computation", n.id)
	}
	if n.removed {
		exceptions.Panicf("Node #%d (%s) was removed from computation %q", n.id, n.opType, n.comp.name)
	}
}

// ReplaceOperand redirects the i-th operand edge to newOperand, keeping the
// user indices of both the old and the new operand consistent.
func (n *Node) ReplaceOperand(i int, newOperand *Node) {
	n.AssertValid()
	newOperand.AssertValid()
	if newOperand.comp != n.comp {
		exceptions.Panicf("Node.ReplaceOperand: %s belongs to computation %q, not %q", newOperand, newOperand.comp.name, n.comp.name)
	}
	if i < 0 || i >= len(n.operands) {
		exceptions.Panicf("Node.ReplaceOperand(%d) out-of-bounds: %s has %d operands", i, n, len(n.operands))
	}
	old := n.comp.Node(n.operands[i])
	if old == newOperand {
		return
	}
	old.removeUserEdge(n.id)
	n.operands[i] = newOperand.id
	newOperand.users = append(newOperand.users, n.id)
}

// ReplaceAllUsesWith redirects every operand edge held by the current users
// of n to newNode instead. The user set of n becomes empty. Users created
// while building newNode's operand chain from n are left alone, to avoid
// introducing cycles -- callers take the snapshot semantics: "users" means
// the users at call time, and newNode itself is never rewired.
func (n *Node) ReplaceAllUsesWith(newNode *Node) {
	n.AssertValid()
	newNode.AssertValid()
	if newNode.comp != n.comp {
		exceptions.Panicf("Node.ReplaceAllUsesWith: %s belongs to computation %q, not %q", newNode, newNode.comp.name, n.comp.name)
	}
	for _, user := range n.Users() {
		if user == newNode {
			continue
		}
		for i, operandID := range user.operands {
			if operandID == n.id {
				user.ReplaceOperand(i, newNode)
			}
		}
	}
}

// removeUserEdge drops one entry for userID from the user index.
func (n *Node) removeUserEdge(userID NodeID) {
	for i, id := range n.users {
		if id == userID {
			n.users = slices.Delete(n.users, i, i+1)
			return
		}
	}
	exceptions.Panicf("node #%d has no user edge from #%d: user index corrupted", n.id, userID)
}

// String implements fmt.Stringer: "#id Op(#operands...) attrs -> shape".
func (n *Node) String() string {
	if n == nil {
		return "Node(nil)"
	}
	if n.removed {
		return fmt.Sprintf("#%d removed", n.id)
	}
	var desc string
	switch n.opType {
	case OpTypeParameter:
		desc = fmt.Sprintf("Parameter(%q, index=%d)", n.paramName, n.paramIndex)
	case OpTypeOpaque:
		desc = fmt.Sprintf("Opaque[%s](%s)", n.opaqueName, n.operandsString())
	default:
		desc = fmt.Sprintf("%s(%s)", n.opType, n.operandsString())
	}
	parts := []string{desc}
	if n.opType == OpTypeAllReduce {
		parts = append(parts, fmt.Sprintf("reduce=%s", n.allReduce.ReduceOp))
		if n.allReduce.ChannelID != 0 {
			parts = append(parts, fmt.Sprintf("channel=%d", n.allReduce.ChannelID))
		}
	}
	if n.metaOpName != "" {
		parts = append(parts, fmt.Sprintf("[%s]", n.metaOpName))
	}
	return fmt.Sprintf("#%d %s -> %s", n.id, strings.Join(parts, " "), n.shape)
}

func (n *Node) operandsString() string {
	parts := make([]string, 0, len(n.operands))
	for _, id := range n.operands {
		parts = append(parts, fmt.Sprintf("#%d", id))
	}
	return strings.Join(parts, ", ")
}
