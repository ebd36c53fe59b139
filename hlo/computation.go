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
	"strings"

	"github.com/Ryb7532/gradsync/types/shapes"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// Computation is an owned, mutable DAG of Nodes with a designated root
// (output) node, typically a tuple aggregating the result values by position.
//
// Nodes live in an arena indexed by NodeID; removing a node leaves a
// tombstone so every other handle stays stable. Builder methods (Parameter,
// Add, AllReduce, ...) panic with an exception on structural misuse -- an
// invalid operand count or shape is a bug in the calling graph constructor,
// not a recoverable condition. Rewrite passes mutating a computation return
// errors instead (see the rewrite packages).
type Computation struct {
	module *Module
	name   string

	// nodes is the arena; removed nodes leave a nil tombstone.
	nodes []*Node

	parameters []NodeID
	root       NodeID
}

// Name of the computation, set at creation.
func (c *Computation) Name() string { return c.name }

// Module that owns this computation.
func (c *Computation) Module() *Module { return c.module }

// Node returns the node with the given handle, or nil if the handle is
// invalid or the node was removed.
func (c *Computation) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(c.nodes) {
		return nil
	}
	return c.nodes[id]
}

// Nodes returns the live nodes of the computation, in creation order.
func (c *Computation) Nodes() []*Node {
	live := make([]*Node, 0, len(c.nodes))
	for _, n := range c.nodes {
		if n != nil {
			live = append(live, n)
		}
	}
	return live
}

// NumParameters returns the number of parameters of the computation.
func (c *Computation) NumParameters() int { return len(c.parameters) }

// ParameterAt returns the i-th parameter node, in creation order, or an
// error if i is out of range.
func (c *Computation) ParameterAt(i int) (*Node, error) {
	if i < 0 || i >= len(c.parameters) {
		return nil, errors.Errorf("computation %q has %d parameters, no parameter at index %d", c.name, len(c.parameters), i)
	}
	return c.Node(c.parameters[i]), nil
}

// SetRoot designates the output node of the computation.
func (c *Computation) SetRoot(n *Node) {
	c.assertOwned(n)
	c.root = n.id
}

// Root returns the output node, or nil if none was set.
func (c *Computation) Root() *Node { return c.Node(c.root) }

// newNode allocates a node in the arena and wires its operand edges.
func (c *Computation) newNode(opType OpType, shape shapes.Shape, operands ...*Node) *Node {
	for _, operand := range operands {
		c.assertOwned(operand)
	}
	n := &Node{
		comp:     c,
		id:       NodeID(len(c.nodes)),
		opType:   opType,
		shape:    shape,
		operands: make([]NodeID, 0, len(operands)),
	}
	c.nodes = append(c.nodes, n)
	for _, operand := range operands {
		n.operands = append(n.operands, operand.id)
		operand.users = append(operand.users, n.id)
	}
	return n
}

func (c *Computation) assertOwned(n *Node) {
	n.AssertValid()
	if n.comp != c {
		exceptions.Panicf("node %s belongs to computation %q, not %q", n, n.comp.name, c.name)
	}
}

// Parameter creates an input parameter node. Parameters are ordered by
// creation; the index is the position the surrounding pipeline feeds.
func (c *Computation) Parameter(name string, shape shapes.Shape) *Node {
	n := c.newNode(OpTypeParameter, shape)
	n.paramName = name
	n.paramIndex = len(c.parameters)
	if name == "" {
		n.paramName = fmt.Sprintf("p#%d", n.paramIndex)
	}
	c.parameters = append(c.parameters, n.id)
	return n
}

// Add creates an element-wise addition node. Operand shapes must match.
func (c *Computation) Add(x, y *Node) *Node {
	return c.newBinaryOp(OpTypeAdd, x, y)
}

// Mul creates an element-wise multiplication node. Operand shapes must match.
func (c *Computation) Mul(x, y *Node) *Node {
	return c.newBinaryOp(OpTypeMultiply, x, y)
}

func (c *Computation) newBinaryOp(opType OpType, x, y *Node) *Node {
	if !x.Shape().Equal(y.Shape()) {
		exceptions.Panicf("%s requires matching operand shapes, got %s and %s", opType, x.Shape(), y.Shape())
	}
	return c.newNode(opType, x.Shape().Clone(), x, y)
}

// Convert creates an element type conversion node: same dimensions, new
// DType.
func (c *Computation) Convert(x *Node, dtype dtypes.DType) *Node {
	return c.newNode(OpTypeConvert, x.Shape().WithDType(dtype), x)
}

// Reshape creates a node reinterpreting x with the given dimensions. The
// element count must be preserved.
func (c *Computation) Reshape(x *Node, dimensions ...int) *Node {
	shape := shapes.Make(x.DType(), dimensions...)
	if shape.Size() != x.Shape().Size() {
		exceptions.Panicf("Reshape of %s to %s changes the element count", x.Shape(), shape)
	}
	return c.newNode(OpTypeReshape, shape, x)
}

// Copy creates a copy node over x, same shape.
func (c *Computation) Copy(x *Node) *Node {
	return c.newNode(OpTypeCopy, x.Shape().Clone(), x)
}

// Bitcast creates a bit-reinterpretation node of x as the given shape. The
// total byte size must be preserved.
func (c *Computation) Bitcast(x *Node, shape shapes.Shape) *Node {
	oldBytes := uintptr(x.Shape().Size()) * x.DType().Memory()
	newBytes := uintptr(shape.Size()) * shape.DType.Memory()
	if oldBytes != newBytes {
		exceptions.Panicf("Bitcast of %s to %s changes the byte size", x.Shape(), shape)
	}
	return c.newNode(OpTypeBitcast, shape.Clone(), x)
}

// Transpose creates a node permuting the axes of x. permutation must hold
// each axis of x exactly once.
func (c *Computation) Transpose(x *Node, permutation ...int) *Node {
	rank := x.Shape().Rank()
	if len(permutation) != rank {
		exceptions.Panicf("Transpose permutation has %d axes, operand %s has rank %d", len(permutation), x.Shape(), rank)
	}
	seen := make([]bool, rank)
	dims := make([]int, rank)
	for i, axis := range permutation {
		if axis < 0 || axis >= rank || seen[axis] {
			exceptions.Panicf("Transpose permutation %v is not a permutation of the axes of %s", permutation, x.Shape())
		}
		seen[axis] = true
		dims[i] = x.Shape().Dimensions[axis]
	}
	return c.newNode(OpTypeTranspose, shapes.Make(x.DType(), dims...), x)
}

// AllReduce creates a collective reduction node over x with the given spec.
// The output shape equals the operand shape.
func (c *Computation) AllReduce(x *Node, spec AllReduceSpec) *Node {
	if spec.ReduceOp == ReduceOpUndefined {
		exceptions.Panicf("AllReduce requires a reduction type, got %s", spec.ReduceOp)
	}
	n := c.newNode(OpTypeAllReduce, x.Shape().Clone(), x)
	cloned := spec.Clone()
	n.allReduce = &cloned
	return n
}

// Tuple creates a tuple node aggregating the given elements by position.
func (c *Computation) Tuple(elements ...*Node) *Node {
	elementShapes := make([]shapes.Shape, 0, len(elements))
	for _, element := range elements {
		elementShapes = append(elementShapes, element.Shape())
	}
	return c.newNode(OpTypeTuple, shapes.MakeTuple(elementShapes), elements...)
}

// Opaque creates a node for an operation this IR does not model: rewrite
// passes treat it as a black box. name is free-form, for printing.
func (c *Computation) Opaque(name string, shape shapes.Shape, operands ...*Node) *Node {
	n := c.newNode(OpTypeOpaque, shape.Clone(), operands...)
	n.opaqueName = name
	return n
}

// RemoveNode removes n from the computation. It fails if n still has users,
// is the computation root, or is a parameter -- parameters are positional,
// so removing one would renumber the interface with the surrounding
// pipeline. The arena handle of n is tombstoned, never reused.
func (c *Computation) RemoveNode(n *Node) error {
	n.AssertValid()
	if n.comp != c {
		return errors.Errorf("node %s belongs to computation %q, not %q", n, n.comp.name, c.name)
	}
	if len(n.users) > 0 {
		return errors.Errorf("cannot remove node %s from %q: it still has %d consumers", n, c.name, n.NumUsers())
	}
	if c.root == n.id {
		return errors.Errorf("cannot remove node %s from %q: it is the root", n, c.name)
	}
	if n.opType == OpTypeParameter {
		return errors.Errorf("cannot remove parameter node %s from %q", n, c.name)
	}
	for _, operandID := range n.operands {
		c.Node(operandID).removeUserEdge(n.id)
	}
	n.operands = nil
	n.removed = true
	c.nodes[n.id] = nil
	return nil
}

// String converts the computation to a multi-line listing, one node per line.
func (c *Computation) String() string {
	parts := []string{fmt.Sprintf("Computation %q: %d node(s), %d parameter(s), root=#%d", c.name, len(c.Nodes()), len(c.parameters), c.root)}
	for _, n := range c.Nodes() {
		parts = append(parts, "\t"+n.String())
	}
	return strings.Join(parts, "\n")
}
