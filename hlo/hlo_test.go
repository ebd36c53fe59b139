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

package hlo_test

import (
	"testing"

	"github.com/Ryb7532/gradsync/hlo"
	"github.com/Ryb7532/gradsync/types/shapes"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testShape = shapes.Make(dtypes.Float32, 4)

func sumSpec(channelID int64) hlo.AllReduceSpec {
	return hlo.AllReduceSpec{
		ReduceOp:      hlo.ReduceOpSum,
		ReplicaGroups: [][]int{{0, 1}},
		ChannelID:     channelID,
	}
}

func TestBuilders(t *testing.T) {
	m := hlo.NewModule("test")
	c := m.NewComputation("entry")
	require.Equal(t, c, m.Entry())

	p0 := c.Parameter("acc", testShape)
	p1 := c.Parameter("", testShape)
	assert.Equal(t, 0, p0.ParameterIndex())
	assert.Equal(t, "p#1", p1.ParameterName())

	ar := c.AllReduce(p1, sumSpec(3))
	assert.Equal(t, hlo.OpTypeAllReduce, ar.Op())
	assert.True(t, ar.Shape().Equal(testShape))
	assert.Equal(t, int64(3), ar.AllReduce().ChannelID)

	add := c.Add(p0, ar)
	assert.True(t, add.Shape().Equal(testShape))

	cvt := c.Convert(add, dtypes.BFloat16)
	assert.Equal(t, dtypes.BFloat16, cvt.DType())
	assert.Equal(t, testShape.Dimensions, cvt.Shape().Dimensions)

	rsh := c.Reshape(add, 2, 2)
	assert.Equal(t, []int{2, 2}, rsh.Shape().Dimensions)

	root := c.Tuple(add)
	c.SetRoot(root)
	assert.True(t, root.Shape().IsTuple())
	assert.Equal(t, root, c.Root())

	param, err := c.ParameterAt(1)
	require.NoError(t, err)
	assert.Equal(t, p1, param)
	_, err = c.ParameterAt(2)
	require.Error(t, err)
}

func TestBuilderPanics(t *testing.T) {
	m := hlo.NewModule("test")
	c := m.NewComputation("entry")
	x := c.Parameter("x", testShape)
	y := c.Parameter("y", shapes.Make(dtypes.Float32, 8))

	assert.NotNil(t, exceptions.Try(func() { c.Add(x, y) }), "shape mismatch must panic")
	assert.NotNil(t, exceptions.Try(func() { c.Reshape(x, 3) }), "element count change must panic")
	assert.NotNil(t, exceptions.Try(func() { c.Transpose(x, 0, 0) }), "bad permutation must panic")
	assert.NotNil(t, exceptions.Try(func() { c.AllReduce(x, hlo.AllReduceSpec{}) }), "undefined reduce op must panic")

	other := m.NewComputation("other")
	assert.NotNil(t, exceptions.Try(func() { other.Copy(x) }), "cross-computation operand must panic")
}

func TestUsersMaintenance(t *testing.T) {
	m := hlo.NewModule("test")
	c := m.NewComputation("entry")
	x := c.Parameter("x", testShape)
	y := c.Parameter("y", testShape)

	// x consumed twice by the same node counts as one user.
	sq := c.Mul(x, x)
	assert.Equal(t, 1, x.NumUsers())
	assert.Equal(t, []*hlo.Node{sq}, x.Users())

	add := c.Add(sq, y)
	assert.Equal(t, 1, sq.NumUsers())

	// Redirect one edge of sq from x to y: x keeps sq as user through the
	// remaining slot.
	sq.ReplaceOperand(0, y)
	assert.Equal(t, 1, x.NumUsers())
	assert.ElementsMatch(t, []*hlo.Node{sq, add}, y.Users())

	sq.ReplaceOperand(1, y)
	assert.Equal(t, 0, x.NumUsers())
}

func TestReplaceAllUsesWith(t *testing.T) {
	m := hlo.NewModule("test")
	c := m.NewComputation("entry")
	x := c.Parameter("x", testShape)
	a := c.Copy(x)
	b := c.Copy(x)
	root := c.Tuple(a, b)
	c.SetRoot(root)

	repl := c.Copy(x) // consumes x; must not be rewired onto itself
	x.ReplaceAllUsesWith(repl)

	assert.Equal(t, repl, a.Operand(0))
	assert.Equal(t, repl, b.Operand(0))
	assert.Equal(t, x, repl.Operand(0))
	assert.Equal(t, 1, x.NumUsers())
	assert.ElementsMatch(t, []*hlo.Node{a, b}, repl.Users())
}

func TestRemoveNode(t *testing.T) {
	m := hlo.NewModule("test")
	c := m.NewComputation("entry")
	x := c.Parameter("x", testShape)
	cp := c.Copy(x)
	root := c.Tuple(cp)
	c.SetRoot(root)

	require.Error(t, c.RemoveNode(cp), "node with users cannot be removed")
	require.Error(t, c.RemoveNode(root), "root cannot be removed")
	require.Error(t, c.RemoveNode(x), "parameter cannot be removed")

	root.ReplaceOperand(0, x)
	require.NoError(t, c.RemoveNode(cp))
	assert.Nil(t, c.Node(cp.ID()))
	assert.Len(t, c.Nodes(), 3)
	assert.Equal(t, 1, x.NumUsers(), "removal must drop the operand edge of the removed node")
}

func TestReserveChannelID(t *testing.T) {
	m := hlo.NewModule("test")
	c := m.NewComputation("entry")
	x := c.Parameter("x", testShape)
	c.AllReduce(x, sumSpec(7))
	c.AllReduce(x, sumSpec(0)) // no channel assigned

	assert.Equal(t, int64(7), m.MaxChannelID())
	assert.Equal(t, int64(8), m.ReserveChannelID())
	assert.Equal(t, int64(9), m.ReserveChannelID(), "reserved ids are never repeated, even while unassigned")

	// A manually assigned id above the counter re-seeds it.
	c.AllReduce(x, sumSpec(20))
	assert.Equal(t, int64(21), m.ReserveChannelID())
}

func TestOpTypeEnum(t *testing.T) {
	assert.Equal(t, "AllReduce", hlo.OpTypeAllReduce.String())
	assert.Equal(t, "Add", hlo.OpTypeAdd.String())
	v, err := hlo.OpTypeString("multiply")
	require.NoError(t, err)
	assert.Equal(t, hlo.OpTypeMultiply, v)
	assert.True(t, hlo.OpTypeConvert.IsTransparent())
	assert.False(t, hlo.OpTypeAdd.IsTransparent())
	assert.Equal(t, "Sum", hlo.ReduceOpSum.String())
}

func TestStrings(t *testing.T) {
	m := hlo.NewModule("test")
	c := m.NewComputation("entry")
	x := c.Parameter("x", testShape)
	ar := c.AllReduce(x, sumSpec(3))
	ar.SetMetadataOpName("tagged")
	c.SetRoot(c.Tuple(ar))

	str := m.String()
	assert.Contains(t, str, `Parameter("x", index=0)`)
	assert.Contains(t, str, "AllReduce(#0) reduce=Sum channel=3 [tagged]")
	assert.Contains(t, str, "(entry)")
}
