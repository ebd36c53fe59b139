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

package gradacc

import (
	"testing"

	"github.com/Ryb7532/gradsync/hlo"
	"github.com/Ryb7532/gradsync/types/shapes"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReshapeConvertToIsIdempotent(t *testing.T) {
	m := hlo.NewModule("reconcile")
	c := m.NewComputation("entry")
	x := c.Parameter("x", shapes.Make(dtypes.Float32, 2, 3))

	// Already matching: no node added, same node returned, twice.
	numNodes := len(c.Nodes())
	got := reshapeConvertTo(c, x, x.Shape())
	assert.Equal(t, x, got)
	got = reshapeConvertTo(c, got, x.Shape())
	assert.Equal(t, x, got)
	assert.Len(t, c.Nodes(), numNodes)
}

func TestReshapeConvertToBridges(t *testing.T) {
	m := hlo.NewModule("reconcile")
	c := m.NewComputation("entry")
	x := c.Parameter("x", shapes.Make(dtypes.BFloat16, 2, 3))

	target := shapes.Make(dtypes.Float32, 6)
	got := reshapeConvertTo(c, x, target)
	require.True(t, got.Shape().Equal(target))
	assert.Equal(t, hlo.OpTypeReshape, got.Op())
	assert.Equal(t, hlo.OpTypeConvert, got.Operand(0).Op())
	assert.Equal(t, x, got.Operand(0).Operand(0))

	// Reconciling the result again is a no-op.
	assert.Equal(t, got, reshapeConvertTo(c, got, target))
}

func TestConvertToOnlyTouchesDType(t *testing.T) {
	m := hlo.NewModule("reconcile")
	c := m.NewComputation("entry")
	x := c.Parameter("x", shapes.Make(dtypes.Float32, 4))

	assert.Equal(t, x, convertTo(c, x, dtypes.Float32))
	got := convertTo(c, x, dtypes.Float64)
	assert.Equal(t, hlo.OpTypeConvert, got.Op())
	assert.Equal(t, dtypes.Float64, got.DType())
	assert.Equal(t, x.Shape().Dimensions, got.Shape().Dimensions)
}

func TestReshapeConvertTuple(t *testing.T) {
	m := hlo.NewModule("reconcile")
	c := m.NewComputation("entry")
	x := c.Parameter("x", shapes.Make(dtypes.Float32, 4))
	y := c.Parameter("y", shapes.Make(dtypes.Float32, 2, 2))

	target := shapes.MakeTuple([]shapes.Shape{
		shapes.Make(dtypes.Float64, 4),
		shapes.Make(dtypes.Float32, 4),
	})
	got, err := reshapeConvertTuple(c, []*hlo.Node{x, y}, target)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Shape().Equal(target.TupleShapes[0]))
	assert.True(t, got[1].Shape().Equal(target.TupleShapes[1]))

	// Count mismatches are an arity error, for tuple and non-tuple targets.
	_, err = reshapeConvertTuple(c, []*hlo.Node{x}, target)
	assert.ErrorIs(t, err, ErrArityMismatch)
	_, err = reshapeConvertTuple(c, []*hlo.Node{x, y}, shapes.Make(dtypes.Float32, 4))
	assert.ErrorIs(t, err, ErrArityMismatch)

	single, err := reshapeConvertTuple(c, []*hlo.Node{y}, shapes.Make(dtypes.Float32, 4))
	require.NoError(t, err)
	assert.Equal(t, []int{4}, single[0].Shape().Dimensions)
}
