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

// Package shapes defines Shape, the static type of a value flowing through an
// HLO computation: an element type (DType) plus dimensions, or a tuple of
// component shapes.
//
// The DType enumeration comes from github.com/gomlx/gopjrt/dtypes, the same
// one used by XLA/PJRT bindings, so shapes here interoperate directly with
// anything built on that stack. Float16 support comes from
// github.com/x448/float16 through the dtypes package.
//
// Glossary:
//
//   - Rank: number of axes (dimensions) of a value.
//   - Axis: the index of a dimension; its size is the dimension.
//   - DType: the data type of the unit element.
//   - Scalar: a shape with no axes, a single value of the associated DType.
//   - Tuple: an aggregate of component shapes, by position. Computation roots
//     are typically tuples.
package shapes

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
	. "github.com/gomlx/gopjrt/dtypes"
)

// Shape represents the shape of a node in an HLO computation: its element
// DType and dimensions, or, for tuples, the shapes of the components.
//
// Use Make (or MakeTuple) to create one. Shape is a value type: compare with
// Equal, never with ==, since Dimensions is a slice.
type Shape struct {
	DType       DType
	Dimensions  []int
	TupleShapes []Shape // Shapes of the tuple components, if this is a tuple.
}

// Make returns a Shape with the given DType and dimensions. A call without
// dimensions creates a scalar shape.
//
// It panics if any dimension is <= 0.
func Make(dtype DType, dimensions ...int) Shape {
	s := Shape{DType: dtype, Dimensions: slices.Clone(dimensions)}
	for _, dim := range dimensions {
		if dim <= 0 {
			exceptions.Panicf("shapes.Make(%s): cannot create a shape with an axis with dimension <= 0", s)
		}
	}
	return s
}

// MakeTuple returns a shape representing a tuple of components with the given
// shapes.
func MakeTuple(elements []Shape) Shape {
	return Shape{DType: InvalidDType, TupleShapes: slices.Clone(elements)}
}

// Invalid returns an invalid shape: Invalid().Ok() == false.
func Invalid() Shape { return Shape{DType: InvalidDType} }

// Ok returns whether this is a valid Shape. The zero value Shape{} is invalid.
func (s Shape) Ok() bool { return s.DType != InvalidDType || len(s.TupleShapes) > 0 }

// Rank of the shape: the number of dimensions. Zero for scalars and tuples.
func (s Shape) Rank() int { return len(s.Dimensions) }

// IsScalar returns whether the shape has rank 0 (and is not a tuple).
func (s Shape) IsScalar() bool { return s.Ok() && !s.IsTuple() && s.Rank() == 0 }

// IsTuple returns whether the shape represents a tuple.
func (s Shape) IsTuple() bool { return s.DType == InvalidDType && len(s.TupleShapes) > 0 }

// TupleSize returns the number of components of the tuple, or 0 if not a tuple.
func (s Shape) TupleSize() int { return len(s.TupleShapes) }

// Dim returns the dimension of the given axis. Negative axis values count
// from the end, so Dim(-1) is the dimension of the last axis. It panics for
// an out-of-bounds axis.
func (s Shape) Dim(axis int) int {
	adjusted := axis
	if adjusted < 0 {
		adjusted += s.Rank()
	}
	if adjusted < 0 || adjusted >= s.Rank() {
		exceptions.Panicf("Shape.Dim(%d) out-of-bounds for rank %d (shape=%s)", axis, s.Rank(), s)
	}
	return s.Dimensions[adjusted]
}

// Size returns the number of elements of DType the shape holds, the product
// of all dimensions. It is 1 for scalars.
func (s Shape) Size() int {
	size := 1
	for _, dim := range s.Dimensions {
		size *= dim
	}
	return size
}

// Shape returns a shallow copy of itself. It implements the HasShape interface.
func (s Shape) Shape() Shape { return s }

// HasShape is satisfied by anything with an associated Shape: shapes
// themselves, and IR nodes.
type HasShape interface {
	Shape() Shape
}

// Equal compares DType and dimensions (recursively for tuples).
func (s Shape) Equal(s2 Shape) bool {
	if s.DType != s2.DType {
		return false
	}
	if s.IsTuple() || s2.IsTuple() {
		if s.TupleSize() != s2.TupleSize() {
			return false
		}
		for ii, element := range s.TupleShapes {
			if !element.Equal(s2.TupleShapes[ii]) {
				return false
			}
		}
		return true
	}
	return slices.Equal(s.Dimensions, s2.Dimensions)
}

// EqualDType compares only the element types. For tuples it compares
// component element types position-wise.
func (s Shape) EqualDType(s2 Shape) bool {
	if s.IsTuple() || s2.IsTuple() {
		if s.TupleSize() != s2.TupleSize() {
			return false
		}
		for ii, element := range s.TupleShapes {
			if !element.EqualDType(s2.TupleShapes[ii]) {
				return false
			}
		}
		return true
	}
	return s.DType == s2.DType
}

// WithDType returns a copy of the shape with the element type replaced and
// the dimensions preserved. It does not work for tuples.
func (s Shape) WithDType(dtype DType) Shape {
	if s.IsTuple() {
		exceptions.Panicf("Shape.WithDType(%s) does not work on tuple shape %s", dtype, s)
	}
	return Shape{DType: dtype, Dimensions: slices.Clone(s.Dimensions)}
}

// Clone returns a deep copy of the shape.
func (s Shape) Clone() (s2 Shape) {
	s2.DType = s.DType
	s2.Dimensions = slices.Clone(s.Dimensions)
	if s.TupleSize() > 0 {
		s2.TupleShapes = make([]Shape, 0, len(s.TupleShapes))
		for _, subShape := range s.TupleShapes {
			s2.TupleShapes = append(s2.TupleShapes, subShape.Clone())
		}
	}
	return
}

// String implements fmt.Stringer, pretty-printing the shape as
// "(dtype)[dims]", or "Tuple<...>" for tuples.
func (s Shape) String() string {
	if s.IsTuple() {
		parts := make([]string, 0, s.TupleSize())
		for _, tuple := range s.TupleShapes {
			parts = append(parts, tuple.String())
		}
		return fmt.Sprintf("Tuple<%s>", strings.Join(parts, ", "))
	}
	if s.Rank() == 0 {
		return fmt.Sprintf("(%s)", s.DType)
	}
	return fmt.Sprintf("(%s)%v", s.DType, s.Dimensions)
}
