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
	"github.com/Ryb7532/gradsync/hlo"
	"github.com/Ryb7532/gradsync/types/shapes"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// This file holds the shape/type reconciliation helpers: they bridge a node
// to a target shape by inserting the minimal convert/reshape adapters, and
// are no-ops when the node already matches. Idempotency comes from shape
// equality, not node identity: reconciling an already-reconciled node
// changes nothing.

// convertTo returns n, or a convert of n to dtype when the element types
// differ.
func convertTo(entry *hlo.Computation, n *hlo.Node, dtype dtypes.DType) *hlo.Node {
	if n.DType() == dtype {
		return n
	}
	return entry.Convert(n, dtype)
}

// reshapeConvertTo returns n, or n bridged to target: element type
// reconciled first, then a reshape to the target dimensions.
func reshapeConvertTo(entry *hlo.Computation, n *hlo.Node, target shapes.Shape) *hlo.Node {
	if n.Shape().Equal(target) {
		return n
	}
	return entry.Reshape(convertTo(entry, n, target.DType), target.Dimensions...)
}

// reshapeConvertTuple reconciles nodes element-wise to the components of a
// tuple target, or a single node to a non-tuple target. A count mismatch is
// an ErrArityMismatch.
func reshapeConvertTuple(entry *hlo.Computation, nodes []*hlo.Node, target shapes.Shape) ([]*hlo.Node, error) {
	if target.IsTuple() {
		if len(nodes) != target.TupleSize() {
			return nil, errors.Wrapf(ErrArityMismatch, "reconciling %d node(s) to tuple shape %s with %d components", len(nodes), target, target.TupleSize())
		}
		reconciled := make([]*hlo.Node, 0, len(nodes))
		for i, n := range nodes {
			reconciled = append(reconciled, reshapeConvertTo(entry, n, target.TupleShapes[i]))
		}
		return reconciled, nil
	}
	if len(nodes) != 1 {
		return nil, errors.Wrapf(ErrArityMismatch, "reconciling %d node(s) to non-tuple shape %s", len(nodes), target)
	}
	return []*hlo.Node{reshapeConvertTo(entry, nodes[0], target)}, nil
}
