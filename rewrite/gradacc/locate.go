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

import "github.com/Ryb7532/gradsync/hlo"

// findAllReduce returns the all-reduce reachable backward from node through
// a chain of transparent (shape/type-preserving) unary ops, or through
// exactly one branch of an element-wise multiply -- the latter models a
// gradient scaled by a loss-scale constant on the other branch. It returns
// nil when no reduction is reachable, or when both multiply branches reach
// one (ambiguous).
//
// The query is pure: it never mutates the graph.
func findAllReduce(node *hlo.Node) *hlo.Node {
	switch op := node.Op(); {
	case op == hlo.OpTypeAllReduce:
		return node
	case op.IsTransparent():
		return findAllReduce(node.Operand(0))
	case op == hlo.OpTypeMultiply:
		lhs := findAllReduce(node.Operand(0))
		rhs := findAllReduce(node.Operand(1))
		if lhs != nil && rhs == nil {
			return lhs
		}
		if lhs == nil && rhs != nil {
			return rhs
		}
	}
	return nil
}
