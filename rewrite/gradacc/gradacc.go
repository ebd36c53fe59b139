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

// Package gradacc rewrites how gradient-accumulation all-reduce
// communication is scheduled in an hlo.Module.
//
// In distributed training with gradient accumulation, each replica adds a
// freshly reduced gradient into a replica-local accumulator on every
// micro-step:
//
//	output[i] = add(accumulator, chain(all-reduce(gradient)))
//
// where chain is an arbitrary sequence of shape/type-preserving ops,
// possibly including a loss-scale multiply. Reducing on every micro-step
// wastes communication: the sum of reductions equals the reduction of the
// sum. The package offers two transformations:
//
//   - Fold moves the all-reduce past the accumulation add, so it runs over
//     the accumulated value instead of inside the accumulation loop, and tags
//     it MetaSkippableAllReduce: a downstream scheduler may then skip it on
//     the intermediate micro-steps.
//
//   - Delay additionally relocates the all-reduce out of the producer module
//     (backward pass) into the consumer module (weight update) of a
//     ModuleGroup, rebuilding it over the consumer parameter that receives
//     the accumulated value. The consumer's compute then overlaps the
//     producer's communication across the pipeline-stage boundary. Relocated
//     reductions receive a fresh channel id, unique within the consumer.
//
// ElidableChannelIDs reports the channel ids of the tagged reductions for an
// external scheduler.
//
// Soundness precondition: moving a sum all-reduce past the accumulation add
// assumes the non-reduced add operand (the accumulator) is already
// value-identical across the replica group performing the reduction. The
// calling pipeline asserts this by construction; it cannot be checked from
// the graph alone, and this package does not try.
package gradacc

import (
	"github.com/Ryb7532/gradsync/hlo"
	"github.com/pkg/errors"
)

// Metadata op-names the pass sets on all-reduce nodes, consumed by the
// runtime scheduler.
const (
	// MetaSkippableAllReduce tags a folded reduction the scheduler may skip
	// on iterations where its result is not yet needed.
	MetaSkippableAllReduce = "grad_acc_skippable_all_reduce"

	// MetaAllReduceToBeRemoved tags a producer-side reduction that was
	// relocated into the consumer module and is pending removal.
	MetaAllReduceToBeRemoved = "grad_acc_all_reduce_to_be_removed"
)

// matchAccumulation locates the accumulation pattern at root position pos of
// entry: an element-wise add whose second operand reaches an all-reduce with
// a single consumer and a single operand.
//
// A nil add (with nil error) means the directive does not apply and must be
// skipped: wrong opcode at the position, no reachable reduction, or a
// reduction with other consumers whose semantics the rewrite would change.
func matchAccumulation(entry *hlo.Computation, pos int) (add, allReduce *hlo.Node, err error) {
	root := entry.Root()
	if root == nil || root.Op() != hlo.OpTypeTuple {
		return nil, nil, errors.Wrapf(ErrPrecondition, "root of computation %q must be a tuple, got %s", entry.Name(), root)
	}
	if pos < 0 || pos >= root.NumOperands() {
		return nil, nil, errors.Wrapf(ErrPrecondition, "output position %d out of range: root tuple of %q has %d operands", pos, entry.Name(), root.NumOperands())
	}
	add = root.Operand(pos)
	if add.Op() != hlo.OpTypeAdd {
		return nil, nil, nil
	}
	allReduce = findAllReduce(add.Operand(1))
	if allReduce == nil || allReduce.NumUsers() != 1 {
		return nil, nil, nil
	}
	if allReduce.NumOperands() != 1 {
		return nil, nil, errors.Wrapf(ErrInvariant, "all-reduce %s feeding output position %d of %q must have exactly one operand", allReduce, pos, entry.Name())
	}
	return add, allReduce, nil
}

// detachAllReduce structurally removes allReduce from the path of its sole
// consumer: each operand edge the consumer holds to it is rewired to the
// pre-reduction operand, reconciled to the shape the consumer expects.
func detachAllReduce(entry *hlo.Computation, allReduce *hlo.Node) {
	user := allReduce.Users()[0]
	for i := 0; i < user.NumOperands(); i++ {
		if user.Operand(i) != allReduce {
			continue
		}
		expected := user.Operand(i).Shape()
		user.ReplaceOperand(i, reshapeConvertTo(entry, allReduce.Operand(0), expected))
	}
}

// foldReduction re-inserts a detached allReduce after the accumulation add:
// the add (reconciled to the reduction's input shape) becomes its operand,
// root position pos consumes its output (reconciled back to the add's
// shape), and it is tagged skippable.
//
// If the element types of the reduction and the add disagree, the reduction
// is reconstructed from scratch with the add's element type, keeping its
// collective spec (replica groups, layout constraint, channel id, global
// device ids); the original is rewired away and scheduled for removal.
func foldReduction(entry *hlo.Computation, add, allReduce *hlo.Node, pos int, toRemove *[]*hlo.Node) error {
	root := entry.Root()
	allReduce.ReplaceOperand(0, reshapeConvertTo(entry, add, allReduce.Shape()))
	root.ReplaceOperand(pos, reshapeConvertTo(entry, allReduce, add.Shape()))
	allReduce.SetMetadataOpName(MetaSkippableAllReduce)

	if allReduce.DType() == add.DType() {
		return nil
	}
	operands, err := reshapeConvertTuple(entry, allReduce.Operands(), add.Shape())
	if err != nil {
		return err
	}
	newAllReduce := entry.AllReduce(operands[0], allReduce.AllReduce())
	newAllReduce.SetMetadataOpName(allReduce.MetadataOpName())
	allReduce.ReplaceAllUsesWith(reshapeConvertTo(entry, newAllReduce, allReduce.Shape()))
	*toRemove = append(*toRemove, allReduce)
	return nil
}

// removeScheduled removes the scheduled nodes whose user set became empty.
// Nodes that (re)gained consumers are left in place.
func removeScheduled(entry *hlo.Computation, scheduled []*hlo.Node) error {
	for _, n := range scheduled {
		if n.NumUsers() > 0 {
			continue
		}
		if err := entry.RemoveNode(n); err != nil {
			return err
		}
	}
	return nil
}
