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
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Delay rewrites across a producer/consumer module pair: for every pair of
// parallel directives (output position in the producer, parameter index in
// the consumer), the located all-reduce is either folded in place in the
// producer -- when the parameter index is SameGraph, behaving exactly like
// Fold -- or relocated into the consumer entry computation: rebuilt over the
// consumer parameter, assigned a fresh channel id unique within the
// consumer, and removed from the producer. Relocation lets the consumer's
// compute overlap the producer's communication.
//
// The group must hold exactly two modules and the directive lists must have
// equal length; both are checked before any mutation. It returns whether any
// rewrite occurred. With cfg.Enabled == false it is a no-op returning false.
func Delay(group *hlo.ModuleGroup, cfg Config) (bool, error) {
	if !cfg.Enabled {
		return false, nil
	}
	if group.Size() != 2 {
		return false, errors.Wrapf(ErrPrecondition, "module group %q must hold exactly two modules (producer, consumer), got %d", group.Name(), group.Size())
	}
	if len(cfg.OutputPositions) != len(cfg.ConsumerParams) {
		return false, errors.Wrapf(ErrArityMismatch, "%d output position(s) but %d consumer parameter index(es)", len(cfg.OutputPositions), len(cfg.ConsumerParams))
	}
	producer, consumer := group.Modules()[0], group.Modules()[1]
	producerEntry, consumerEntry := producer.Entry(), consumer.Entry()
	if producerEntry == nil || consumerEntry == nil {
		return false, errors.Wrapf(ErrPrecondition, "both modules of group %q need an entry computation", group.Name())
	}
	if klog.V(2).Enabled() {
		klog.Infof("gradacc.Delay: group %q before rewrite:\n%s\n%s", group.Name(), producer, consumer)
	}

	changed := false
	var removeInProducer, removeInConsumer []*hlo.Node
	for j, pos := range cfg.OutputPositions {
		paramIdx := cfg.ConsumerParams[j]
		add, allReduce, err := matchAccumulation(producerEntry, pos)
		if err != nil {
			return changed, err
		}
		if add == nil {
			klog.V(1).Infof("gradacc.Delay: no accumulation pattern at output %d of %q, skipping", pos, producer.Name())
			continue
		}
		detachAllReduce(producerEntry, allReduce)

		if paramIdx == SameGraph {
			if err := foldReduction(producerEntry, add, allReduce, pos, &removeInProducer); err != nil {
				return changed, err
			}
			klog.V(1).Infof("gradacc.Delay: folded all-reduce %s in place at output %d of %q", allReduce, pos, producer.Name())
		} else {
			allReduce.SetMetadataOpName(MetaAllReduceToBeRemoved)
			if err := relocateReduction(consumer, add, allReduce, paramIdx, &removeInConsumer); err != nil {
				return changed, err
			}
			removeInProducer = append(removeInProducer, allReduce)
			klog.V(1).Infof("gradacc.Delay: relocated all-reduce from output %d of %q to parameter %d of %q", pos, producer.Name(), paramIdx, consumer.Name())
		}
		changed = true
	}
	if err := removeScheduled(producerEntry, removeInProducer); err != nil {
		return changed, err
	}
	if err := removeScheduled(consumerEntry, removeInConsumer); err != nil {
		return changed, err
	}

	if klog.V(2).Enabled() {
		klog.Infof("gradacc.Delay: group %q after rewrite:\n%s\n%s", group.Name(), producer, consumer)
	}
	return changed, nil
}

// relocateReduction rebuilds the detached producer-side allReduce in the
// consumer's entry computation, over the parameter at paramIdx that receives
// the accumulated value: the parameter (reconciled to the reduction's input
// shape) becomes the operand of a new reduction carrying the original's
// collective spec and, when the original crossed a communication fabric, a
// freshly reserved channel id; every pre-existing consumer of the parameter
// is rewired to read the reduced value instead, reconciled back to the
// parameter's shape.
//
// The parameter's element type must match the accumulation add's: anything
// else has no reconciliation path here and is an ErrInvariant.
func relocateReduction(consumer *hlo.Module, add, allReduce *hlo.Node, paramIdx int, toRemove *[]*hlo.Node) error {
	entry := consumer.Entry()
	param, err := entry.ParameterAt(paramIdx)
	if err != nil {
		return errors.Wrapf(ErrPrecondition, "resolving consumer parameter %d in %q: %s", paramIdx, entry.Name(), err)
	}
	if param.DType() != add.DType() {
		return errors.Wrapf(ErrInvariant, "cannot delay all-reduce %s: element type %s of consumer parameter %s does not match element type %s of accumulation %s", allReduce, param.DType(), param, add.DType(), add)
	}

	spec := allReduce.AllReduce()
	if spec.ChannelID != 0 {
		spec.ChannelID = consumer.ReserveChannelID()
	}

	// Snapshot the parameter's consumers before building the new reduction:
	// the reduction and its reconciliation chain also read the parameter and
	// must not be rewired onto themselves.
	priorUsers := param.Users()
	newAllReduce := entry.AllReduce(reshapeConvertTo(entry, param, allReduce.Shape()), spec)
	replacement := reshapeConvertTo(entry, newAllReduce, param.Shape())
	for _, user := range priorUsers {
		for i := 0; i < user.NumOperands(); i++ {
			if user.Operand(i) == param {
				user.ReplaceOperand(i, replacement)
			}
		}
	}

	// The relocated reduction kept the producer-side element type; when it
	// differs from the parameter's, reconstruct it with the parameter's
	// element type, like the fold path does with the add's.
	if newAllReduce.DType() != param.DType() {
		operands, err := reshapeConvertTuple(entry, newAllReduce.Operands(), param.Shape())
		if err != nil {
			return err
		}
		fixed := entry.AllReduce(operands[0], newAllReduce.AllReduce())
		fixed.SetMetadataOpName(newAllReduce.MetadataOpName())
		newAllReduce.ReplaceAllUsesWith(reshapeConvertTo(entry, fixed, newAllReduce.Shape()))
		*toRemove = append(*toRemove, newAllReduce)
	}
	return nil
}
