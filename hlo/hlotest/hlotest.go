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

// Package hlotest holds test utilities for packages that operate on the hlo
// IR: builders for the canonical gradient-accumulation module shapes, so
// rewrite tests stay short and declarative.
//
// The canonical producer entry computation is, per accumulation output:
//
//	add(accumulator, chain(all-reduce(gradient)))
//
// where chain is an optional sequence of transparent ops (convert, reshape,
// ...) and an optional loss-scale multiply, and the root tuple aggregates the
// adds by position. The canonical consumer receives one parameter per
// producer output and applies it through an opaque weight-update op.
package hlotest

import (
	"github.com/Ryb7532/gradsync/hlo"
	"github.com/Ryb7532/gradsync/types/shapes"
	"github.com/gomlx/gopjrt/dtypes"
)

// Output describes one gradient-accumulation output of a fixture module.
type Output struct {
	// Name prefixes the parameter names of this output.
	Name string

	// Dims and DType give the shape of the accumulator (and of the add).
	Dims  []int
	DType dtypes.DType

	// GradDType, if different from DType, is the element type of the
	// gradient and its all-reduce; a convert node bridges it to the add.
	// Zero means same as DType.
	GradDType dtypes.DType

	// ChannelID of the all-reduce; zero means no channel assigned.
	ChannelID int64

	// LossScale wraps the reduced gradient in a multiply by a same-shaped
	// scale parameter, modeling loss scaling.
	LossScale bool

	// ExtraConsumer adds a second consumer of the all-reduce (a copy wired
	// into an extra root position), which makes the rewrite skip the output.
	ExtraConsumer bool
}

func (o Output) dtype() dtypes.DType {
	if o.DType == dtypes.InvalidDType {
		return dtypes.Float32
	}
	return o.DType
}

func (o Output) gradDType() dtypes.DType {
	if o.GradDType == dtypes.InvalidDType {
		return o.dtype()
	}
	return o.GradDType
}

func (o Output) dims() []int {
	if o.Dims == nil {
		return []int{4}
	}
	return o.Dims
}

// ReplicaGroups used by every fixture all-reduce.
var ReplicaGroups = [][]int{{0, 1}}

// SumSpec returns a sum all-reduce spec over ReplicaGroups with the given
// channel id (zero for none).
func SumSpec(channelID int64) hlo.AllReduceSpec {
	return hlo.AllReduceSpec{
		ReduceOp:      hlo.ReduceOpSum,
		ReplicaGroups: ReplicaGroups,
		ChannelID:     channelID,
	}
}

// Producer is a backward-pass fixture module, one entry per Output given to
// BuildProducer, all slices indexed by output position.
type Producer struct {
	Module *hlo.Module
	Entry  *hlo.Computation

	Accums, Grads, AllReduces, Adds []*hlo.Node
	Root                            *hlo.Node
}

// BuildProducer builds a producer module with one accumulation pattern per
// output, aggregated positionally in the root tuple.
func BuildProducer(name string, outputs ...Output) *Producer {
	m := hlo.NewModule(name)
	entry := m.NewComputation("entry")
	p := &Producer{Module: m, Entry: entry}

	var extras []*hlo.Node
	for _, out := range outputs {
		accShape := shapes.Make(out.dtype(), out.dims()...)
		gradShape := shapes.Make(out.gradDType(), out.dims()...)

		acc := entry.Parameter(out.Name+"_acc", accShape)
		grad := entry.Parameter(out.Name+"_grad", gradShape)
		ar := entry.AllReduce(grad, SumSpec(out.ChannelID))

		chain := ar
		if out.gradDType() != out.dtype() {
			chain = entry.Convert(chain, out.dtype())
		}
		if out.LossScale {
			scale := entry.Parameter(out.Name+"_scale", accShape)
			chain = entry.Mul(chain, scale)
		}
		add := entry.Add(acc, chain)

		if out.ExtraConsumer {
			extras = append(extras, entry.Copy(ar))
		}

		p.Accums = append(p.Accums, acc)
		p.Grads = append(p.Grads, grad)
		p.AllReduces = append(p.AllReduces, ar)
		p.Adds = append(p.Adds, add)
	}

	p.Root = entry.Tuple(append(p.Adds[:len(p.Adds):len(p.Adds)], extras...)...)
	entry.SetRoot(p.Root)
	return p
}

// Consumer is a weight-update fixture module: one parameter per producer
// output, each consumed by an opaque apply op wired into the root tuple.
type Consumer struct {
	Module *hlo.Module
	Entry  *hlo.Computation

	Params, Applies []*hlo.Node
	Root            *hlo.Node
}

// BuildConsumer builds a consumer module whose parameters match, positionally
// and in shape, the accumulator outputs described by outputs.
func BuildConsumer(name string, outputs ...Output) *Consumer {
	m := hlo.NewModule(name)
	entry := m.NewComputation("entry")
	c := &Consumer{Module: m, Entry: entry}

	for _, out := range outputs {
		paramShape := shapes.Make(out.dtype(), out.dims()...)
		param := entry.Parameter(out.Name, paramShape)
		apply := entry.Opaque("apply-gradient", paramShape, param)
		c.Params = append(c.Params, param)
		c.Applies = append(c.Applies, apply)
	}

	c.Root = entry.Tuple(c.Applies...)
	entry.SetRoot(c.Root)
	return c
}

// BuildPair builds a producer/consumer module group over the same outputs.
func BuildPair(name string, outputs ...Output) (*Producer, *Consumer, *hlo.ModuleGroup) {
	producer := BuildProducer(name+"_backward", outputs...)
	consumer := BuildConsumer(name+"_applygrad", outputs...)
	group := hlo.NewModuleGroup(name, producer.Module, consumer.Module)
	return producer, consumer, group
}
