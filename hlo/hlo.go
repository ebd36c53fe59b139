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

// Package hlo models the slice of an HLO-style dataflow IR that the gradsync
// rewrite passes operate on: Modules owning Computations owning Nodes.
//
// The main elements in the package are:
//
//   - Module: a compilation unit. It owns one or more Computations, has a
//     distinguished entry Computation, and scopes the communication
//     channel-id space: channel ids of collective operations must be unique
//     within a Module.
//
//   - Computation: an owned, mutable DAG of Nodes with a single designated
//     root (output) node. Nodes live in an arena and are addressed by stable
//     NodeID handles; operand, user and root relations are index lookups, so
//     edge rewiring is O(1) and no raw aliasing escapes the arena.
//
//   - Node: one operation -- parameter, element-wise add/multiply, the
//     shape/type-preserving unary ops (convert, reshape, copy, bitcast,
//     transpose), all-reduce, tuple, or an opaque operation this IR does not
//     model. Collective nodes additionally carry an AllReduceSpec.
//
// Graph construction panics (through github.com/gomlx/exceptions) on
// structural misuse; the rewrite passes in rewrite/... only ever return
// errors.
package hlo

import (
	"fmt"
	"strings"

	"github.com/gomlx/exceptions"
)

// Module is a compilation unit: it owns computations, one of them the entry,
// and scopes the channel-id space of its collective operations.
type Module struct {
	name         string
	computations []*Computation
	entry        *Computation

	// nextChannelID is the high-water mark of ids handed out by
	// ReserveChannelID during the current rewrite invocation.
	nextChannelID int64
}

// NewModule creates an empty Module.
func NewModule(name string) *Module {
	return &Module{name: name}
}

// Name of the module.
func (m *Module) Name() string { return m.name }

// NewComputation creates an empty computation owned by this module. The
// first computation created becomes the entry computation.
func (m *Module) NewComputation(name string) *Computation {
	c := &Computation{module: m, name: name, root: InvalidNodeID}
	m.computations = append(m.computations, c)
	if m.entry == nil {
		m.entry = c
	}
	return c
}

// Computations returns the computations owned by the module, in creation
// order.
func (m *Module) Computations() []*Computation { return m.computations }

// Entry returns the entry computation, or nil for an empty module.
func (m *Module) Entry() *Computation { return m.entry }

// SetEntry designates the entry computation. It must be owned by this module.
func (m *Module) SetEntry(c *Computation) {
	if c.module != m {
		exceptions.Panicf("computation %q belongs to module %q, not %q", c.name, c.module.name, m.name)
	}
	m.entry = c
}

// MaxChannelID scans every computation and returns the largest communication
// channel id in use, or 0 if none.
func (m *Module) MaxChannelID() int64 {
	var maxID int64
	for _, c := range m.computations {
		for _, n := range c.Nodes() {
			if n.Op() != OpTypeAllReduce {
				continue
			}
			if id := n.allReduce.ChannelID; id > maxID {
				maxID = id
			}
		}
	}
	return maxID
}

// ReserveChannelID returns a fresh channel id, strictly greater than every
// id currently in use in the module and than every id previously reserved,
// even if not yet assigned to a node.
func (m *Module) ReserveChannelID() int64 {
	id := max(m.nextChannelID, m.MaxChannelID()) + 1
	m.nextChannelID = id
	return id
}

// String lists all computations of the module, the entry first.
func (m *Module) String() string {
	parts := []string{fmt.Sprintf("Module %q: %d computation(s)", m.name, len(m.computations))}
	for _, c := range m.computations {
		marker := ""
		if c == m.entry {
			marker = " (entry)"
		}
		parts = append(parts, fmt.Sprintf("%s%s", c, marker))
	}
	return strings.Join(parts, "\n")
}

// ModuleGroup is an ordered collection of Modules compiled together. The
// cross-module rewrite expects exactly two: a producer unit (backward pass)
// whose entry-computation outputs feed, positionally, the parameters of a
// consumer unit (weight-update pass).
type ModuleGroup struct {
	name    string
	modules []*Module
}

// NewModuleGroup creates a group over the given modules, in order.
func NewModuleGroup(name string, modules ...*Module) *ModuleGroup {
	return &ModuleGroup{name: name, modules: modules}
}

// Name of the group.
func (g *ModuleGroup) Name() string { return g.name }

// Modules returns the modules of the group, in order.
func (g *ModuleGroup) Modules() []*Module { return g.modules }

// Size returns the number of modules in the group.
func (g *ModuleGroup) Size() int { return len(g.modules) }
