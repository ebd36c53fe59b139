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

import "github.com/pkg/errors"

// Failure kinds returned by the rewrite entry points. Every returned error
// wraps one of these with context naming the offending nodes or positions;
// test with errors.Is. Unmet pattern preconditions (wrong opcode at a
// position, no reachable reduction, multiple consumers) are not errors: the
// directive is skipped and processing continues.
var (
	// ErrArityMismatch reports parallel directive lists of unequal length,
	// or a tuple/operand count mismatch during shape reconciliation.
	ErrArityMismatch = errors.New("arity mismatch")

	// ErrPrecondition reports a malformed rewrite target: a module group
	// without exactly two modules, a module without an entry computation, a
	// non-tuple root, or a directive addressing a position or parameter
	// index that does not exist.
	ErrPrecondition = errors.New("precondition violated")

	// ErrInvariant reports a structural assumption broken in the graph
	// itself, with no reconciliation path defined: an element-type mismatch
	// between a relocated reduction's target parameter and its source add,
	// or an all-reduce with an unexpected operand count.
	ErrInvariant = errors.New("invariant violated")
)
