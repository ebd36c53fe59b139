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
	"fmt"
	"strings"

	"github.com/Ryb7532/gradsync/hlo"
)

// channelIDsDelimiter separates (and bounds) the ids in the reports of
// ElidableChannelIDs.
const channelIDsDelimiter = "."

// ElidableChannelIDs scans the computation and reports the communication
// channel ids of the all-reduce nodes tagged MetaSkippableAllReduce, for the
// external scheduler that decides which reductions to skip per iteration.
//
// The report is delimiter-separated and bounded by leading and trailing
// delimiters, e.g. ".3.7."; it is just "." when no node qualifies or the
// rewrite is disabled. The query is read-only.
func ElidableChannelIDs(entry *hlo.Computation, cfg Config) string {
	var b strings.Builder
	b.WriteString(channelIDsDelimiter)
	if !cfg.Enabled || entry == nil {
		return b.String()
	}
	for _, n := range entry.Nodes() {
		if n.Op() != hlo.OpTypeAllReduce || n.MetadataOpName() != MetaSkippableAllReduce {
			continue
		}
		if id := n.AllReduce().ChannelID; id != 0 {
			fmt.Fprintf(&b, "%d%s", id, channelIDsDelimiter)
		}
	}
	return b.String()
}
