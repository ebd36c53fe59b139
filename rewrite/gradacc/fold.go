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

// Fold rewrites the entry computation of m: for every configured output
// position holding an accumulation pattern, the all-reduce is moved from
// before the accumulation add to after it and tagged MetaSkippableAllReduce.
// Positions where the pattern preconditions are unmet are skipped silently.
//
// It returns whether any rewrite occurred. With cfg.Enabled == false it is a
// no-op returning false.
func Fold(m *hlo.Module, cfg Config) (bool, error) {
	if !cfg.Enabled {
		return false, nil
	}
	entry := m.Entry()
	if entry == nil {
		return false, errors.Wrapf(ErrPrecondition, "module %q has no entry computation", m.Name())
	}
	if klog.V(2).Enabled() {
		klog.Infof("gradacc.Fold: module %q before rewrite:\n%s", m.Name(), m)
	}

	changed := false
	var toRemove []*hlo.Node
	for _, pos := range cfg.OutputPositions {
		add, allReduce, err := matchAccumulation(entry, pos)
		if err != nil {
			return changed, err
		}
		if add == nil {
			klog.V(1).Infof("gradacc.Fold: no accumulation pattern at output %d of %q, skipping", pos, m.Name())
			continue
		}
		detachAllReduce(entry, allReduce)
		if err := foldReduction(entry, add, allReduce, pos, &toRemove); err != nil {
			return changed, err
		}
		klog.V(1).Infof("gradacc.Fold: folded all-reduce %s past accumulation at output %d of %q", allReduce, pos, m.Name())
		changed = true
	}
	if err := removeScheduled(entry, toRemove); err != nil {
		return changed, err
	}

	if klog.V(2).Enabled() {
		klog.Infof("gradacc.Fold: module %q after rewrite:\n%s", m.Name(), m)
	}
	return changed, nil
}
