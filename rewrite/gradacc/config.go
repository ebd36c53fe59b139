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

// SameGraph is the sentinel value in Config.ConsumerParams meaning "fold
// within the producer module" instead of "relocate to the consumer module".
const SameGraph = -1

// Parameter keys understood by ConfigFromParams. They match the
// pass-context keys of the auto-sharding pipeline that drives this pass.
const (
	// ParamEnabled (bool, default false) is the master switch: when unset
	// or false every entry point is a no-op reporting "no change".
	ParamEnabled = "rewrite_for_grad_acc"

	// ParamOutputPositions (list of int) holds the root-tuple positions of
	// the producer entry computation to examine.
	ParamOutputPositions = "rewrite_indices"

	// ParamConsumerParams (list of int, parallel to ParamOutputPositions)
	// holds the consumer parameter index each reduction relocates to, or
	// SameGraph to fold in place. Only used by Delay.
	ParamConsumerParams = "rewrite_applygrad_indices"
)

// Config selects the rewrite behavior. It is threaded explicitly into every
// entry point; the pass keeps no ambient state.
type Config struct {
	// Enabled is the master switch; false makes every entry point a no-op
	// returning "no change".
	Enabled bool

	// OutputPositions are the root-tuple positions examined by Fold, or the
	// producer-side positions for Delay.
	OutputPositions []int

	// ConsumerParams, parallel to OutputPositions, holds for Delay the
	// consumer parameter index to relocate each reduction to, or SameGraph.
	ConsumerParams []int
}

// ConfigFromParams builds a Config from a key/value parameter map, as kept
// by pipeline drivers. Missing keys default to the zero value; values of the
// wrong type are an error.
func ConfigFromParams(params map[string]any) (cfg Config, err error) {
	cfg.Enabled, err = boolParam(params, ParamEnabled)
	if err != nil {
		return
	}
	cfg.OutputPositions, err = intsParam(params, ParamOutputPositions)
	if err != nil {
		return
	}
	cfg.ConsumerParams, err = intsParam(params, ParamConsumerParams)
	return
}

func boolParam(params map[string]any, key string) (bool, error) {
	value, found := params[key]
	if !found {
		return false, nil
	}
	b, ok := value.(bool)
	if !ok {
		return false, errors.Errorf("parameter %q must be a bool, got %T (%v)", key, value, value)
	}
	return b, nil
}

func intsParam(params map[string]any, key string) ([]int, error) {
	value, found := params[key]
	if !found {
		return nil, nil
	}
	switch v := value.(type) {
	case []int:
		return v, nil
	case []any:
		ints := make([]int, 0, len(v))
		for i, element := range v {
			iv, ok := element.(int)
			if !ok {
				return nil, errors.Errorf("parameter %q element %d must be an int, got %T (%v)", key, i, element, element)
			}
			ints = append(ints, iv)
		}
		return ints, nil
	}
	return nil, errors.Errorf("parameter %q must be a list of ints, got %T (%v)", key, value, value)
}
