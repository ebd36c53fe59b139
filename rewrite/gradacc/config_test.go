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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromParams(t *testing.T) {
	cfg, err := ConfigFromParams(map[string]any{
		ParamEnabled:         true,
		ParamOutputPositions: []int{0, 2},
		ParamConsumerParams:  []any{0, SameGraph},
	})
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, []int{0, 2}, cfg.OutputPositions)
	assert.Equal(t, []int{0, SameGraph}, cfg.ConsumerParams)
}

func TestConfigFromParamsDefaults(t *testing.T) {
	cfg, err := ConfigFromParams(nil)
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)

	cfg, err = ConfigFromParams(map[string]any{ParamEnabled: true})
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.Nil(t, cfg.OutputPositions)
	assert.Nil(t, cfg.ConsumerParams)
}

func TestConfigFromParamsTypeErrors(t *testing.T) {
	_, err := ConfigFromParams(map[string]any{ParamEnabled: "yes"})
	assert.ErrorContains(t, err, ParamEnabled)

	_, err = ConfigFromParams(map[string]any{
		ParamEnabled:         true,
		ParamOutputPositions: "0,1",
	})
	assert.ErrorContains(t, err, ParamOutputPositions)

	_, err = ConfigFromParams(map[string]any{
		ParamEnabled:        true,
		ParamConsumerParams: []any{0, "1"},
	})
	assert.ErrorContains(t, err, "element 1")
}
