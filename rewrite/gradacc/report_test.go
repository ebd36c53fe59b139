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

	"github.com/Ryb7532/gradsync/hlo/hlotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElidableChannelIDs(t *testing.T) {
	p := hlotest.BuildProducer("report",
		hlotest.Output{Name: "w0", ChannelID: 3},
		hlotest.Output{Name: "w1", ChannelID: 7})

	cfg := enabledConfig(0, 1)
	assert.Equal(t, ".", ElidableChannelIDs(p.Entry, cfg), "nothing tagged before the rewrite")

	changed, err := Fold(p.Module, cfg)
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, ".3.7.", ElidableChannelIDs(p.Entry, cfg))
}

func TestElidableChannelIDsSkipsUnchanneled(t *testing.T) {
	p := hlotest.BuildProducer("report",
		hlotest.Output{Name: "w0"},
		hlotest.Output{Name: "w1", ChannelID: 4})

	cfg := enabledConfig(0, 1)
	changed, err := Fold(p.Module, cfg)
	require.NoError(t, err)
	require.True(t, changed)

	// Both reductions are tagged, but only the channeled one is reportable.
	assert.Equal(t, ".4.", ElidableChannelIDs(p.Entry, cfg))
}

func TestElidableChannelIDsDisabledOrEmpty(t *testing.T) {
	p := hlotest.BuildProducer("report", hlotest.Output{Name: "w0", ChannelID: 3})
	changed, err := Fold(p.Module, enabledConfig(0))
	require.NoError(t, err)
	require.True(t, changed)

	assert.Equal(t, ".", ElidableChannelIDs(p.Entry, Config{}), "disabled reports empty")
	assert.Equal(t, ".", ElidableChannelIDs(nil, enabledConfig(0)))
}
