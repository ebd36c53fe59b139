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

// gradsync demonstrates the gradient-accumulation all-reduce rewrite on a
// small synthetic module pair: a backward pass that accumulates two reduced
// gradients, and a weight-update module consuming the accumulated values.
//
// It prints the modules before and after the rewrite, plus the elidable
// channel-id report. Use -mode to pick the rewrite and -v=1/-v=2 for the
// pass's own logging.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Ryb7532/gradsync/hlo"
	"github.com/Ryb7532/gradsync/rewrite/gradacc"
	"github.com/Ryb7532/gradsync/types/shapes"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"
)

var (
	flagMode = flag.String("mode", "fold", "Rewrite to run: \"fold\" rewrites the backward module in place, "+
		"\"delay\" relocates the reductions into the weight-update module.")
	flagSteps = flag.Int("steps", 4, "Gradient-accumulation steps the printed skip schedule assumes; "+
		"the rewrite itself is step-count agnostic.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if flag.NArg() > 0 {
		klog.Errorf("Unexpected arguments %q. See 'gradsync -help'.", flag.Args())
		os.Exit(1)
	}

	backward, applyGrad := buildDemoPair()
	cfg := gradacc.Config{
		Enabled:         true,
		OutputPositions: []int{0, 1},
		ConsumerParams:  []int{0, 1},
	}

	fmt.Printf("Before:\n%s\n%s\n", backward, applyGrad)

	var changed bool
	switch *flagMode {
	case "fold":
		changed = must.M1(gradacc.Fold(backward, cfg))
	case "delay":
		group := hlo.NewModuleGroup("train_step", backward, applyGrad)
		changed = must.M1(gradacc.Delay(group, cfg))
	default:
		klog.Errorf("Unknown -mode %q: must be \"fold\" or \"delay\".", *flagMode)
		os.Exit(1)
	}

	fmt.Printf("After (changed=%v):\n%s\n%s\n", changed, backward, applyGrad)
	report := gradacc.ElidableChannelIDs(backward.Entry(), cfg)
	fmt.Printf("Elidable channel ids: %s\n", report)
	printSkipSchedule(report, *flagSteps)
}

// printSkipSchedule spells out what the elidable-channel report means for a
// scheduler accumulating over the given number of steps: the tagged
// reductions are skipped on every step but the last.
func printSkipSchedule(report string, steps int) {
	ids := strings.Split(strings.Trim(report, "."), ".")
	if ids[0] == "" || steps < 2 {
		return
	}
	fmt.Printf("Schedule over %d steps: skip channel(s) %s on steps 1..%d, run them on step %d.\n",
		steps, strings.Join(ids, ", "), steps-1, steps)
}

// buildDemoPair assembles the canonical accumulation pattern by hand: per
// weight, add(accumulator, all-reduce(gradient)), with the second gradient in
// bfloat16 bridged by a convert, and an apply-gradient consumer per output.
func buildDemoPair() (backward, applyGrad *hlo.Module) {
	backward = hlo.NewModule("backward")
	entry := backward.NewComputation("entry")

	w0 := shapes.Make(dtypes.Float32, 128, 64)
	acc0 := entry.Parameter("w0_acc", w0)
	grad0 := entry.Parameter("w0_grad", w0)
	sum0 := entry.AllReduce(grad0, sumSpec(1))
	out0 := entry.Add(acc0, sum0)

	w1 := shapes.Make(dtypes.Float32, 64)
	acc1 := entry.Parameter("w1_acc", w1)
	grad1 := entry.Parameter("w1_grad", shapes.Make(dtypes.BFloat16, 64))
	sum1 := entry.AllReduce(grad1, sumSpec(2))
	out1 := entry.Add(acc1, entry.Convert(sum1, dtypes.Float32))

	entry.SetRoot(entry.Tuple(out0, out1))

	applyGrad = hlo.NewModule("apply_grad")
	update := applyGrad.NewComputation("entry")
	p0 := update.Parameter("w0_delta", w0)
	p1 := update.Parameter("w1_delta", w1)
	update.SetRoot(update.Tuple(
		update.Opaque("apply-gradient", w0, p0),
		update.Opaque("apply-gradient", w1, p1),
	))
	return
}

func sumSpec(channelID int64) hlo.AllReduceSpec {
	return hlo.AllReduceSpec{
		ReduceOp:      hlo.ReduceOpSum,
		ReplicaGroups: [][]int{{0, 1, 2, 3}},
		ChannelID:     channelID,
	}
}
