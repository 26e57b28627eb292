/*
 * Copyright 2024 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */


// Command buddytest exercises the buddy allocator by hand.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"

	"github.com/cloudwego/buddy/internal/harness"
	"github.com/cloudwego/buddy/malloc"
)

var globalFlags = []cli.Flag{
	&cli.IntFlag{
		Name:  "max-order",
		Value: malloc.DefaultMaxOrder,
		Usage: "log2 of the arena size",
	},
	&cli.BoolFlag{
		Name:  "heap",
		Usage: "back the arena with the Go heap instead of an anonymous mapping",
	},
	&cli.BoolFlag{
		Name:  "quiet",
		Usage: "no progress bars or diagnostics",
	},
}

func option(c *cli.Context) *malloc.Option {
	o := malloc.DefaultOption()
	o.MaxOrder = c.Int("max-order")
	if c.Bool("heap") {
		o.Source = malloc.HeapSource()
	}
	return o
}

func newLogger(c *cli.Context) *log.Logger {
	if c.Bool("quiet") {
		return log.New(io.Discard, "", 0)
	}
	return log.New(os.Stderr, "buddytest: ", log.LstdFlags)
}

// newBar returns a progress bar, a spinner if max is -1, or nil when quiet.
func newBar(c *cli.Context, max int64, description string) *progressbar.ProgressBar {
	if c.Bool("quiet") {
		return nil
	}
	return progressbar.Default(max, description)
}

func stepper(bar *progressbar.ProgressBar) func() {
	if bar == nil {
		return nil
	}
	return func() { _ = bar.Add(1) }
}

func finish(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
}

var smokeCommand = &cli.Command{
	Name:  "smoke",
	Usage: "allocate, write, free and reuse a few blocks",
	Action: func(c *cli.Context) error {
		a, err := malloc.NewAllocator(option(c))
		if err != nil {
			return err
		}
		if err := harness.Smoke(a, newLogger(c)); err != nil {
			return err
		}
		fmt.Println("All tests passed!")
		return nil
	},
}

var exhaustCommand = &cli.Command{
	Name:  "exhaust",
	Usage: "allocate fixed size blocks until the arena is full, then free them all",
	Flags: []cli.Flag{&cli.IntFlag{
		Name:  "size",
		Value: 1024,
		Usage: "bytes per allocation",
	}},
	Action: func(c *cli.Context) error {
		a, err := malloc.NewAllocator(option(c))
		if err != nil {
			return err
		}
		bar := newBar(c, -1, "allocating")
		n, err := harness.Exhaust(a, c.Int("size"), stepper(bar), newLogger(c))
		finish(bar)
		if err != nil {
			return err
		}
		fmt.Printf("%d blocks of %d bytes fit in a 2^%d byte arena\n", n, c.Int("size"), a.MaxOrder())
		return nil
	},
}

var stressFlags = []cli.Flag{
	&cli.IntFlag{
		Name:  "iters",
		Value: harness.DefaultStressOption().Iters,
		Usage: "alloc or free operations per worker",
	},
	&cli.IntFlag{
		Name:  "max-size",
		Value: harness.DefaultStressOption().MaxSize,
		Usage: "largest allocation requested",
	},
}

func stressOption(c *cli.Context, bar *progressbar.ProgressBar) *harness.StressOption {
	return &harness.StressOption{
		Iters:   c.Int("iters"),
		MaxSize: c.Int("max-size"),
		Step:    stepper(bar),
	}
}

var stressCommand = &cli.Command{
	Name:  "stress",
	Usage: "random allocations and frees with payload checksums",
	Flags: stressFlags,
	Action: func(c *cli.Context) error {
		a, err := malloc.NewAllocator(option(c))
		if err != nil {
			return err
		}
		bar := newBar(c, int64(c.Int("iters")), "stress")
		err = harness.Stress(c.Context, a, stressOption(c, bar), newLogger(c))
		finish(bar)
		return err
	},
}

var parallelCommand = &cli.Command{
	Name:  "parallel",
	Usage: "stress a mutex guarded allocator from several goroutines",
	Flags: append([]cli.Flag{&cli.IntFlag{
		Name:  "workers",
		Value: 4,
		Usage: "number of goroutines",
	}}, stressFlags...),
	Action: func(c *cli.Context) error {
		a, err := malloc.NewSyncAllocator(option(c))
		if err != nil {
			return err
		}
		workers := c.Int("workers")
		bar := newBar(c, int64(workers*c.Int("iters")), "parallel")
		err = harness.Parallel(c.Context, a, workers, stressOption(c, bar), newLogger(c))
		finish(bar)
		return err
	},
}

func main() {
	app := &cli.App{
		Name:  "buddytest",
		Usage: "exercise the buddy allocator",
		Flags: globalFlags,
		Commands: []*cli.Command{
			smokeCommand,
			exhaustCommand,
			stressCommand,
			parallelCommand,
		},
	}
	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
