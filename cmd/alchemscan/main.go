/*
 * main.go, part of alchemscan.
 *
 * Copyright 2026 Raul Mera <rmera{at}usach(dot)cl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

//alchemscan runs an alchemical prediction scan: reference and target QM calculations
//along a bond stretch, predictions for the target from the reference wavefunctions,
//and the collection of the resulting energy curves.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/rmera/alchemscan/aggregate"
	"github.com/rmera/alchemscan/config"
	"github.com/rmera/alchemscan/energyplot"
	"github.com/rmera/alchemscan/manifest"
	"github.com/rmera/alchemscan/qm"
	"github.com/rmera/alchemscan/runner"
	"golang.org/x/term"
)

//Global variables... Sometimes, you gotta use'em
var verb int

//LogV prints the d arguments to stderr if the verbosity level v
//is at least vref.
func LogV(v int, vref int, d ...interface{}) {
	if v >= vref {
		fmt.Fprintln(os.Stderr, d...)
	}
}

//CErr exits with an error message if err is not nil.
func CErr(err error, info string) {
	if err != nil {
		log.Fatal(err, " ", info)
	}
}

//options of one execution, from the command line.
type options struct {
	stage string //all, generate, run or collect
	dry   bool
	check bool
	plot  string
}

func main() {
	cfgname := flag.String("config", "", "TOML file with the settings of the scan. The default settings give the HF to HCl scan")
	prefix := flag.String("prefix", "", "prefix for the batch directories and the results file, overrides the configuration")
	stage := flag.String("stage", "all", "what to do: generate (write the inputs only), run, collect, or all (run and collect)")
	workers := flag.Int("workers", 0, "QM jobs to run at the same time, overrides the configuration")
	command := flag.String("command", "", "command for the QM program, e.g. \"mpirun -np 4 cpmd.x\", overrides the configuration")
	dry := flag.Bool("dry", false, "write the inputs but don't run the QM program")
	check := flag.Bool("check", true, "when collecting, check the outputs against the sweep and the manifests of the batches")
	plotname := flag.String("plot", "", "if given, file for the plot of the energy curves (png, svg or pdf)")
	verbose := flag.Int("verbose", 0, "Level of verbosity, the higher, the more verbose.")
	flag.Parse()
	verb = *verbose
	C := config.Default()
	var err error
	if *cfgname != "" {
		C, err = config.Load(*cfgname)
		CErr(err, "main")
	}
	if *prefix != "" {
		C.Prefix = *prefix
	}
	if *workers > 0 {
		C.Workers = *workers
	}
	if *command != "" {
		C.Command = *command
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err = run(ctx, C, options{stage: strings.ToLower(*stage), dry: *dry, check: *check, plot: *plotname})
	stop()
	CErr(err, "main")
}

//run executes the requested stages of the scan described by C.
func run(ctx context.Context, C *config.Config, o options) error {
	if err := C.Check(); err != nil {
		return err
	}
	switch o.stage {
	case "generate":
		o.dry = true
		return runBatches(ctx, C, o)
	case "run":
		return runBatches(ctx, C, o)
	case "collect":
		return collect(C, o)
	case "all":
		if err := runBatches(ctx, C, o); err != nil {
			return err
		}
		if o.dry {
			return nil
		}
		return collect(C, o)
	}
	return fmt.Errorf("unknown stage %q", o.stage)
}

//progress returns a function that prints a progress line for batch, if stderr is
//a terminal, or nil otherwise.
func progress(batch string) func(done, total int) {
	fd := int(os.Stderr.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width < 20 {
		width = 80
	}
	return func(done, total int) {
		line := fmt.Sprintf("%s: %d/%d jobs", batch, done, total)
		if len(line) > width-1 {
			line = line[:width-1]
		}
		fmt.Fprintf(os.Stderr, "\r%-*s", width-1, line)
		if done == total {
			fmt.Fprintln(os.Stderr)
		}
	}
}

//runBatches generates the jobs, and runs the references and then the predictions,
//saving the manifest of each batch. It stops with an error if any job failed.
func runBatches(ctx context.Context, C *config.Config, o options) error {
	G, err := C.Generator()
	if err != nil {
		return err
	}
	refs, prds, err := G.Generate()
	if err != nil {
		return err
	}
	LogV(verb, 1, fmt.Sprintf("%d reference and %d prediction jobs", len(refs), len(prds)))
	store, err := manifest.Open(C.Prefix + "manifest.db")
	if err != nil {
		return err
	}
	defer store.Close()
	batches := []struct {
		jobs []*qm.Job
		root string
	}{{refs, G.RefRoot}, {prds, C.PrdRoot()}}
	for _, b := range batches {
		R := &runner.Runner{
			Command:  C.Command,
			PPPath:   C.PPPath,
			Workers:  C.Workers,
			DryRun:   o.dry,
			Progress: progress(filepath.Base(b.root)),
			Log: func(format string, v ...interface{}) {
				LogV(verb, 2, fmt.Sprintf(format, v...))
			},
		}
		M, err := R.Run(ctx, b.jobs, b.root)
		if M != nil {
			if serr := store.Save(M); serr != nil {
				return errors.Join(err, serr)
			}
			LogV(verb, 1, fmt.Sprintf("batch %s (run %s): %d ok, %d failed", M.Batch, M.RunID, len(M.OK()), len(M.Failed())))
		}
		if err != nil {
			return err
		}
		if failed := M.Failed(); len(failed) > 0 {
			for _, f := range failed {
				log.Printf("job %s failed: %s", f.Name, f.Err)
			}
			return fmt.Errorf("%d jobs of batch %s failed, see run %s in %smanifest.db", len(failed), M.Batch, M.RunID, C.Prefix)
		}
	}
	return nil
}

//latest returns the last manifests of the reference and prediction batches, or
//nil ones if there is no manifest database.
func latest(C *config.Config) ([2]*manifest.Manifest, error) {
	var ret [2]*manifest.Manifest
	dbname := C.Prefix + "manifest.db"
	if _, err := os.Stat(dbname); err != nil {
		LogV(verb, 1, "no manifest database, outputs will not be checked against it")
		return ret, nil
	}
	store, err := manifest.Open(dbname)
	if err != nil {
		return ret, err
	}
	defer store.Close()
	refroot, err := C.RefRoot()
	if err != nil {
		return ret, err
	}
	for i, batch := range []string{filepath.Base(refroot), filepath.Base(C.PrdRoot())} {
		if ret[i], err = store.Latest(batch); err != nil {
			return ret, err
		}
		if !ret[i].Ran() {
			log.Printf("the last run of batch %s only wrote the inputs, its outputs will not be checked against it", batch)
			ret[i] = nil
		}
	}
	return ret, nil
}

//collect gathers the outputs of the scan, saves the results and, if requested,
//plots the energy curves.
func collect(C *config.Config, o options) error {
	opts := aggregate.Options{Log: log.Printf}
	if o.check {
		values, err := C.Sweep.Values()
		if err != nil {
			return err
		}
		opts.Expect = len(values)
		if opts.Manifests, err = latest(C); err != nil {
			return err
		}
	}
	B, err := aggregate.Collect(C.Prefix, C.QM.Program, opts)
	if err != nil {
		return err
	}
	results := aggregate.ResultsFile(C.Prefix)
	if err := aggregate.Save(results, B); err != nil {
		return err
	}
	LogV(verb, 0, fmt.Sprintf("%d points saved to %s", B.Len(), results))
	if S, err := B.Summary(); err == nil {
		LogV(verb, 0, S.String())
	}
	if o.plot != "" {
		if err := energyplot.Curves(B, o.plot); err != nil {
			return err
		}
		LogV(verb, 1, "energy curves plotted in "+o.plot)
	}
	return nil
}
