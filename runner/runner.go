/*
 * runner.go, part of alchemscan.
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

//Package runner runs batches of QM jobs, each in its own directory, and records
//the outcome of every job in a manifest.
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	chem "github.com/rmera/alchemscan"
	"github.com/rmera/alchemscan/manifest"
	"github.com/rmera/alchemscan/qm"
	"golang.org/x/sync/errgroup"
)

//Runner prepares and runs QM jobs. The zero value runs the jobs one at a
//time with the default command of each program.
type Runner struct {
	Command  string //overrides the command of the QM program, if not empty
	PPPath   string //directory with the pseudopotentials, if not empty
	Workers  int    //jobs run at the same time, values < 1 mean 1
	DryRun   bool   //only write the inputs
	Log      func(format string, v ...interface{})
	Progress func(done, total int)
}

//commander is implemented by the handles that allow changing the program's command.
type commander interface {
	SetCommand(string)
}

type ppSetter interface {
	SetPPPath(string)
}

type outputFiler interface {
	OutputFile() string
}

//Run prepares and runs each job in root/name, and returns the manifest
//of the batch, named after the base of root. It blocks until all the jobs
//have finished. A failed job is recorded in the manifest and does not stop the
//others. The error is not nil only if the batch as a whole could not run, or
//ctx was cancelled, in which case the manifest is still returned with the
//jobs that were processed.
func (R *Runner) Run(ctx context.Context, jobs []*qm.Job, root string) (*manifest.Manifest, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("runner: %w", err)
	}
	M := manifest.New(filepath.Base(root), root)
	M.Entries = make([]manifest.Entry, len(jobs))
	for i, j := range jobs {
		M.Entries[i] = manifest.Entry{Name: j.Name(), Dir: filepath.Join(root, j.Name()), Status: manifest.StatusFailed, Err: "not run"}
	}
	workers := R.Workers
	if workers < 1 {
		workers = 1
	}
	var g errgroup.Group
	g.SetLimit(workers)
	var mu sync.Mutex
	done := 0
	for i, j := range jobs {
		if ctx.Err() != nil {
			break
		}
		i, j := i, j
		g.Go(func() error {
			M.Entries[i] = R.runJob(ctx, j, root)
			mu.Lock()
			done++
			if R.Progress != nil {
				R.Progress(done, len(jobs))
			}
			mu.Unlock()
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return M, fmt.Errorf("runner: batch %s interrupted: %w", M.Batch, err)
	}
	if err := ctx.Err(); err != nil {
		return M, fmt.Errorf("runner: batch %s interrupted: %w", M.Batch, err)
	}
	return M, nil
}

func (R *Runner) logf(format string, v ...interface{}) {
	if R.Log != nil {
		R.Log(format, v...)
	}
}

//runJob never returns an error, failures go to the entry.
func (R *Runner) runJob(ctx context.Context, J *qm.Job, root string) manifest.Entry {
	name := J.Name()
	dir := filepath.Join(root, name)
	e := manifest.Entry{Name: name, Dir: dir, Input: name + ".inp", Started: time.Now().UTC(), Status: manifest.StatusFailed}
	fail := func(err error) manifest.Entry {
		e.Err = err.Error()
		e.Finished = time.Now().UTC()
		R.logf("job %s failed: %v", name, err)
		return e
	}
	if err := J.Mol.Corrupted(); err != nil {
		return fail(err)
	}
	if J.Mol.LenFrames() == 0 {
		return fail(fmt.Errorf("no coordinates"))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fail(err)
	}
	coords := J.Mol.Coords[0]
	if err := chem.XYZFileWrite(filepath.Join(dir, name+".xyz"), coords, J.Mol); err != nil {
		return fail(err)
	}
	calc := J.Calc
	calc.SetDefaults()
	handle, err := qm.NewHandle(calc.Program)
	if err != nil {
		return fail(err)
	}
	if c, ok := handle.(commander); ok && R.Command != "" {
		c.SetCommand(R.Command)
	}
	if p, ok := handle.(ppSetter); ok && R.PPPath != "" {
		p.SetPPPath(R.PPPath)
	}
	handle.SetName(name)
	handle.SetDir(dir)
	if err := handle.BuildInput(coords, J.Mol, J.Mol.Cell, &calc); err != nil {
		return fail(err)
	}
	e.Output = filepath.Join(dir, name+".out")
	if o, ok := handle.(outputFiler); ok {
		e.Output = o.OutputFile()
	}
	if R.DryRun {
		e.Status = manifest.StatusWritten
		e.Output = ""
		e.Finished = time.Now().UTC()
		R.logf("job %s: input written", J)
		return e
	}
	R.logf("job %s: running", J)
	if err := handle.Run(ctx); err != nil {
		return fail(err)
	}
	if _, err := os.Stat(e.Output); err != nil {
		return fail(fmt.Errorf("no output file: %w", err))
	}
	e.Status = manifest.StatusOK
	e.Finished = time.Now().UTC()
	R.logf("job %s: done in %v", name, e.Finished.Sub(e.Started).Round(time.Millisecond))
	return e
}
