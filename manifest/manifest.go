/*
 * manifest.go, part of alchemscan.
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

//Package manifest keeps the record of which jobs of a batch ran, and how,
//so the results can be collected without guessing from the files on disk.
package manifest

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

//Status of a job in a manifest.
type Status string

const (
	StatusOK      Status = "ok"      //the program ran and left an output file
	StatusFailed  Status = "failed"  //the job could not be prepared or run, or left no output
	StatusWritten Status = "written" //the input was written but the program was not run (dry run)
)

//Entry is the record of one job.
type Entry struct {
	Name     string
	Dir      string
	Input    string
	Output   string
	Status   Status
	Err      string
	Started  time.Time
	Finished time.Time
}

//Manifest contains the records of all the jobs in one batch, in submission order.
type Manifest struct {
	RunID   string
	Batch   string
	Root    string
	Created time.Time
	Entries []Entry
}

//New returns an empty manifest with a new run ID for a batch that runs under root.
func New(batch, root string) *Manifest {
	return &Manifest{RunID: uuid.NewString(), Batch: batch, Root: root, Created: time.Now().UTC()}
}

//OK returns the entries of the jobs that finished and left an output.
func (M *Manifest) OK() []Entry {
	return M.with(StatusOK)
}

//Failed returns the entries of the jobs that failed.
func (M *Manifest) Failed() []Entry {
	return M.with(StatusFailed)
}

//Ran returns true if the program was run for at least one job of the batch,
//i.e. if the manifest is not the record of a dry run.
func (M *Manifest) Ran() bool {
	for _, v := range M.Entries {
		if v.Status != StatusWritten {
			return true
		}
	}
	return false
}

func (M *Manifest) with(s Status) []Entry {
	ret := make([]Entry, 0, len(M.Entries))
	for _, v := range M.Entries {
		if v.Status == s {
			ret = append(ret, v)
		}
	}
	return ret
}

//Outputs returns the sorted paths of the output files of the successful jobs.
func (M *Manifest) Outputs() []string {
	ret := make([]string, 0, len(M.Entries))
	for _, v := range M.OK() {
		ret = append(ret, v.Output)
	}
	sort.Strings(ret)
	return ret
}
