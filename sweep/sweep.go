/*
 * sweep.go, part of alchemscan.
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

//Package sweep generates the QM jobs of an alchemical bond-stretch scan: for each
//bond length, a reference calculation that saves its wavefunction, a calculation
//on the target system, and a prediction on the target system that starts
//from the reference wavefunction.
package sweep

import (
	"fmt"
	"math"
	"path/filepath"

	chem "github.com/rmera/alchemscan"
	"github.com/rmera/alchemscan/qm"
)

//Sweep is an arithmetic sequence of bond lengths, from Start (included)
//to Stop (excluded) in steps of Step. Equilibrium is the bond length of
//the templates, offsets are measured from it.
type Sweep struct {
	Start       float64 `toml:"start"`
	Stop        float64 `toml:"stop"`
	Step        float64 `toml:"step"`
	Equilibrium float64 `toml:"equilibrium"`
}

//Default returns the sweep 0.5, 0.6 ... 2.3 A around a 1 A bond.
func Default() Sweep {
	return Sweep{Start: 0.5, Stop: 2.4, Step: 0.1, Equilibrium: 1.0}
}

//stopTol absorbs the float error of (Stop-Start)/Step when Stop is on the grid.
const stopTol = 1e-9

//Values returns the bond lengths of the sweep, in [Start, Stop). Each value is
//computed as Start+i*Step, so errors don't accumulate. A Stop that falls on the
//grid, up to float error, is excluded.
func (S Sweep) Values() ([]float64, error) {
	if S.Step <= 0 {
		return nil, fmt.Errorf("sweep: step must be positive, got %g", S.Step)
	}
	n := int(math.Ceil((S.Stop-S.Start)/S.Step - stopTol))
	if n <= 0 {
		return nil, fmt.Errorf("sweep: empty range [%g, %g)", S.Start, S.Stop)
	}
	ret := make([]float64, n)
	for i := range ret {
		ret[i] = S.Start + float64(i)*S.Step
	}
	return ret, nil
}

//Offset returns the change in bond length, from the equilibrium one, that
//gives the bond length d.
func (S Sweep) Offset(d float64) float64 {
	return d - S.Equilibrium
}

//ID returns the identifier of the bond length d, the integer nearest to
//10*d as a zero-padded two-digit string.
func ID(d float64) string {
	return fmt.Sprintf("%02d", int(math.Round(d*10)))
}

//RestartPath returns the wavefunction file saved by the reference calculation
//with the given identifier, run under refroot.
func RestartPath(refroot, id string) string {
	return filepath.Join(refroot, RefPrefix+id, "RESTART.1")
}

//Job name prefixes.
const (
	RefPrefix = "hf_ref"
	TarPrefix = "hcl_ref"
	PrdPrefix = "hcl_prd"
)

//Generator builds the jobs of a scan. Ref is the template for the reference
//system (HF) and Tar for the target (HCl). Both must have the stretched atom
//(Target) bonded to the first one of Bond.
type Generator struct {
	Ref      *chem.Molecule
	Tar      *chem.Molecule
	Settings qm.Calc
	RefRoot  string //directory where the reference jobs run, used for the restart paths
	Sweep    Sweep
	Target   int
	Bond     [2]int
}

//NewGenerator returns a generator with the default sweep that stretches atom
//1 along the bond 0-1.
func NewGenerator(ref, tar *chem.Molecule, settings qm.Calc, refroot string) *Generator {
	return &Generator{Ref: ref, Tar: tar, Settings: settings, RefRoot: refroot, Sweep: Default(), Target: 1, Bond: [2]int{0, 1}}
}

//Generate returns the reference jobs (reference and target system, alternating,
//in order of increasing bond length) and the prediction jobs.
func (G *Generator) Generate() (refs, prds []*qm.Job, err error) {
	if G.Ref == nil || G.Tar == nil {
		return nil, nil, fmt.Errorf("sweep: missing template molecule")
	}
	values, err := G.Sweep.Values()
	if err != nil {
		return nil, nil, err
	}
	refs = make([]*qm.Job, 0, 2*len(values))
	prds = make([]*qm.Job, 0, len(values))
	seen := make(map[string]float64, len(values))
	for _, d := range values {
		s := G.Sweep.Offset(d)
		id := ID(d)
		//jobs are named, and run in directories named, after their ID.
		if prev, ok := seen[id]; ok {
			return nil, nil, fmt.Errorf("sweep: bond lengths %g and %g share the ID %s, the step is too small", prev, d, id)
		}
		seen[id] = d

		//reference run, saves the wavefunction for the prediction
		ref, err := G.stretched(G.Ref, s, RefPrefix+id)
		if err != nil {
			return nil, nil, err
		}
		Q := G.Settings
		Q.SaveRestart = true
		refs = append(refs, qm.NewJob(ref, Q))

		//target run
		tar, err := G.stretched(G.Tar, s, TarPrefix+id)
		if err != nil {
			return nil, nil, err
		}
		refs = append(refs, qm.NewJob(tar, G.Settings))

		//prediction: one SCF step on the target from the reference wavefunction
		prd, err := G.stretched(G.Tar, s, PrdPrefix+id)
		if err != nil {
			return nil, nil, err
		}
		Q = G.Settings
		Q.SCFStep = 1
		Q.SaveRestart = true
		Q.Restart = true
		Q.RestartWavefunctionFile = RestartPath(G.RefRoot, id)
		prds = append(prds, qm.NewJob(prd, Q))
	}
	return refs, prds, nil
}

func (G *Generator) stretched(template *chem.Molecule, offset float64, name string) (*chem.Molecule, error) {
	mol := template.Copy()
	if err := mol.Stretch(G.Target, G.Bond, offset); err != nil {
		return nil, fmt.Errorf("sweep: %s: %w", name, err)
	}
	mol.SetName(name)
	return mol, nil
}
