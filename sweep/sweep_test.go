/*
 * sweep_test.go, part of alchemscan.
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

package sweep

import (
	"math"
	"path/filepath"
	"strings"
	"testing"

	chem "github.com/rmera/alchemscan"
	"github.com/rmera/alchemscan/qm"
)

func templates(Te *testing.T) (*chem.Molecule, *chem.Molecule) {
	base := chem.NewMolecule(chem.Cell{Celldm: [6]float64{20, 10, 10, 0, 0, 0}, Isolated: true})
	hf := base.Copy()
	if err := hf.Build([][4]float64{{1, 5, 5, 5}, {9, 6, 5, 5}}); err != nil {
		Te.Fatal(err)
	}
	hf.SetName("hf_ref")
	hcl := base.Copy()
	if err := hcl.Build([][4]float64{{1, 5, 5, 5}, {17, 6, 5, 5}}); err != nil {
		Te.Fatal(err)
	}
	hcl.SetName("hcl_tar")
	return hf, hcl
}

func TestValues(Te *testing.T) {
	v, err := Default().Values()
	if err != nil {
		Te.Fatal(err)
	}
	if len(v) != 19 {
		Te.Fatalf("expected 19 values, got %d: %v", len(v), v)
	}
	if v[0] != 0.5 || math.Abs(v[18]-2.3) > 1e-12 {
		Te.Errorf("wrong range %v", v)
	}
	if _, err := (Sweep{Start: 1, Stop: 2, Step: 0}).Values(); err == nil {
		Te.Error("zero step accepted")
	}
	if _, err := (Sweep{Start: 2, Stop: 1, Step: 0.1}).Values(); err == nil {
		Te.Error("empty range accepted")
	}
	//Stop off the grid: every value below it is included.
	for _, c := range []struct {
		S    Sweep
		n    int
		last float64
	}{
		{Sweep{Start: 0.5, Stop: 2.45, Step: 0.1, Equilibrium: 1}, 20, 2.4},
		{Sweep{Start: 0.5, Stop: 0.54, Step: 0.1, Equilibrium: 1}, 1, 0.5},
		{Sweep{Start: 0.8, Stop: 1.25, Step: 0.1, Equilibrium: 1}, 5, 1.2},
		{Sweep{Start: 0.9, Stop: 1.2, Step: 0.1, Equilibrium: 1}, 3, 1.1},
	} {
		v, err := c.S.Values()
		if err != nil {
			Te.Errorf("%+v: %v", c.S, err)
			continue
		}
		if len(v) != c.n || math.Abs(v[len(v)-1]-c.last) > 1e-12 {
			Te.Errorf("%+v gave %v, expected %d values ending at %g", c.S, v, c.n, c.last)
		}
	}
}

func TestID(Te *testing.T) {
	for d, id := range map[float64]string{0.5: "05", 1.0: "10", 2.3: "23", 0.7000000000000001: "07"} {
		if got := ID(d); got != id {
			Te.Errorf("ID(%v)=%q, expected %q", d, got, id)
		}
	}
	v, _ := Default().Values()
	seen := make(map[string]bool)
	for i, d := range v {
		id := ID(d)
		if seen[id] {
			Te.Errorf("repeated id %s", id)
		}
		seen[id] = true
		if i > 0 && ID(v[i-1]) >= id {
			Te.Errorf("ids don't sort in generation order: %s >= %s", ID(v[i-1]), id)
		}
	}
}

func TestGenerate(Te *testing.T) {
	hf, hcl := templates(Te)
	settings := qm.Calc{Program: "cpmd", OMP: 2, Cutoff: 200, WfConvergence: 1e-7}
	refroot := "/scratch/production_shifted_refs"
	G := NewGenerator(hf, hcl, settings, refroot)
	refs, prds, err := G.Generate()
	if err != nil {
		Te.Fatal(err)
	}
	if len(refs) != 38 || len(prds) != 19 {
		Te.Fatalf("expected 38 references and 19 predictions, got %d and %d", len(refs), len(prds))
	}
	values, _ := G.Sweep.Values()
	for i, d := range values {
		id := ID(d)
		ref, tar, prd := refs[2*i], refs[2*i+1], prds[i]
		if ref.Name() != "hf_ref"+id || tar.Name() != "hcl_ref"+id || prd.Name() != "hcl_prd"+id {
			Te.Errorf("wrong names %s %s %s", ref.Name(), tar.Name(), prd.Name())
		}
		if ref.Mol.Atom(1).Symbol != "F" || tar.Mol.Atom(1).Symbol != "Cl" || prd.Mol.Atom(1).Symbol != "Cl" {
			Te.Errorf("wrong systems for %s", id)
		}
		//the offset is d-1 from a 1 A bond, so the bond is d long.
		for _, j := range []*qm.Job{ref, tar, prd} {
			if r := chem.Distance(j.Mol, 0, 1); math.Abs(r-d) > 1e-9 {
				Te.Errorf("%s: bond length %v, expected %v", j.Name(), r, d)
			}
			if x := j.Mol.Coords[0].At(1, 0); math.Abs(x-(6+G.Sweep.Offset(d))) > 1e-9 {
				Te.Errorf("%s: stretched atom at %v", j.Name(), x)
			}
			if j.Calc.Cutoff != 200 || j.Calc.OMP != 2 || j.Calc.WfConvergence != 1e-7 {
				Te.Errorf("%s: settings not passed: %+v", j.Name(), j.Calc)
			}
		}
		if !ref.Calc.SaveRestart || ref.Calc.Restart || ref.Calc.SCFStep != 0 {
			Te.Errorf("wrong reference settings %+v", ref.Calc)
		}
		if tar.Calc.SaveRestart || tar.Calc.Restart || tar.Calc.SCFStep != 0 {
			Te.Errorf("wrong target settings %+v", tar.Calc)
		}
		if !prd.Calc.SaveRestart || !prd.Calc.Restart || prd.Calc.SCFStep != 1 {
			Te.Errorf("wrong prediction settings %+v", prd.Calc)
		}
		if want := refroot + "/hf_ref" + id + "/RESTART.1"; prd.Calc.RestartWavefunctionFile != filepath.FromSlash(want) {
			Te.Errorf("restart path %q, expected %q", prd.Calc.RestartWavefunctionFile, want)
		}
	}
	//templates are not modified
	if chem.Distance(hf, 0, 1) != 1 || chem.Distance(hcl, 0, 1) != 1 || hf.Name() != "hf_ref" {
		Te.Error("the templates were modified")
	}
	//the settings are copied, not shared
	if settings.SaveRestart || settings.Restart {
		Te.Error("the settings were modified")
	}
	if !strings.HasPrefix(prds[0].String(), "hcl_prd05 [cpmd") {
		Te.Errorf("unexpected job description %q", prds[0].String())
	}
}

func TestGenerateErrors(Te *testing.T) {
	hf, _ := templates(Te)
	G := NewGenerator(hf, nil, qm.Calc{}, "refs")
	if _, _, err := G.Generate(); err == nil {
		Te.Error("nil template accepted")
	}
	G = NewGenerator(hf, hf, qm.Calc{}, "refs")
	G.Bond = [2]int{0, 5}
	if _, _, err := G.Generate(); err == nil {
		Te.Error("out of range bond accepted")
	}
	//0.55 and 0.6 would both be named 06.
	G = NewGenerator(hf, hf, qm.Calc{}, "refs")
	G.Sweep = Sweep{Start: 0.5, Stop: 0.7, Step: 0.05, Equilibrium: 1}
	if _, _, err := G.Generate(); err == nil || !strings.Contains(err.Error(), "share the ID") {
		Te.Errorf("repeated job IDs accepted: %v", err)
	}
}
