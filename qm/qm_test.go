/*
 * qm_test.go, part of alchemscan.
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

package qm

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	chem "github.com/rmera/alchemscan"
)

var rootdirtest = "../test"

func hf(Te *testing.T) *chem.Molecule {
	mol := chem.NewMolecule(chem.Cell{Celldm: [6]float64{20, 10, 10, 0, 0, 0}, Isolated: true})
	if err := mol.Build([][4]float64{{1, 5, 5, 5}, {9, 6, 5, 5}}); err != nil {
		Te.Fatal(err)
	}
	mol.SetName("hf_ref10")
	return mol
}

func TestReadOutput(Te *testing.T) {
	out, err := ReadOutput(filepath.Join(rootdirtest, "hf_ref05.out"), "cpmd")
	if err != nil {
		Te.Fatal(err)
	}
	if out.Et != -24.35572041 {
		Te.Errorf("wrong energy %v", out.Et)
	}
	if !out.Normal {
		Te.Error("normal termination not detected")
	}
	if out.Name != "hf_ref05" || out.Molecule.Name() != "hf_ref05" {
		Te.Errorf("wrong name %q", out.Name)
	}
	if out.Molecule.Len() != 2 || out.Molecule.Atom(1).Symbol != "F" || out.Molecule.Atom(1).Z != 9 {
		Te.Fatalf("wrong molecule read: %v", out.Molecule.Atoms)
	}
	//The FINAL RESULTS geometry has 4 decimals (bohr)
	x := out.Molecule.Coords[0].At(1, 0)
	if math.Abs(x-10.3935*chem.Bohr2A) > 1e-10 || math.Abs(x*chem.A2Bohr-10.3935) > 1e-10 {
		Te.Errorf("wrong coordinate %v", x)
	}
	if d := chem.Distance(out.Molecule, 0, 1); math.Abs(d-0.5) > 1e-3 {
		Te.Errorf("wrong bond length %v", d)
	}
}

func TestReadOutputErrors(Te *testing.T) {
	out, err := ReadOutput(filepath.Join(rootdirtest, "truncated.out"), CPMD)
	if err != nil {
		Te.Fatal(err)
	}
	if out.Normal {
		Te.Error("a truncated output was taken as normally terminated")
	}
	_, err = ReadOutput(filepath.Join(rootdirtest, "noenergy.out"), CPMD)
	if e, ok := err.(Error); !ok || e.Message() != ErrNoEnergy {
		Te.Errorf("expected %q, got %v", ErrNoEnergy, err)
	}
	_, err = ReadOutput(filepath.Join(rootdirtest, "hf_ref05.out"), "gaussian")
	if e, ok := err.(Error); !ok || e.Message() != ErrUnknownProgram {
		Te.Errorf("expected %q, got %v", ErrUnknownProgram, err)
	}
	_, err = ReadOutput(filepath.Join(rootdirtest, "does_not_exist.out"), CPMD)
	if err == nil {
		Te.Error("no error for a missing file")
	}
}

func TestBuildInput(Te *testing.T) {
	dir := Te.TempDir()
	mol := hf(Te)
	Q := Calc{Program: "cpmd", OMP: 2, Cutoff: 200, WfConvergence: 1e-7, SCFStep: 1, Restart: true, RestartWavefunctionFile: "/x/hf_ref10/RESTART.1"}
	cpmd := NewCPMDHandle()
	cpmd.SetName(mol.Name())
	cpmd.SetDir(dir)
	if err := cpmd.BuildInput(mol.Coords[0], mol, mol.Cell, &Q); err != nil {
		Te.Fatal(err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "hf_ref10.inp"))
	if err != nil {
		Te.Fatal(err)
	}
	inp := string(b)
	for _, want := range []string{
		"&INFO\n hf_ref10\n&END",
		" CONVERGENCE ORBITALS\n  1.000000e-07\n",
		" MAXSTEP\n  1\n",
		" RESTART WAVEFUNCTION\n",
		" BENCHMARK\n",
		" POISSON SOLVER TUCKERMAN\n",
		" CELL ABSOLUTE\n  20.0000 10.0000 10.0000 0.0000 0.0000 0.0000\n",
		" CUTOFF\n  200.0000\n",
		" FUNCTIONAL PBE\n",
		"*H_MT_PBE.psp\n LMAX=S\n  1\n",
		"*F_MT_PBE.psp\n LMAX=P\n  1\n",
	} {
		if !strings.Contains(inp, want) {
			Te.Errorf("input lacks %q:\n%s", want, inp)
		}
	}
	if strings.Contains(inp, "LSD") || strings.Contains(inp, "CHARGE") {
		Te.Errorf("closed-shell neutral molecule got LSD or CHARGE:\n%s", inp)
	}
	//Saving the restart means no BENCHMARK line.
	Q = Calc{SaveRestart: true}
	if err := cpmd.BuildInput(mol.Coords[0], mol, mol.Cell, &Q); err != nil {
		Te.Fatal(err)
	}
	b, _ = os.ReadFile(filepath.Join(dir, "hf_ref10.inp"))
	if strings.Contains(string(b), "BENCHMARK") || strings.Contains(string(b), "MAXSTEP") {
		Te.Errorf("unexpected keywords:\n%s", b)
	}
	if Q.Program != CPMD || Q.OMP != 1 {
		Te.Errorf("defaults not set: %+v", Q)
	}
	Q = Calc{Restart: true}
	if err := cpmd.BuildInput(mol.Coords[0], mol, mol.Cell, &Q); err == nil {
		Te.Error("restart without a wavefunction file was accepted")
	}
}

func TestRun(Te *testing.T) {
	script, err := filepath.Abs(filepath.Join(rootdirtest, "fakecpmd.sh"))
	if err != nil {
		Te.Fatal(err)
	}
	dir := Te.TempDir()
	mol := hf(Te)
	h, err := NewHandle("CPMD")
	if err != nil {
		Te.Fatal(err)
	}
	cpmd := h.(*CPMDHandle)
	cpmd.SetCommand("sh " + script)
	if cpmd.Command() != "sh "+script {
		Te.Errorf("command not set: %s", cpmd.Command())
	}
	cpmd.SetName(mol.Name())
	cpmd.SetDir(dir)
	Q := Calc{SaveRestart: true}
	if err := cpmd.BuildInput(mol.Coords[0], mol, mol.Cell, &Q); err != nil {
		Te.Fatal(err)
	}
	if err := cpmd.Run(context.Background()); err != nil {
		Te.Fatal(err)
	}
	e, err := cpmd.Energy()
	if err != nil {
		Te.Fatal(err)
	}
	if math.Abs(e-(-24.0)) > 1e-6 {
		Te.Errorf("wrong energy %v", e)
	}
	geo, err := cpmd.OptimizedGeometry(mol)
	if err != nil {
		Te.Fatal(err)
	}
	if math.Abs(geo.At(1, 0)-6.0) > 1e-5 {
		Te.Errorf("wrong geometry %v", geo)
	}
	if _, err := os.Stat(filepath.Join(dir, "RESTART.1")); err != nil {
		Te.Errorf("restart file not saved: %v", err)
	}
	//A restarted calculation needs its wavefunction.
	Q = Calc{Restart: true, RestartWavefunctionFile: filepath.Join(dir, "missing")}
	if err := cpmd.BuildInput(mol.Coords[0], mol, mol.Cell, &Q); err != nil {
		Te.Fatal(err)
	}
	if err := cpmd.Run(context.Background()); err == nil {
		Te.Error("ran without the restart wavefunction")
	}
}

func TestNewHandle(Te *testing.T) {
	if _, err := NewHandle("orca"); err == nil {
		Te.Error("unsupported program accepted")
	}
}
