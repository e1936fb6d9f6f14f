/*
 * cpmd.go, part of alchemscan.
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

//CPMD is a plane-wave DFT program. Please cite the CPMD references if you used the program.

package qm

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	chem "github.com/rmera/alchemscan"
	v3 "github.com/rmera/alchemscan/v3"
)

//CPMDHandle is the representation of a CPMD calculation.
//Note that the defaults are NOT considered part of the API, so they can always change.
type CPMDHandle struct {
	command   string
	inputname string
	dir       string
	pppath    string
	omp       int
	restart   string //the wavefunction to copy as RESTART before running, if any
}

//NewCPMDHandle creates and initializes a new instance of CPMDHandle, with values set
//to its defaults.
func NewCPMDHandle() *CPMDHandle {
	run := new(CPMDHandle)
	run.SetDefaults()
	return run
}

//CPMDHandle methods

//SetDefaults sets the default values for the handle. The CPMD command is set to
//$CPMD_PATH/cpmd.x, or to cpmd.x if CPMD_PATH is not defined.
func (O *CPMDHandle) SetDefaults() {
	O.command = os.ExpandEnv("${CPMD_PATH}/cpmd.x")
	if O.command == "/cpmd.x" { //CPMD_PATH was not defined
		O.command = "cpmd.x"
	}
	O.inputname = "alchemscan"
	O.dir = "."
	O.omp = 1
}

func (O *CPMDHandle) SetName(name string) {
	O.inputname = name
}

func (O *CPMDHandle) SetDir(dir string) {
	O.dir = dir
}

//SetCommand sets the command used to run CPMD. It can contain arguments
//before the input file, e.g. "mpirun -np 4 cpmd.x".
func (O *CPMDHandle) SetCommand(name string) {
	O.command = name
}

func (O *CPMDHandle) Command() string {
	return O.command
}

//SetPPPath sets the directory with the pseudopotential files, which is given to CPMD
//as its second argument. If not set, CPMD uses its own default.
func (O *CPMDHandle) SetPPPath(path string) {
	O.pppath = path
}

//InputFile returns the path to the input file of the calculation.
func (O *CPMDHandle) InputFile() string {
	return filepath.Join(O.dir, O.inputname+".inp")
}

//OutputFile returns the path to the output file of the calculation.
func (O *CPMDHandle) OutputFile() string {
	return filepath.Join(O.dir, O.inputname+".out")
}

//BuildInput builds an input for CPMD based int the data in atoms, coords, cell and Q,
//and writes it to dir/name.inp. Only single-point wavefunction optimizations are supported.
func (O *CPMDHandle) BuildInput(coords *v3.Matrix, atoms chem.AtomMultiCharger, cell chem.Cell, Q *Calc) error {
	if atoms == nil || coords == nil {
		return Error{ErrMissingCharges, CPMD, O.inputname, "", []string{"BuildInput"}, true}
	}
	if atoms.Len() != coords.NVecs() {
		return Error{ErrMissingCharges, CPMD, O.inputname, fmt.Sprintf("%d atoms but %d coordinates", atoms.Len(), coords.NVecs()), []string{"BuildInput"}, true}
	}
	Q.SetDefaults()
	O.omp = Q.OMP
	O.restart = ""
	if Q.Restart {
		if Q.RestartWavefunctionFile == "" {
			return Error{ErrNoRestart, CPMD, O.inputname, "restart requested without a wavefunction file", []string{"BuildInput"}, true}
		}
		O.restart = Q.RestartWavefunctionFile
	}
	file, err := os.Create(O.InputFile())
	if err != nil {
		return Error{ErrCantInput, CPMD, O.inputname, err.Error(), []string{"os.Create", "BuildInput"}, true}
	}
	defer file.Close()
	if err = O.writeInput(file, coords, atoms, cell, Q); err != nil {
		return Error{ErrCantInput, CPMD, O.inputname, err.Error(), []string{"writeInput", "BuildInput"}, true}
	}
	return nil
}

func (O *CPMDHandle) writeInput(w io.Writer, coords *v3.Matrix, atoms chem.AtomMultiCharger, cell chem.Cell, Q *Calc) error {
	out := bufio.NewWriter(w)
	fmt.Fprintf(out, "&INFO\n %s\n&END\n\n", O.inputname)

	fmt.Fprint(out, "&CPMD\n OPTIMIZE WAVEFUNCTION\n")
	fmt.Fprintf(out, " CONVERGENCE ORBITALS\n  %e\n", Q.WfConvergence)
	if Q.SCFStep > 0 {
		fmt.Fprintf(out, " MAXSTEP\n  %d\n", Q.SCFStep)
	}
	if Q.Restart {
		fmt.Fprint(out, " RESTART WAVEFUNCTION\n")
	}
	if !Q.SaveRestart {
		//The first flag of BENCHMARK disables the writing of RESTART files.
		fmt.Fprint(out, " BENCHMARK\n  1 0 0 0 0 0 0 0 0 0\n")
	}
	fmt.Fprint(out, "&END\n\n")

	fmt.Fprint(out, "&SYSTEM\n ANGSTROM\n")
	if cell.Isolated {
		fmt.Fprint(out, " SYMMETRY\n  0\n POISSON SOLVER TUCKERMAN\n")
	} else {
		fmt.Fprint(out, " SYMMETRY\n  1\n")
	}
	c := cell.Celldm
	fmt.Fprintf(out, " CELL ABSOLUTE\n  %.4f %.4f %.4f %.4f %.4f %.4f\n", c[0], c[1], c[2], c[3], c[4], c[5])
	fmt.Fprintf(out, " CUTOFF\n  %.4f\n", Q.Cutoff)
	if atoms.Charge() != 0 {
		fmt.Fprintf(out, " CHARGE\n  %d\n", atoms.Charge())
	}
	if atoms.Multi() > 1 {
		fmt.Fprintf(out, " MULTIPLICITY\n  %d\n", atoms.Multi())
	}
	fmt.Fprint(out, "&END\n\n")

	fmt.Fprintf(out, "&DFT\n FUNCTIONAL %s\n", strings.ToUpper(Q.Functional))
	if atoms.Multi() > 1 {
		fmt.Fprint(out, " LSD\n")
	}
	fmt.Fprint(out, "&END\n\n")

	fmt.Fprint(out, "&ATOMS\n")
	for _, sp := range cpmdSpecies(atoms) {
		at := atoms.Atom(sp[0])
		fmt.Fprintf(out, "*%s_%s.psp\n LMAX=%s\n  %d\n", at.Symbol, Q.PP, cpmdLmax(at.Z), len(sp))
		for _, i := range sp {
			fmt.Fprintf(out, "  %12.6f %12.6f %12.6f\n", coords.At(i, 0), coords.At(i, 1), coords.At(i, 2))
		}
	}
	fmt.Fprint(out, "&END\n")
	return out.Flush()
}

//cpmdSpecies groups the atom indexes by element, in order of first appearance.
func cpmdSpecies(atoms chem.Atomer) [][]int {
	ret := make([][]int, 0, 2)
	index := make(map[string]int)
	for i := 0; i < atoms.Len(); i++ {
		s := atoms.Atom(i).Symbol
		k, ok := index[s]
		if !ok {
			k = len(ret)
			index[s] = k
			ret = append(ret, nil)
		}
		ret[k] = append(ret[k], i)
	}
	return ret
}

//cpmdLmax returns the maximum angular momentum of the pseudopotential for
//the element with atomic number z.
func cpmdLmax(z int) string {
	switch {
	case z <= 2:
		return "S"
	case z <= 18:
		return "P"
	default:
		return "D"
	}
}

//Run runs CPMD in the calculation directory and waits for it to finish.
//The output goes to dir/name.out. If the calculation restarts from a previous
//wavefunction, the file is first copied to dir/RESTART, where CPMD looks for it.
func (O *CPMDHandle) Run(ctx context.Context) error {
	if O.restart != "" {
		if err := copyFile(O.restart, filepath.Join(O.dir, "RESTART")); err != nil {
			return Error{ErrNoRestart, CPMD, O.inputname, err.Error(), []string{"copyFile", "Run"}, true}
		}
	}
	out, err := os.Create(O.OutputFile())
	if err != nil {
		return Error{ErrNotRunning, CPMD, O.inputname, err.Error(), []string{"os.Create", "Run"}, true}
	}
	defer out.Close()
	fields := strings.Fields(O.command)
	if len(fields) == 0 {
		return Error{ErrNotRunning, CPMD, O.inputname, "empty command", []string{"Run"}, true}
	}
	args := append(fields[1:], O.inputname+".inp")
	if O.pppath != "" {
		args = append(args, O.pppath)
	}
	command := exec.CommandContext(ctx, fields[0], args...)
	command.Dir = O.dir
	command.Stdout = out
	command.Stderr = out
	command.Env = append(os.Environ(), fmt.Sprintf("OMP_NUM_THREADS=%d", O.omp))
	if err = command.Run(); err != nil {
		return Error{ErrNotRunning, CPMD, O.inputname, err.Error(), []string{"exec.Run", "Run"}, true}
	}
	return nil
}

//Energy gets the total energy (Hartree) of a previous CPMD calculation.
//Returns error if problem, and also if the energy returned that is product of an
//abnormally-terminated calculation. (in this case error is "Probable problem
//in calculation" and the energy is also returned)
func (O *CPMDHandle) Energy() (float64, error) {
	out, err := ReadOutput(O.OutputFile(), CPMD)
	if err != nil {
		return 0, errDecorate(err, "Energy")
	}
	if !out.Normal {
		return out.Et, Error{ErrProbableProblem, CPMD, O.inputname, "", []string{"Energy"}, false}
	}
	return out.Et, nil
}

//OptimizedGeometry reads the final geometry (A) from a CPMD output. It doesn't actually need the chem.Atomer
//but requires it so CPMDHandle fits with the Handle interface.
func (O *CPMDHandle) OptimizedGeometry(atoms chem.Atomer) (*v3.Matrix, error) {
	out, err := ReadOutput(O.OutputFile(), CPMD)
	if err != nil {
		return nil, errDecorate(err, "OptimizedGeometry")
	}
	if out.Molecule == nil || out.Molecule.LenFrames() == 0 {
		return nil, Error{ErrNoGeometry, CPMD, O.inputname, "", []string{"OptimizedGeometry"}, true}
	}
	if atoms != nil && atoms.Len() != out.Molecule.Len() {
		return nil, Error{ErrNoGeometry, CPMD, O.inputname, fmt.Sprintf("%d atoms in output, %d expected", out.Molecule.Len(), atoms.Len()), []string{"OptimizedGeometry"}, true}
	}
	if !out.Normal {
		return out.Molecule.Coords[0], Error{ErrProbableProblem, CPMD, O.inputname, "", []string{"OptimizedGeometry"}, false}
	}
	return out.Molecule.Coords[0], nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
