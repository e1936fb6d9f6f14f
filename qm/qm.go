/*
 * qm.go, part of alchemscan.
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

package qm

import (
	"context"
	"fmt"
	"strings"

	chem "github.com/rmera/alchemscan"
	v3 "github.com/rmera/alchemscan/v3"
)

//Handle allows to set QM calculations using different programs.
type Handle interface {

	//SetName sets the name for the job, used for input
	//and output files. The extentions will depend on the program.
	SetName(name string)

	//SetDir sets the directory where the input is written and the
	//program is run.
	SetDir(dir string)

	//BuildInput builds an input for the QM program based int the data in
	//atoms, coords, cell and Q. returns only error.
	BuildInput(coords *v3.Matrix, atoms chem.AtomMultiCharger, cell chem.Cell, Q *Calc) error

	//Run runs the QM program for a calculation previously set,
	//and waits for it to finish. Cancelling ctx kills the program.
	Run(ctx context.Context) error

	//Energy gets the last energy for a  calculation by parsing the
	//QM program's output file. Return error if fail. Also returns
	//Error ("Probable problem in calculation")
	//if there is a energy but the calculation didnt end properly.
	Energy() (float64, error)

	//OptimizedGeometry reads the last geometry from a calculation
	//output. Returns error if fail. Returns Error ("Probable problem
	//in calculation") if there is a geometry but the calculation didnt
	//end properly*
	OptimizedGeometry(atoms chem.Atomer) (*v3.Matrix, error)
}

//NewHandle returns a handle for the program given.
func NewHandle(program string) (Handle, error) {
	switch strings.ToLower(program) {
	case CPMD:
		return NewCPMDHandle(), nil
	default:
		return nil, Error{ErrUnknownProgram, program, "", "", []string{"NewHandle"}, true}
	}
}

//Calc contains the settings for one QM calculation. The TOML keys are
//the ones of the QM settings section of the configuration.
type Calc struct {
	Program                 string  `toml:"program"`
	OMP                     int     `toml:"omp"`            //threads for the QM program, exported as OMP_NUM_THREADS
	Cutoff                  float64 `toml:"cutoff"`         //plane-wave cutoff, Ry
	WfConvergence           float64 `toml:"wf_convergence"` //SCF convergence threshold for the orbitals
	SCFStep                 int     `toml:"scf_step"`       //maximum SCF steps, 0 means the program's default
	SaveRestart             bool    `toml:"save_restart"`
	Restart                 bool    `toml:"restart"` //start from the wavefunction in RestartWavefunctionFile
	RestartWavefunctionFile string  `toml:"restart_wavefunction_file"`
	Functional              string  `toml:"functional"`
	PP                      string  `toml:"pp"` //pseudopotential family, files are named Symbol_PP.psp
}

//SetDefaults fills the unset fields of Q with the default values.
//Defaults are not part of the API, they might change.
func (Q *Calc) SetDefaults() {
	if Q.Program == "" {
		Q.Program = CPMD
	}
	if Q.OMP <= 0 {
		Q.OMP = 1
	}
	if Q.Cutoff <= 0 {
		Q.Cutoff = 100
	}
	if Q.WfConvergence <= 0 {
		Q.WfConvergence = 1e-7
	}
	if Q.Functional == "" {
		Q.Functional = "PBE"
	}
	if Q.PP == "" {
		Q.PP = "MT_PBE"
	}
}

//Job is one QM calculation: a molecule and the settings to use on it.
type Job struct {
	Mol  *chem.Molecule
	Calc Calc
}

//NewJob returns a job for mol with a copy of Q. mol is not copied,
//it should not be modified after the job is created.
func NewJob(mol *chem.Molecule, Q Calc) *Job {
	return &Job{Mol: mol, Calc: Q}
}

//Name returns the name of the job, which is the name of its molecule.
func (J *Job) Name() string {
	return J.Mol.Name()
}

//String gives a short description of the job.
func (J *Job) String() string {
	rst := ""
	if J.Calc.Restart {
		rst = " restart=" + J.Calc.RestartWavefunctionFile
	}
	return fmt.Sprintf("%s [%s atoms=%d cutoff=%g scf_step=%d save_restart=%t%s]", J.Name(), J.Calc.Program, J.Mol.Len(), J.Calc.Cutoff, J.Calc.SCFStep, J.Calc.SaveRestart, rst)
}

//Errors

//Error represents a decorable QM error.
type Error struct {
	message    string
	code       string //the name of the QM program giving the problem, or empty string if none
	inputname  string //the input file that has problems, or empty string if none.
	additional string
	deco       []string
	critical   bool
}

//Error returns a string with an error message.
func (err Error) Error() string {
	if err.additional == "" {
		return fmt.Sprintf("%s (%s/%s)", err.message, err.code, err.inputname)
	}
	return fmt.Sprintf("%s (%s/%s) Message: %s", err.message, err.code, err.inputname, err.additional)
}

//Message returns the message of the error, without the program or file information.
func (err Error) Message() string { return err.message }

//Code returns the name of the program that ran/was meant to run the
//calculation that caused the error.
func (err Error) Code() string { return err.code }

//InputName returns the name of the input file which processing caused the error
func (err Error) InputName() string { return err.inputname }

//Critical return whether the error is critical or it can be ignored
func (err Error) Critical() bool { return err.critical }

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

//errDecorate is a helper function that asserts that the error is
//implements chem.Error and decorates the error with the caller's name before returning it.
func errDecorate(err error, caller string) error {
	return chem.ErrDecorate(err, caller)
}

const (
	ErrProbableProblem = "Probable problem in calculation"
	ErrMissingCharges  = "Missing charges or coordinates"
	ErrNoEnergy        = "No energy in output"
	ErrNoGeometry      = "Unable to read geometry from output"
	ErrNotRunning      = "Error in the QM program execution"
	ErrCantInput       = "Can't build input file"
	ErrNoRestart       = "Restart wavefunction file not available"
	ErrUnknownProgram  = "Unknown or unsupported QM program"
)

//Programs supported
const (
	CPMD = "cpmd"
)
