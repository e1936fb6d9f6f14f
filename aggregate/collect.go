/*
 * collect.go, part of alchemscan.
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

//Package aggregate collects the results of the reference and prediction batches
//into a bundle of energy curves, and saves and loads those bundles.
package aggregate

import (
	"fmt"
	"path/filepath"
	"sort"

	chem "github.com/rmera/alchemscan"
	"github.com/rmera/alchemscan/manifest"
	"github.com/rmera/alchemscan/qm"
	"gonum.org/v1/gonum/floats"
)

//Group is one of the three kinds of outputs collected.
type Group int

const (
	Ref Group = iota //reference molecule
	Tar              //target molecule, computed directly
	Prd              //target molecule, predicted from the reference wavefunction
)

func (G Group) String() string {
	switch G {
	case Ref:
		return "reference"
	case Tar:
		return "target"
	case Prd:
		return "prediction"
	}
	return fmt.Sprintf("group(%d)", int(G))
}

//Patterns returns the glob patterns of the reference, target and prediction
//outputs for a run prefix, in that order.
func Patterns(prefix string) [3]string {
	return [3]string{
		prefix + "refs/hf*/*.out",
		prefix + "refs/hcl*/*.out",
		prefix + "prds/hcl*/*.out",
	}
}

//Discover returns the files matching pattern, sorted.
func Discover(pattern string) ([]string, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, Error{ErrBadPattern, pattern, err.Error(), []string{"filepath.Glob", "Discover"}, true}
	}
	sort.Strings(files)
	return files, nil
}

//Options for Collect. The zero value performs no validation, as the
//plain glob-and-parse collection.
type Options struct {
	//If > 0, each group must contain exactly Expect outputs.
	Expect int
	//If not nil, the outputs of each group must be exactly the successful
	//jobs of the corresponding manifest. The first manifest is checked against
	//the reference and target groups, the second against the predictions.
	Manifests [2]*manifest.Manifest
	//Coordinate is the atom whose x coordinate is taken as the bond
	//length. Values < 1 mean atom 1, the second atom.
	Coordinate int
	Log        func(format string, v ...interface{})
}

//Collect parses the outputs of a run with the given prefix, and returns
//the bundle with their energies and the shifted energy curves. Any output
//that can't be parsed is an error.
func Collect(prefix, program string, opts Options) (*Bundle, error) {
	atom := opts.Coordinate
	if atom <= 0 {
		atom = 1
	}
	var files [3][]string
	for i, p := range Patterns(prefix) {
		f, err := Discover(p)
		if err != nil {
			return nil, errDecorate(err, "Collect")
		}
		files[i] = f
	}
	if err := validate(files, opts); err != nil {
		return nil, errDecorate(err, "Collect")
	}
	B := new(Bundle)
	for g := range files {
		outs := make([]*qm.Output, 0, len(files[g]))
		for _, f := range files[g] {
			o, err := qm.ReadOutput(f, program)
			if err != nil {
				return nil, Error{ErrCantParse, f, err.Error(), []string{"qm.ReadOutput", "Collect"}, true}
			}
			if !o.Normal && opts.Log != nil {
				opts.Log("%s did not terminate normally, using its last energy", f)
			}
			outs = append(outs, o)
		}
		B.Outputs[g] = outs
		B.Energies[g] = energies(outs)
		B.Shifted[g] = Shift(B.Energies[g])
	}
	B.R = make([]float64, 0, len(B.Outputs[Ref]))
	for _, o := range B.Outputs[Ref] {
		mol := o.Molecule
		if mol == nil || mol.LenFrames() == 0 || mol.Len() <= atom {
			return nil, Error{ErrNoCoordinate, o.Path, fmt.Sprintf("no coordinates for atom %d", atom), []string{"Collect"}, true}
		}
		if opts.Log != nil && mol.Atom(atom).Z < mol.Atom(0).Z {
			opts.Log("%s: atom %d (%s) is lighter than atom 0 (%s), its coordinate might not be the bond length", o.Path, atom, mol.Atom(atom).Symbol, mol.Atom(0).Symbol)
		}
		B.R = append(B.R, mol.Coord(atom, 0).At(0, 0))
	}
	return B, nil
}

func energies(outs []*qm.Output) []float64 {
	ret := make([]float64, len(outs))
	for i, o := range outs {
		ret[i] = o.Et
	}
	return ret
}

//validate checks the discovered files against the expectations in opts.
func validate(files [3][]string, opts Options) error {
	if opts.Expect > 0 {
		for g, f := range files {
			if len(f) != opts.Expect {
				return Error{ErrCount, Patterns("")[g], fmt.Sprintf("%d %s outputs, %d expected", len(f), Group(g), opts.Expect), []string{"validate"}, true}
			}
		}
	}
	if opts.Manifests[0] != nil {
		ref := append(append([]string{}, files[Ref]...), files[Tar]...)
		if err := checkManifest(ref, opts.Manifests[0]); err != nil {
			return errDecorate(err, "validate")
		}
	}
	if opts.Manifests[1] != nil {
		if err := checkManifest(files[Prd], opts.Manifests[1]); err != nil {
			return errDecorate(err, "validate")
		}
	}
	return nil
}

//absPath returns the absolute form of path, or the cleaned path if that fails.
func absPath(path string) string {
	if a, err := filepath.Abs(path); err == nil {
		return a
	}
	return filepath.Clean(path)
}

//checkManifest returns an error if the files are not the outputs of the
//successful jobs in M. Paths are compared in their absolute forms.
func checkManifest(files []string, M *manifest.Manifest) error {
	ok := make(map[string]bool)
	for _, o := range M.Outputs() {
		ok[absPath(o)] = true
	}
	found := make(map[string]bool, len(files))
	for _, f := range files {
		f = absPath(f)
		if !ok[f] {
			return Error{ErrNotInManifest, f, "not a successful job of batch " + M.Batch, []string{"checkManifest"}, true}
		}
		found[f] = true
	}
	for o := range ok {
		if !found[o] {
			return Error{ErrMissingOutput, o, "listed in batch " + M.Batch, []string{"checkManifest"}, true}
		}
	}
	return nil
}

//Shift returns a new slice with the values of e minus the minimum of e.
//The minimum of the returned slice is 0. e is not modified.
func Shift(e []float64) []float64 {
	ret := make([]float64, len(e))
	if len(e) == 0 {
		return ret
	}
	copy(ret, e)
	floats.AddConst(-floats.Min(e), ret)
	return ret
}

//Min returns the minimum of e, and its index. It panics if e is empty.
func Min(e []float64) (float64, int) {
	i := floats.MinIdx(e)
	return e[i], i
}

//Errors

//Error is the error type of the package.
type Error struct {
	message    string
	file       string //the file or pattern concerned
	additional string
	deco       []string
	critical   bool
}

func (err Error) Error() string {
	ret := err.message + " " + err.file
	if err.additional != "" {
		ret += ": " + err.additional
	}
	return ret
}

//Message returns the message of the error, without the file name.
func (err Error) Message() string { return err.message }

//File returns the file or pattern the error refers to.
func (err Error) File() string { return err.file }

func (err Error) Critical() bool { return err.critical }

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

func errDecorate(err error, caller string) error {
	if e, ok := err.(Error); ok {
		e.deco = e.Decorate(caller)
		return e
	}
	return chem.ErrDecorate(err, caller)
}

const (
	ErrBadPattern     = "aggregate: Malformed pattern"
	ErrCantParse      = "aggregate: Can't parse output"
	ErrNoCoordinate   = "aggregate: No bond coordinate in"
	ErrCount          = "aggregate: Wrong number of outputs for"
	ErrNotInManifest  = "aggregate: Output not in manifest:"
	ErrMissingOutput  = "aggregate: Missing output"
	ErrNotABundle     = "aggregate: Not a results file:"
	ErrCantSaveBundle = "aggregate: Can't save results to"
)
