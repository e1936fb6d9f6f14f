/*
 * bundle.go, part of alchemscan.
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

package aggregate

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"
	"os"

	"github.com/klauspost/compress/zstd"
	chem "github.com/rmera/alchemscan"
	"github.com/rmera/alchemscan/qm"
	v3 "github.com/rmera/alchemscan/v3"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

//Bundle contains the collected results of a run: the parsed outputs, the bond
//coordinate of each reference geometry, and the raw and shifted energies (Hartree)
//of each group. All arrays are indexed by Group.
type Bundle struct {
	Outputs  [3][]*qm.Output
	R        []float64
	Energies [3][]float64
	Shifted  [3][]float64
}

//Len returns the number of points in the reference curve.
func (B *Bundle) Len() int {
	return len(B.R)
}

//Summary compares the predicted curve with the target one.
type Summary struct {
	N      int
	MAD    float64 //mean absolute deviation between the shifted curves, Hartree
	MaxDev float64 //largest absolute deviation, Hartree
	AtMax  float64 //bond coordinate of the largest deviation
}

func (S Summary) String() string {
	return fmt.Sprintf("%d points, prediction vs target: MAD %.6f kcal/mol, max %.6f kcal/mol at R=%.3f A", S.N, S.MAD*chem.H2Kcal, S.MaxDev*chem.H2Kcal, S.AtMax)
}

//Summary returns the deviation between the shifted prediction and target curves.
//It returns an error if the curves don't have the same number of points.
func (B *Bundle) Summary() (Summary, error) {
	tar, prd := B.Shifted[Tar], B.Shifted[Prd]
	if len(tar) != len(prd) || len(tar) == 0 {
		return Summary{}, Error{ErrCount, "summary", fmt.Sprintf("%d target and %d predicted points", len(tar), len(prd)), []string{"Summary"}, true}
	}
	dev := make([]float64, len(tar))
	for i := range tar {
		dev[i] = math.Abs(prd[i] - tar[i])
	}
	//the first point wins ties, including identical curves.
	imax := floats.MaxIdx(dev)
	S := Summary{N: len(tar), MAD: stat.Mean(dev, nil), MaxDev: dev[imax]}
	if imax < len(B.R) {
		S.AtMax = B.R[imax]
	}
	return S, nil
}

//ResultsFile returns the name of the results file for a run prefix.
func ResultsFile(prefix string) string {
	return prefix + "results.gob.zst"
}

const bundleVersion = 1

//flat forms of the bundle, for gob.
type outputRecord struct {
	Program string
	Path    string
	Name    string
	Et      float64
	Normal  bool
	Symbols []string
	Coords  []float64
}

type bundleRecord struct {
	Version  int
	Outputs  [3][]outputRecord
	R        []float64
	Energies [3][]float64
	Shifted  [3][]float64
}

func toRecord(O *qm.Output) outputRecord {
	r := outputRecord{Program: O.Program, Path: O.Path, Name: O.Name, Et: O.Et, Normal: O.Normal}
	if O.Molecule == nil || O.Molecule.LenFrames() == 0 {
		return r
	}
	mol := O.Molecule
	r.Symbols = make([]string, mol.Len())
	r.Coords = make([]float64, 0, 3*mol.Len())
	for i := 0; i < mol.Len(); i++ {
		r.Symbols[i] = mol.Atom(i).Symbol
		c := mol.Coords[0]
		r.Coords = append(r.Coords, c.At(i, 0), c.At(i, 1), c.At(i, 2))
	}
	return r
}

func fromRecord(r outputRecord) (*qm.Output, error) {
	O := &qm.Output{Program: r.Program, Path: r.Path, Name: r.Name, Et: r.Et, Normal: r.Normal}
	if len(r.Symbols) == 0 {
		return O, nil
	}
	mol := chem.NewMolecule(chem.Cell{})
	for i, s := range r.Symbols {
		mol.AppendAtom(&chem.Atom{Name: s, ID: i + 1, Symbol: s, Z: chem.AtomicNumber(s)})
	}
	coords, err := v3.NewMatrix(r.Coords)
	if err != nil {
		return nil, err
	}
	mol.Coords = []*v3.Matrix{coords}
	if err := mol.Corrupted(); err != nil {
		return nil, err
	}
	O.Molecule = mol
	return O, nil
}

//Save writes B to the file path, gob-encoded and compressed with zstd.
//Saving the same bundle always produces the same bytes.
func Save(path string, B *Bundle) error {
	rec := bundleRecord{Version: bundleVersion, R: B.R, Energies: B.Energies, Shifted: B.Shifted}
	for g, outs := range B.Outputs {
		rec.Outputs[g] = make([]outputRecord, len(outs))
		for i, o := range outs {
			rec.Outputs[g][i] = toRecord(o)
		}
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return Error{ErrCantSaveBundle, path, err.Error(), []string{"gob.Encode", "Save"}, true}
	}
	//a single-threaded encoder with a fixed level is deterministic.
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1), zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return Error{ErrCantSaveBundle, path, err.Error(), []string{"zstd.NewWriter", "Save"}, true}
	}
	data := enc.EncodeAll(buf.Bytes(), nil)
	enc.Close()
	if err := os.WriteFile(path, data, 0644); err != nil {
		return Error{ErrCantSaveBundle, path, err.Error(), []string{"os.WriteFile", "Save"}, true}
	}
	return nil
}

//Load reads a bundle saved with Save.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Error{ErrNotABundle, path, err.Error(), []string{"os.ReadFile", "Load"}, true}
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, Error{ErrNotABundle, path, err.Error(), []string{"zstd.NewReader", "Load"}, true}
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, Error{ErrNotABundle, path, err.Error(), []string{"zstd.DecodeAll", "Load"}, true}
	}
	var rec bundleRecord
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&rec); err != nil {
		return nil, Error{ErrNotABundle, path, err.Error(), []string{"gob.Decode", "Load"}, true}
	}
	if rec.Version != bundleVersion {
		return nil, Error{ErrNotABundle, path, fmt.Sprintf("version %d, expected %d", rec.Version, bundleVersion), []string{"Load"}, true}
	}
	B := &Bundle{R: rec.R, Energies: rec.Energies, Shifted: rec.Shifted}
	for g, outs := range rec.Outputs {
		B.Outputs[g] = make([]*qm.Output, len(outs))
		for i, r := range outs {
			o, err := fromRecord(r)
			if err != nil {
				return nil, Error{ErrNotABundle, path, err.Error(), []string{"fromRecord", "Load"}, true}
			}
			B.Outputs[g][i] = o
		}
	}
	return B, nil
}
