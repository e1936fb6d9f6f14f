/*
 * chem_test.go, part of alchemscan.
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

package chem

import (
	"bytes"
	"math"
	"strings"
	"testing"
)

func hf(Te *testing.T) *Molecule {
	mol := NewMolecule(Cell{Celldm: [6]float64{20, 10, 10, 0, 0, 0}, Isolated: true})
	if err := mol.Build([][4]float64{{1, 5, 5, 5}, {9, 6, 5, 5}}); err != nil {
		Te.Fatal(err)
	}
	mol.SetName("hf_ref")
	return mol
}

func TestBuild(Te *testing.T) {
	mol := hf(Te)
	if mol.Len() != 2 || mol.Atom(1).Symbol != "F" || mol.Atom(1).Z != 9 || mol.Atom(0).Mass == 0 {
		Te.Errorf("wrong atoms %v", mol.Atoms)
	}
	if mol.Multi() != 1 || mol.Charge() != 0 || mol.Electrons() != 10 {
		Te.Errorf("wrong charge/multiplicity %d %d", mol.Charge(), mol.Multi())
	}
	rad := NewMolecule(Cell{})
	if err := rad.Build([][4]float64{{1, 0, 0, 0}, {8, 1, 0, 0}}); err != nil {
		Te.Fatal(err)
	}
	if rad.Multi() != 2 {
		Te.Errorf("OH should be a doublet, got %d", rad.Multi())
	}
	for _, bad := range [][][4]float64{nil, {{0, 0, 0, 0}}, {{1.5, 0, 0, 0}}, {{200, 0, 0, 0}}} {
		if err := NewMolecule(Cell{}).Build(bad); err == nil {
			Te.Errorf("Build accepted %v", bad)
		}
	}
}

func TestCopy(Te *testing.T) {
	mol := hf(Te)
	cp := mol.Copy()
	cp.SetName("other")
	cp.Atom(1).Symbol = "Cl"
	cp.Coords[0].Set(1, 0, 7)
	cp.Cell.Celldm[0] = 30
	if mol.Name() != "hf_ref" || mol.Atom(1).Symbol != "F" || mol.Coords[0].At(1, 0) != 6 || mol.Cell.Celldm[0] != 20 {
		Te.Errorf("the copy shares data with the original")
	}
	if cp.Cell.Isolated != mol.Cell.Isolated || cp.Multi() != mol.Multi() {
		Te.Errorf("the copy lost the cell or multiplicity")
	}
}

func TestStretch(Te *testing.T) {
	for _, s := range []float64{-0.5, -0.1, 0, 0.3, 1.3} {
		mol := hf(Te)
		if err := mol.Stretch(1, [2]int{0, 1}, s); err != nil {
			Te.Fatal(err)
		}
		if d := Distance(mol, 0, 1); math.Abs(d-(1+s)) > 1e-12 {
			Te.Errorf("offset %g gave bond length %g", s, d)
		}
		if mol.Coords[0].At(0, 0) != 5 || mol.Coords[0].At(1, 1) != 5 {
			Te.Errorf("offset %g moved the wrong coordinates: %v", s, mol.Coords[0])
		}
	}
	//along an arbitrary direction
	mol := NewMolecule(Cell{})
	if err := mol.Build([][4]float64{{1, 0, 0, 0}, {17, 1, 1, 1}}); err != nil {
		Te.Fatal(err)
	}
	if err := mol.Stretch(1, [2]int{0, 1}, 0.5); err != nil {
		Te.Fatal(err)
	}
	if d := Distance(mol, 0, 1); math.Abs(d-(math.Sqrt(3)+0.5)) > 1e-12 {
		Te.Errorf("wrong bond length %g", d)
	}
	for _, c := range []struct {
		target int
		bond   [2]int
	}{{2, [2]int{0, 1}}, {1, [2]int{0, 0}}, {-1, [2]int{0, 1}}, {1, [2]int{0, 3}}} {
		if err := hf(Te).Stretch(c.target, c.bond, 0.1); err == nil {
			Te.Errorf("Stretch accepted %v", c)
		}
	}
	overlap := NewMolecule(Cell{})
	if err := overlap.Build([][4]float64{{1, 0, 0, 0}, {1, 0, 0, 0}}); err != nil {
		Te.Fatal(err)
	}
	if err := overlap.Stretch(1, [2]int{0, 1}, 0.1); err == nil {
		Te.Error("Stretch accepted overlapping atoms")
	}
}

func TestXYZ(Te *testing.T) {
	mol := hf(Te)
	var buf bytes.Buffer
	if err := XYZWrite(&buf, mol.Coords[0], mol, mol.Name()); err != nil {
		Te.Fatal(err)
	}
	//a second frame
	if err := XYZWrite(&buf, mol.Coords[0], mol, "frame 2"); err != nil {
		Te.Fatal(err)
	}
	read, err := XYZRead(strings.NewReader(buf.String()))
	if err != nil {
		Te.Fatal(err)
	}
	if read.Name() != "hf_ref" || read.Len() != 2 || read.LenFrames() != 2 || read.Atom(1).Z != 9 {
		Te.Errorf("wrong molecule read %v", read.Atoms)
	}
	if d := Distance(read, 0, 1); math.Abs(d-1) > 1e-6 {
		Te.Errorf("wrong distance %g", d)
	}
	if _, err := XYZRead(strings.NewReader("3\nbad\nH 0 0 0\n")); err == nil {
		Te.Error("truncated XYZ accepted")
	}
	if _, err := XYZRead(strings.NewReader("")); err == nil {
		Te.Error("empty XYZ accepted")
	}
}
