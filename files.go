/*
 * files.go, part of alchemscan.
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

package chem

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	v3 "github.com/rmera/alchemscan/v3"
)

//XYZFileRead reads an xyz file and returns a molecule with one frame per
//structure in the file. The cell of the returned molecule is empty.
func XYZFileRead(xyzname string) (*Molecule, error) {
	xyzfile, err := os.Open(xyzname)
	if err != nil {
		return nil, CError{err.Error(), []string{"os.Open", "XYZFileRead"}}
	}
	defer xyzfile.Close()
	mol, err := XYZRead(xyzfile)
	if err != nil {
		return nil, ErrDecorate(err, "XYZFileRead "+xyzname)
	}
	return mol, nil
}

//XYZRead reads an xyz-formatted stream from r. The comment line of the first
//frame, if not empty, is used as the name of the molecule.
func XYZRead(r io.Reader) (*Molecule, error) {
	xyz := bufio.NewReader(r)
	mol := NewMolecule(Cell{})
	for frame := 0; ; frame++ {
		line, err := xyz.ReadString('\n')
		if err != nil && strings.TrimSpace(line) == "" {
			if frame == 0 {
				return nil, CError{"Empty XYZ stream", []string{"XYZRead"}}
			}
			break
		}
		natoms, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || natoms <= 0 {
			return nil, CError{fmt.Sprintf("Ill formatted XYZ file, frame %d", frame), []string{"strconv.Atoi", "XYZRead"}}
		}
		comment, err := xyz.ReadString('\n')
		if err != nil {
			return nil, CError{"Ill formatted XYZ file, missing comment line", []string{"XYZRead"}}
		}
		if frame == 0 {
			mol.SetName(strings.TrimSpace(comment))
		}
		coords := v3.Zeros(natoms)
		for i := 0; i < natoms; i++ {
			line, err = xyz.ReadString('\n')
			fields := strings.Fields(line)
			if len(fields) < 4 {
				return nil, CError{fmt.Sprintf("Line number %d of frame %d ill formed", i, frame), []string{"XYZRead"}}
			}
			if frame == 0 {
				symbol := fields[0]
				mol.AppendAtom(&Atom{Name: symbol, ID: i + 1, Symbol: symbol, Z: AtomicNumber(symbol), Mass: symbolMass[symbol]})
			}
			for j := 0; j < 3; j++ {
				c, err2 := strconv.ParseFloat(fields[j+1], 64)
				if err2 != nil {
					return nil, CError{err2.Error(), []string{"strconv.ParseFloat", "XYZRead"}}
				}
				coords.Set(i, j, c)
			}
			if err != nil && i < natoms-1 {
				return nil, CError{fmt.Sprintf("Unexpected end of file in frame %d", frame), []string{"XYZRead"}}
			}
		}
		if natoms != mol.Len() {
			return nil, CError{fmt.Sprintf("Frame %d has %d atoms, expected %d", frame, natoms, mol.Len()), []string{"XYZRead"}}
		}
		mol.Coords = append(mol.Coords, coords)
		if err != nil {
			break
		}
	}
	if mol.Electrons()%2 != 0 {
		mol.SetMulti(2)
	}
	return mol, nil
}

//XYZFileWrite writes the coordinates coords, with the atoms in mol, in an XYZ
//file with name xyzname which will be created fot that. If the file exist it will be overwriten.
func XYZFileWrite(xyzname string, coords *v3.Matrix, mol Atomer) error {
	out, err := os.Create(xyzname)
	if err != nil {
		return CError{err.Error(), []string{"os.Create", "XYZFileWrite"}}
	}
	defer out.Close()
	err = XYZWrite(out, coords, mol, "")
	if err != nil {
		return ErrDecorate(err, "XYZFileWrite")
	}
	return nil
}

//XYZWrite writes the coordinates coords, with the atoms in mol, in XYZ format
//to w. comment is written in the second line.
func XYZWrite(w io.Writer, coords *v3.Matrix, mol Atomer, comment string) error {
	if mol.Len() != coords.NVecs() {
		return CError{fmt.Sprintf("%d atoms but %d coordinates", mol.Len(), coords.NVecs()), []string{"XYZWrite"}}
	}
	out := bufio.NewWriter(w)
	fmt.Fprintf(out, "%-4d\n%s\n", mol.Len(), strings.ReplaceAll(comment, "\n", " "))
	for i := 0; i < mol.Len(); i++ {
		_, err := fmt.Fprintf(out, "%-2s  %12.6f%12.6f%12.6f\n", mol.Atom(i).Symbol, coords.At(i, 0), coords.At(i, 1), coords.At(i, 2))
		if err != nil {
			return CError{err.Error(), []string{"XYZWrite"}}
		}
	}
	if err := out.Flush(); err != nil {
		return CError{err.Error(), []string{"bufio.Flush", "XYZWrite"}}
	}
	return nil
}
