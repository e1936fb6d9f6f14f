/*
 * output.go, part of alchemscan.
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
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	chem "github.com/rmera/alchemscan"
	v3 "github.com/rmera/alchemscan/v3"
)

//Output contains the results read from the output file of a QM calculation.
type Output struct {
	Program  string
	Path     string
	Name     string
	Et       float64        //final total energy, Hartree
	Molecule *chem.Molecule //final geometry, A
	Normal   bool           //the program terminated normally
}

//ReadOutput parses the output file path, produced by program, and returns
//its results. It returns an error if the file can't be read or it contains no energy.
func ReadOutput(path, program string) (*Output, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Error{ErrNoEnergy, program, path, err.Error(), []string{"os.Open", "ReadOutput"}, true}
	}
	defer f.Close()
	O := &Output{
		Program: strings.ToLower(program),
		Path:    path,
		Name:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}
	switch O.Program {
	case CPMD:
		err = parseCPMD(f, O)
	default:
		return nil, Error{ErrUnknownProgram, program, path, "", []string{"ReadOutput"}, true}
	}
	if err != nil {
		return nil, errDecorate(err, "ReadOutput")
	}
	if O.Molecule != nil {
		O.Molecule.SetName(O.Name)
	}
	return O, nil
}

const (
	cpmdEnergy   = "TOTAL ENERGY ="
	cpmdFinal    = "FINAL RESULTS"
	cpmdAtoms    = "ATOMS"
	cpmdNormal   = "PROGRAM CPMD ENDED AT"
	cpmdCoordsHd = "COORDINATES"
)

//parseCPMD reads a CPMD output. The energy is the last "TOTAL ENERGY" printed.
//The geometry is the one in the FINAL RESULTS section or, if absent, the initial
//one from the ATOMS section. CPMD prints coordinates in bohr, they are converted to A.
func parseCPMD(r io.Reader, O *Output) error {
	scanner := bufio.NewScanner(r)
	var (
		found   bool
		initial *chem.Molecule
		final   *chem.Molecule
		err     error
		// 0: nothing, 1: in ATOMS header, 2: after FINAL RESULTS, waiting for the coordinates header
		state int
	)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.Contains(line, cpmdEnergy):
			fields := strings.Fields(line[strings.Index(line, cpmdEnergy)+len(cpmdEnergy):])
			if len(fields) == 0 {
				return Error{ErrNoEnergy, CPMD, O.Path, "malformed energy line: " + line, []string{"parseCPMD"}, true}
			}
			O.Et, err = strconv.ParseFloat(fields[0], 64)
			if err != nil {
				return Error{ErrNoEnergy, CPMD, O.Path, err.Error(), []string{"strconv.ParseFloat", "parseCPMD"}, true}
			}
			found = true
		case strings.Contains(line, cpmdNormal):
			O.Normal = true
		case strings.Contains(line, cpmdFinal):
			state = 2
		case state == 2 && strings.Contains(line, "ATOM") && strings.Contains(line, cpmdCoordsHd):
			state = 0
			final, err = readCPMDCoords(scanner, 2)
			if err != nil {
				return errDecorate(err, "parseCPMD")
			}
		case initial == nil && strings.Contains(line, "*") && strings.Contains(line, " "+cpmdAtoms+" "):
			state = 1
		case state == 1 && strings.Contains(line, "NR") && strings.Contains(line, "TYPE"):
			state = 0
			initial, err = readCPMDCoords(scanner, 2)
			if err != nil {
				return errDecorate(err, "parseCPMD")
			}
		}
	}
	if err = scanner.Err(); err != nil {
		return Error{ErrNoEnergy, CPMD, O.Path, err.Error(), []string{"bufio.Scanner", "parseCPMD"}, true}
	}
	if !found {
		return Error{ErrNoEnergy, CPMD, O.Path, "", []string{"parseCPMD"}, true}
	}
	O.Molecule = final
	if O.Molecule == nil {
		O.Molecule = initial
	}
	return nil
}

//readCPMDCoords reads a block of atom lines, each with the index, the element symbol
//and, starting at the field firstcoord, the coordinates (bohr). It stops at the first line
//that doesn't fit the format.
func readCPMDCoords(scanner *bufio.Scanner, firstcoord int) (*chem.Molecule, error) {
	mol := chem.NewMolecule(chem.Cell{})
	data := make([]float64, 0, 6)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < firstcoord+3 {
			break
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			break
		}
		symbol := fields[1]
		for _, v := range fields[firstcoord : firstcoord+3] {
			c, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, Error{ErrNoGeometry, CPMD, "", err.Error(), []string{"strconv.ParseFloat", "readCPMDCoords"}, true}
			}
			data = append(data, c*chem.Bohr2A)
		}
		mol.AppendAtom(&chem.Atom{Name: symbol, ID: mol.Len() + 1, Symbol: symbol, Z: chem.AtomicNumber(symbol)})
	}
	if mol.Len() == 0 {
		return nil, Error{ErrNoGeometry, CPMD, "", "empty coordinate block", []string{"readCPMDCoords"}, true}
	}
	coords, err := v3.NewMatrix(data)
	if err != nil {
		return nil, Error{ErrNoGeometry, CPMD, "", err.Error(), []string{"v3.NewMatrix", "readCPMDCoords"}, true}
	}
	mol.Coords = []*v3.Matrix{coords}
	return mol, nil
}

//String gives a one-line summary of the output.
func (O *Output) String() string {
	n := 0
	if O.Molecule != nil {
		n = O.Molecule.Len()
	}
	return fmt.Sprintf("%s: Et=%.8f Eh, %d atoms, normal=%t", O.Name, O.Et, n, O.Normal)
}
