/*
 * chem.go, part of alchemscan.
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
	"fmt"

	v3 "github.com/rmera/alchemscan/v3"
)

/**Note: Many funcitons here panic instead of returning errors. This is because they are "fundamental"
 * functions. If something goes wrong here, the program is most likely wrong and should
 * crash. Most panics are related to using the function on a nil object or trying to access out-of bounds
 * fields**/

//Atom contains the atoms read except for the coordinates, which will be in a matrix.
type Atom struct {
	Name   string
	ID     int
	Symbol string
	Z      int
	Mass   float64
	Charge float64
}

//Copy returns a copy of the Atom object.
func (A *Atom) Copy() *Atom {
	if A == nil {
		panic("Attempted to copy a nil atom")
	}
	ret := *A
	return &ret
}

/*****Topology type***/

//Topology contains information about a molecule which is not expected to change in time (i.e. everything except for coordinates)
type Topology struct {
	Atoms  []*Atom
	charge int
	multi  int
}

//NewTopology returns a topology with charge charge, multiplicity multi and
//the atoms given (not copied).
func NewTopology(charge, multi int, ats ...*Atom) *Topology {
	top := new(Topology)
	top.Atoms = ats
	top.charge = charge
	top.multi = multi
	return top
}

//Charge gets the total charge of the topology
func (T *Topology) Charge() int {
	return T.charge
}

//Multi returns the multiplicity of the topology
func (T *Topology) Multi() int {
	return T.multi
}

//SetMulti sets the multiplicity of the topology to i
func (T *Topology) SetMulti(i int) {
	T.multi = i
}

//CopyAtoms returns a deep copy of the topology
func (T *Topology) CopyAtoms() *Topology {
	top := NewTopology(T.charge, T.multi)
	top.Atoms = make([]*Atom, T.Len())
	for key, val := range T.Atoms {
		top.Atoms[key] = val.Copy()
	}
	return top
}

//Atom returns the Atom corresponding to the index i
//of the Atom slice in the Topology. Panics if
//out of range.
func (T *Topology) Atom(i int) *Atom {
	if i >= T.Len() || i < 0 {
		panic("Topology: Requested Atom out of bounds")
	}
	return T.Atoms[i]
}

//AppendAtom appends an atom at the end of the topology
func (T *Topology) AppendAtom(at *Atom) {
	T.Atoms = append(T.Atoms, at)
}

//Len returns the number of atoms in the topology.
func (T *Topology) Len() int {
	return len(T.Atoms)
}

//Electrons returns the number of electrons in the topology,
//taking into account its total charge.
func (T *Topology) Electrons() int {
	n := -T.charge
	for _, v := range T.Atoms {
		n += v.Z
	}
	return n
}

/**Type Cell**/

//Cell describes the simulation box of a molecule. Celldm holds the
//lengths a, b and c of the box (A) followed by the cosines of the
//angles between b and c, a and c, and a and b. Isolated is true for
//non-periodic (gas phase) systems.
type Cell struct {
	Celldm   [6]float64
	Isolated bool
}

/**Type Molecule**/

//Molecule contains all the info for a molecule in many states. The info that is expected to change between states,
//i.e. the coordinates, are stored separately from other atomic info.
type Molecule struct {
	*Topology
	Coords []*v3.Matrix
	Cell   Cell
	name   string
}

//NewMolecule returns an empty, neutral, singlet molecule in the cell given.
//Atoms are added with the Build method.
func NewMolecule(cell Cell) *Molecule {
	mol := new(Molecule)
	mol.Topology = NewTopology(0, 1)
	mol.Cell = cell
	return mol
}

//Name returns the name of the molecule, used to name the calculations on it.
func (M *Molecule) Name() string {
	return M.name
}

//SetName sets the name of the molecule
func (M *Molecule) SetName(name string) {
	M.name = name
}

//Build replaces the atoms and coordinates of the molecule with the ones in
//atoms. Each element of atoms contains the atomic number followed by the x, y
//and z coordinates (A). The multiplicity is reset to the lowest one compatible
//with the number of electrons.
func (M *Molecule) Build(atoms [][4]float64) error {
	if len(atoms) == 0 {
		return CError{"No atoms given", []string{"Build"}}
	}
	ats := make([]*Atom, 0, len(atoms))
	coords := v3.Zeros(len(atoms))
	for i, v := range atoms {
		z := int(v[0])
		symbol, ok := zSymbol[z]
		if !ok || float64(z) != v[0] {
			return CError{fmt.Sprintf("Unknown atomic number %g for atom %d", v[0], i), []string{"Build"}}
		}
		at := &Atom{Name: symbol, ID: i + 1, Symbol: symbol, Z: z, Mass: symbolMass[symbol]}
		ats = append(ats, at)
		coords.Set(i, 0, v[1])
		coords.Set(i, 1, v[2])
		coords.Set(i, 2, v[3])
	}
	M.Topology.Atoms = ats
	M.Coords = []*v3.Matrix{coords}
	M.multi = 1
	if M.Electrons()%2 != 0 {
		M.multi = 2
	}
	return nil
}

//Copy returns a copy of the molecule including coordinates, cell and name
func (M *Molecule) Copy() *Molecule {
	if err := M.Corrupted(); err != nil {
		panic(err.Error())
	}
	mol := new(Molecule)
	mol.Topology = M.Topology.CopyAtoms()
	mol.Cell = M.Cell
	mol.name = M.name
	mol.Coords = make([]*v3.Matrix, 0, len(M.Coords))
	for _, val := range M.Coords {
		mol.Coords = append(mol.Coords, val.Copy())
	}
	return mol
}

//Stretch displaces the atom target by offset (A) along the unit vector that goes from
//the atom bond[0] to the atom bond[1], in every frame of the molecule.
//With target==bond[1], the bond length changes by exactly offset.
func (M *Molecule) Stretch(target int, bond [2]int, offset float64) error {
	n := M.Len()
	for _, v := range []int{target, bond[0], bond[1]} {
		if v < 0 || v >= n {
			return CError{fmt.Sprintf("Atom index %d out of range (%d atoms)", v, n), []string{"Stretch"}}
		}
	}
	if bond[0] == bond[1] {
		return CError{"Stretch needs two different atoms to define the bond", []string{"Stretch"}}
	}
	unit := v3.Zeros(1)
	for frame, c := range M.Coords {
		unit.SubVec(c.VecView(bond[1]), c.VecView(bond[0]))
		if c.Distance(bond[0], bond[1]) <= appzero {
			return CError{fmt.Sprintf("Atoms %d and %d overlap in frame %d", bond[0], bond[1], frame), []string{"Stretch"}}
		}
		unit.Unit(unit)
		unit.Dense.Scale(offset, unit.Dense)
		t := c.VecView(target)
		t.Dense.Add(t.Dense, unit.Dense)
	}
	return nil
}

//Coord returns a view of the coordinates for the atom atom in the frame frame.
//panics if frame or coords are out of range.
func (M *Molecule) Coord(atom, frame int) *v3.Matrix {
	if frame >= len(M.Coords) {
		panic(fmt.Sprintf("Frame requested (%d) out of range", frame))
	}
	if atom >= M.Coords[frame].NVecs() {
		panic(fmt.Sprintf("Requested coordinate (%d) out of bounds (%d)", atom, M.Coords[frame].NVecs()))
	}
	return M.Coords[frame].VecView(atom)
}

//Corrupted checks whether the molecule is corrupted, i.e. the
//coordinates don't match the number of atoms.
func (M *Molecule) Corrupted() error {
	if M == nil || M.Topology == nil {
		return CError{"Nil molecule or topology", []string{"Corrupted"}}
	}
	for i := range M.Coords {
		if M.Len() != M.Coords[i].NVecs() {
			return CError{fmt.Sprintf("Inconsistent coordinates/atoms in frame %d: Atoms %d, coords: %d", i, M.Len(), M.Coords[i].NVecs()), []string{"Corrupted"}}
		}
	}
	return nil
}

//LenFrames returns the number of frames in the molecule
func (M *Molecule) LenFrames() int {
	return len(M.Coords)
}

//Distance returns the distance (A) between the atoms i and j in the
//first frame of the molecule.
func Distance(M *Molecule, i, j int) float64 {
	return M.Coords[0].Distance(i, j)
}
