/*
 * config.go, part of alchemscan.
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

//Package config reads the settings of an alchemical scan from a TOML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	chem "github.com/rmera/alchemscan"
	"github.com/rmera/alchemscan/qm"
	"github.com/rmera/alchemscan/sweep"
)

//AtomConf is one atom of a template: its atomic number and its position (A).
type AtomConf struct {
	Z   int        `toml:"z"`
	XYZ [3]float64 `toml:"xyz"`
}

//CellConf is the simulation cell shared by the templates.
type CellConf struct {
	Celldm   [6]float64 `toml:"celldm"`
	Isolated bool       `toml:"isolated"`
}

//Templates are the reference and target molecules, and the stretch applied
//to them: Target moves along the vector from Bond[0] to Bond[1].
type Templates struct {
	Ref    []AtomConf `toml:"ref"`
	Tar    []AtomConf `toml:"tar"`
	Target int        `toml:"target"`
	Bond   [2]int     `toml:"bond"`
}

//Config contains all the settings of a scan.
type Config struct {
	Prefix    string      `toml:"prefix"`  //prefix of the batch directories and the results file
	Workers   int         `toml:"workers"` //QM jobs run at the same time
	Command   string      `toml:"command"` //command for the QM program, empty for its default
	PPPath    string      `toml:"pp_path"`
	Sweep     sweep.Sweep `toml:"sweep"`
	Cell      CellConf    `toml:"cell"`
	QM        qm.Calc     `toml:"qm"`
	Templates Templates   `toml:"templates"`
}

//Default returns the settings of the HF to HCl scan.
func Default() *Config {
	return &Config{
		Prefix:  "production_shifted_",
		Workers: 1,
		Sweep:   sweep.Default(),
		Cell:    CellConf{Celldm: [6]float64{20, 10, 10, 0, 0, 0}, Isolated: true},
		QM:      qm.Calc{Program: qm.CPMD, OMP: 2, Cutoff: 200, WfConvergence: 1e-7},
		Templates: Templates{
			Ref:    []AtomConf{{1, [3]float64{5, 5, 5}}, {9, [3]float64{6, 5, 5}}},
			Tar:    []AtomConf{{1, [3]float64{5, 5, 5}}, {17, [3]float64{6, 5, 5}}},
			Target: 1,
			Bond:   [2]int{0, 1},
		},
	}
}

//Load reads the TOML file path. Settings absent in the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	C := Default()
	md, err := toml.Decode(string(data), C)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if und := md.Undecoded(); len(und) > 0 {
		return nil, fmt.Errorf("config: %s: unknown keys %v", path, und)
	}
	if err := C.Check(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return C, nil
}

//Check returns an error if the settings can't describe a scan.
func (C *Config) Check() error {
	if C.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", C.Workers)
	}
	if _, err := C.Sweep.Values(); err != nil {
		return err
	}
	t := C.Templates
	if len(t.Ref) != len(t.Tar) || len(t.Ref) < 2 {
		return fmt.Errorf("the templates need the same number (>1) of atoms, got %d and %d", len(t.Ref), len(t.Tar))
	}
	for _, i := range []int{t.Target, t.Bond[0], t.Bond[1]} {
		if i < 0 || i >= len(t.Ref) {
			return fmt.Errorf("atom index %d out of range", i)
		}
	}
	if t.Bond[0] == t.Bond[1] {
		return fmt.Errorf("the stretch bond needs two different atoms")
	}
	return nil
}

func (C *Config) molecule(atoms []AtomConf, name string) (*chem.Molecule, error) {
	mol := chem.NewMolecule(chem.Cell{Celldm: C.Cell.Celldm, Isolated: C.Cell.Isolated})
	rows := make([][4]float64, len(atoms))
	for i, a := range atoms {
		rows[i] = [4]float64{float64(a.Z), a.XYZ[0], a.XYZ[1], a.XYZ[2]}
	}
	if err := mol.Build(rows); err != nil {
		return nil, err
	}
	mol.SetName(name)
	return mol, nil
}

//Molecules builds the reference and target templates.
func (C *Config) Molecules() (ref, tar *chem.Molecule, err error) {
	if ref, err = C.molecule(C.Templates.Ref, sweep.RefPrefix); err != nil {
		return nil, nil, fmt.Errorf("config: reference template: %w", err)
	}
	if tar, err = C.molecule(C.Templates.Tar, "hcl_tar"); err != nil {
		return nil, nil, fmt.Errorf("config: target template: %w", err)
	}
	return ref, tar, nil
}

//RefRoot returns the absolute path of the directory for the reference batch.
func (C *Config) RefRoot() (string, error) {
	return filepath.Abs(C.Prefix + "refs")
}

//PrdRoot returns the directory for the prediction batch.
func (C *Config) PrdRoot() string {
	return C.Prefix + "prds"
}

//Generator returns the job generator for the scan.
func (C *Config) Generator() (*sweep.Generator, error) {
	ref, tar, err := C.Molecules()
	if err != nil {
		return nil, err
	}
	root, err := C.RefRoot()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	G := sweep.NewGenerator(ref, tar, C.QM, root)
	G.Sweep = C.Sweep
	G.Target = C.Templates.Target
	G.Bond = C.Templates.Bond
	return G, nil
}
