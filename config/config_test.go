/*
 * config_test.go, part of alchemscan.
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

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	chem "github.com/rmera/alchemscan"
)

func write(Te *testing.T, content string) string {
	path := filepath.Join(Te.TempDir(), "scan.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		Te.Fatal(err)
	}
	return path
}

func TestDefault(Te *testing.T) {
	C := Default()
	if err := C.Check(); err != nil {
		Te.Fatal(err)
	}
	G, err := C.Generator()
	if err != nil {
		Te.Fatal(err)
	}
	refs, prds, err := G.Generate()
	if err != nil {
		Te.Fatal(err)
	}
	if len(refs) != 38 || len(prds) != 19 {
		Te.Errorf("expected 38 and 19 jobs, got %d and %d", len(refs), len(prds))
	}
	if !filepath.IsAbs(G.RefRoot) || filepath.Base(G.RefRoot) != "production_shifted_refs" {
		Te.Errorf("wrong reference root %s", G.RefRoot)
	}
	q := refs[0].Calc
	if q.OMP != 2 || q.Cutoff != 200 || q.WfConvergence != 1e-7 || q.Program != "cpmd" {
		Te.Errorf("wrong QM settings %+v", q)
	}
	ref, tar, err := C.Molecules()
	if err != nil {
		Te.Fatal(err)
	}
	if ref.Atom(1).Symbol != "F" || tar.Atom(1).Symbol != "Cl" || chem.Distance(ref, 0, 1) != 1 {
		Te.Errorf("wrong templates %v %v", ref.Atoms, tar.Atoms)
	}
	if ref.Cell.Celldm[0] != 20 || !tar.Cell.Isolated {
		Te.Errorf("wrong cell %+v", ref.Cell)
	}
}

func TestLoad(Te *testing.T) {
	path := write(Te, `
prefix = "test_"
workers = 4

[sweep]
start = 0.8
stop = 1.3

[qm]
cutoff = 100.0
omp = 1

[[templates.ref]]
z = 1
xyz = [0.0, 0.0, 0.0]

[[templates.ref]]
z = 9
xyz = [1.0, 0.0, 0.0]

[[templates.tar]]
z = 1
xyz = [0.0, 0.0, 0.0]

[[templates.tar]]
z = 35
xyz = [1.0, 0.0, 0.0]
`)
	C, err := Load(path)
	if err != nil {
		Te.Fatal(err)
	}
	if C.Prefix != "test_" || C.Workers != 4 || C.PrdRoot() != "test_prds" {
		Te.Errorf("wrong settings %+v", C)
	}
	//unset keys keep their defaults
	if C.Sweep.Step != 0.1 || C.Sweep.Start != 0.8 || C.QM.WfConvergence != 1e-7 || C.QM.Cutoff != 100 {
		Te.Errorf("wrong merged settings %+v %+v", C.Sweep, C.QM)
	}
	v, err := C.Sweep.Values()
	if err != nil || len(v) != 5 {
		Te.Errorf("expected 5 values, got %v (%v)", v, err)
	}
	_, tar, err := C.Molecules()
	if err != nil {
		Te.Fatal(err)
	}
	if tar.Atom(1).Symbol != "Br" {
		Te.Errorf("wrong target template %v", tar.Atoms)
	}
}

func TestLoadErrors(Te *testing.T) {
	for name, content := range map[string]string{
		"unknown key": "prefixx = \"a\"\n",
		"workers":     "workers = 0\n",
		"syntax":      "prefix = \n",
		"bond":        "[templates]\nbond = [1, 1]\n",
		"sweep":       "[sweep]\nstep = -0.1\n",
		"atoms":       "[[templates.ref]]\nz = 1\nxyz = [0.0, 0.0, 0.0]\n",
	} {
		if _, err := Load(write(Te, content)); err == nil {
			Te.Errorf("%s: bad configuration accepted", name)
		} else if !strings.HasPrefix(err.Error(), "config:") {
			Te.Errorf("%s: unexpected error %v", name, err)
		}
	}
	if _, err := Load(filepath.Join(Te.TempDir(), "missing.toml")); err == nil {
		Te.Error("missing file accepted")
	}
}
