/*
 * doc.go, part of alchemscan.
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

/*Package chem is the main package of the alchemscan library. It provides atom and molecule
structures, a simulation cell, facilities for reading and writing XYZ files and the geometric
manipulations needed to build bond-stretch scans (Build, Copy, Stretch).

The subpackages build on it:

	v3          Nx3 coordinate matrices on top of gonum.
	qm          QM calculation settings, the CPMD handle and the CPMD output parser.
	sweep       generation of the reference and prediction jobs of a stretch scan.
	runner      execution of a batch of jobs into a directory tree.
	manifest    per-job run records, stored in SQLite.
	aggregate   discovery, parsing, shifting and persistence of the results.
	energyplot  plots of the shifted energy curves.
	config      TOML configuration.

The alchemscan command (cmd/alchemscan) puts them together to run an alchemical
HF to HCl prediction scan.
*/
package chem
