/*
 * energyplot.go, part of alchemscan.
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

//Package energyplot draws the energy curves of a collected run.
package energyplot

import (
	"fmt"

	chem "github.com/rmera/alchemscan"
	"github.com/rmera/alchemscan/aggregate"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

//Width and Height of the plots.
var (
	Width  = 5 * vg.Inch
	Height = 4 * vg.Inch
)

//xys returns the points of one shifted curve, in kcal/mol.
func xys(R, e []float64) (plotter.XYs, error) {
	if len(R) != len(e) {
		return nil, fmt.Errorf("energyplot: %d bond coordinates but %d energies", len(R), len(e))
	}
	pts := make(plotter.XYs, len(R))
	for i := range R {
		pts[i].X = R[i]
		pts[i].Y = e[i] * chem.H2Kcal
	}
	return pts, nil
}

//Curves plots the shifted reference, target and predicted energies against the
//bond coordinate, and saves the plot to path. The format is given by the
//extension of path (png, svg, pdf...).
func Curves(B *aggregate.Bundle, path string) error {
	if B == nil || B.Len() == 0 {
		return fmt.Errorf("energyplot: no data to plot")
	}
	p := plot.New()
	p.Title.Text = "Alchemical prediction"
	p.X.Label.Text = "R (A)"
	p.Y.Label.Text = "E - Emin (kcal/mol)"
	p.Add(plotter.NewGrid())
	var vs []interface{}
	for _, g := range []aggregate.Group{aggregate.Ref, aggregate.Tar, aggregate.Prd} {
		pts, err := xys(B.R, B.Shifted[g])
		if err != nil {
			return fmt.Errorf("%w (%s)", err, g)
		}
		vs = append(vs, g.String(), pts)
	}
	if err := plotutil.AddLinePoints(p, vs...); err != nil {
		return fmt.Errorf("energyplot: %w", err)
	}
	p.Legend.Top = true
	if err := p.Save(Width, Height, path); err != nil {
		return fmt.Errorf("energyplot: saving %s: %w", path, err)
	}
	return nil
}
