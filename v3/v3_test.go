/*
 * v3_test.go, part of alchemscan.
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

package v3

import (
	"math"
	"testing"
)

func TestNewMatrix(Te *testing.T) {
	if _, err := NewMatrix([]float64{1, 2, 3, 4}); err == nil {
		Te.Error("NewMatrix accepted a slice not divisible by 3")
	}
	A, err := NewMatrix([]float64{1, 2, 3, 4, 5, 6})
	if err != nil {
		Te.Fatal(err)
	}
	if A.NVecs() != 2 {
		Te.Errorf("expected 2 vectors, got %d", A.NVecs())
	}
	View := A.VecView(1)
	View.Set(0, 0, 100)
	if A.At(1, 0) != 100 {
		Te.Error("changes to a VecView are not reflected in the parent matrix")
	}
}

func TestVecOps(Te *testing.T) {
	A, _ := NewMatrix([]float64{5, 5, 5, 6, 5, 5})
	if d := A.Distance(0, 1); math.Abs(d-1) > 1e-12 {
		Te.Errorf("distance should be 1, got %g", d)
	}
	B := A.Copy()
	B.SubVec(A, A.VecView(0))
	if B.At(0, 0) != 0 || B.At(1, 0) != 1 {
		Te.Errorf("SubVec gave %v", B)
	}
	u := Zeros(1)
	u.Unit(B.VecView(1))
	if u.At(0, 0) != 1 {
		Te.Errorf("Unit gave %v", u)
	}
	A.AddVec(A.Copy(), u)
	if A.At(0, 0) != 6 || A.At(1, 0) != 7 {
		Te.Errorf("AddVec gave %v", A)
	}
}

func TestUnitZero(Te *testing.T) {
	defer func() {
		if r := recover(); r != ErrZeroVector {
			Te.Errorf("expected ErrZeroVector panic, got %v", r)
		}
	}()
	Zeros(1).Unit(Zeros(1))
}
