/*
Copyright © 2019 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package engine

import "math"

// nearestSTODWeights maps each destination degree of freedom to its
// closest source degree of freedom. Ties are resolved by the k-d tree
// and are not guaranteed to be stable.
func nearestSTODWeights(src, dst *Field, b *weightBuilder) {
	idx := newPointIndex(src.obj.dofPoints(src.loc))
	for d, x := range dst.obj.dofPoints(dst.loc) {
		if hasNaN(x) {
			continue
		}
		if s, _ := idx.nearest(x); s >= 0 {
			b.add(d, s, 1)
		}
	}
}

// nearestDTOSWeights maps each source degree of freedom to its closest
// destination degree of freedom. Destinations receiving several
// sources get their sum; those receiving none are unmapped.
func nearestDTOSWeights(src, dst *Field, b *weightBuilder) {
	idx := newPointIndex(dst.obj.dofPoints(dst.loc))
	for s, x := range src.obj.dofPoints(src.loc) {
		if hasNaN(x) {
			continue
		}
		if d, _ := idx.nearest(x); d >= 0 {
			b.add(d, s, 1)
		}
	}
}

// extrapolate fills the destination rows of b that have no entries.
func extrapolate(src, dst *Field, cfg Config, b *weightBuilder) {
	if cfg.Extrapolation == ExtrapNone {
		return
	}
	mapped := b.rowSet()
	idx := newPointIndex(src.obj.dofPoints(src.loc))
	for d, x := range dst.obj.dofPoints(dst.loc) {
		if mapped[d] || hasNaN(x) {
			continue
		}
		switch cfg.Extrapolation {
		case ExtrapNearestSTOD:
			if s, _ := idx.nearest(x); s >= 0 {
				b.add(d, s, 1)
			}
		case ExtrapNearestIDAVG:
			nbrs := idx.nearestK(x, cfg.ExtrapNumSrcPoints)
			if len(nbrs) == 0 {
				continue
			}
			if nbrs[0].dist == 0 {
				b.add(d, nbrs[0].dof, 1)
				continue
			}
			w := make([]float64, len(nbrs))
			var sum float64
			for i, n := range nbrs {
				w[i] = 1 / math.Pow(n.dist, cfg.ExtrapDistExponent)
				sum += w[i]
			}
			for i, n := range nbrs {
				b.add(d, n.dof, w[i]/sum)
			}
		}
	}
}
