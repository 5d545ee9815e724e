/*
Copyright © 2019 the InMAP authors.
This file is part of cfmeta.

cfmeta is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

cfmeta is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with cfmeta.  If not, see <http://www.gnu.org/licenses/>.
*/

package cfmeta

import "github.com/sirupsen/logrus"

// Layers returns the layers that ds provides, mapped to their default
// styles. A variable provides a layer when its composite standard name
// matches a vocabulary entry; all matching entries are added. Vector
// components that are both present are then replaced by their combined
// layer, and hidden layers are removed.
func (r *Resolver) Layers(ds Dataset) map[string]string {
	log := r.log()
	log.WithFields(logrus.Fields{
		"id":    GlobalString(ds, "id"),
		"model": GlobalString(ds, "model"),
	}).Debug("deriving layers")

	vocab := r.vocabulary()
	names := vocab.Names()
	layers := make(map[string]string)
	for _, vn := range ds.VariableNames() {
		v, ok := ds.Variable(vn)
		if !ok {
			continue
		}
		sn, ok := CompositeStandardName(v)
		if !ok {
			continue
		}
		log.WithFields(logrus.Fields{"variable": vn, "standard_name": sn}).Debug("checking variable")
		for _, name := range names {
			e := vocab[name]
			if e.StandardName != sn {
				continue
			}
			style := ScalarStyle(e.ScaleMin, e.ScaleMax)
			log.WithFields(logrus.Fields{
				"standard_name": sn,
				"layer":         name,
				"style":         style,
			}).Info("adding layer")
			layers[name] = style
		}
	}

	for _, p := range r.vectorPairs() {
		_, okA := layers[p.A]
		_, okB := layers[p.B]
		if !okA || !okB {
			continue
		}
		delete(layers, p.A)
		delete(layers, p.B)
		layers[p.CombinedKey()] = p.Style
	}
	for _, h := range r.hidden() {
		delete(layers, h)
	}
	return layers
}
