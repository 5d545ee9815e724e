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

// Package cfmeta derives discoverable metadata from CF-convention
// NetCDF datasets: spatial extent, temporal extent, and the set of
// renderable layers (with default styles) that a dataset provides
// according to a vocabulary of CF standard names.
package cfmeta

// Version gives the version number.
const Version = "0.3.0"

// Dataset is an open, read-only dataset.
type Dataset interface {
	// VariableNames returns the names of all variables in storage order.
	// The order must be the same every time it is called.
	VariableNames() []string

	// Variable returns the named variable.
	Variable(name string) (Variable, bool)

	// GlobalAttribute returns the value of the named global attribute.
	GlobalAttribute(name string) (interface{}, bool)
}

// Variable is a named array with attributes.
type Variable interface {
	Name() string

	// Attribute returns the value of the named attribute. Text
	// attributes are returned as strings.
	Attribute(name string) (interface{}, bool)

	// Values returns the flattened variable data, with missing values
	// set to NaN.
	Values() ([]float64, error)
}

// MemDataset is a Dataset held in memory.
type MemDataset struct {
	// Attributes holds the global attributes.
	Attributes map[string]interface{}

	names []string
	vars  map[string]*MemVariable
}

// NewMemDataset returns an empty in-memory dataset with the given
// global attributes.
func NewMemDataset(attributes map[string]interface{}) *MemDataset {
	if attributes == nil {
		attributes = make(map[string]interface{})
	}
	return &MemDataset{
		Attributes: attributes,
		vars:       make(map[string]*MemVariable),
	}
}

// AddVariable adds a variable to d, replacing any existing variable with the
// same name while keeping its position.
func (d *MemDataset) AddVariable(name string, data []float64, attributes map[string]interface{}) *MemVariable {
	if attributes == nil {
		attributes = make(map[string]interface{})
	}
	v := &MemVariable{name: name, Data: data, Attributes: attributes}
	if _, ok := d.vars[name]; !ok {
		d.names = append(d.names, name)
	}
	d.vars[name] = v
	return v
}

// VariableNames implements Dataset.
func (d *MemDataset) VariableNames() []string {
	return append([]string(nil), d.names...)
}

// Variable implements Dataset.
func (d *MemDataset) Variable(name string) (Variable, bool) {
	v, ok := d.vars[name]
	if !ok {
		return nil, false
	}
	return v, true
}

// GlobalAttribute implements Dataset.
func (d *MemDataset) GlobalAttribute(name string) (interface{}, bool) {
	v, ok := d.Attributes[name]
	return v, ok
}

// MemVariable is a Variable held in memory.
type MemVariable struct {
	Data       []float64
	Attributes map[string]interface{}

	// Err, if not nil, is returned by Values.
	Err error

	name string
}

// Name implements Variable.
func (v *MemVariable) Name() string { return v.name }

// Attribute implements Variable.
func (v *MemVariable) Attribute(name string) (interface{}, bool) {
	a, ok := v.Attributes[name]
	return a, ok
}

// Values implements Variable.
func (v *MemVariable) Values() ([]float64, error) {
	if v.Err != nil {
		return nil, v.Err
	}
	return v.Data, nil
}
