package rdf

// Dictionary interns strings to dense ids. The first encoded value gets
// ID 1; ID 0 is reserved.
//
// Dictionary is not safe for concurrent mutation. Optimizer callers only
// read it.
type Dictionary struct {
	ids    map[string]ID
	values []string
}

// NewDictionary creates an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{
		ids:    make(map[string]ID),
		values: []string{""}, // index 0 reserved
	}
}

// Encode returns the id of value, assigning the next id if it is new.
func (d *Dictionary) Encode(value string) ID {
	if id, ok := d.ids[value]; ok {
		return id
	}
	id := ID(len(d.values))
	d.values = append(d.values, value)
	d.ids[value] = id
	return id
}

// Lookup returns the id of value without assigning one.
func (d *Dictionary) Lookup(value string) (ID, bool) {
	id, ok := d.ids[value]
	return id, ok
}

// Decode returns the string for id.
func (d *Dictionary) Decode(id ID) (string, bool) {
	if id == 0 || int(id) >= len(d.values) {
		return "", false
	}
	return d.values[id], true
}

// Len returns the number of encoded values.
func (d *Dictionary) Len() int {
	return len(d.values) - 1
}

// Clone returns an independent copy.
func (d *Dictionary) Clone() *Dictionary {
	c := &Dictionary{
		ids:    make(map[string]ID, len(d.ids)),
		values: make([]string, len(d.values)),
	}
	copy(c.values, d.values)
	for k, v := range d.ids {
		c.ids[k] = v
	}
	return c
}
