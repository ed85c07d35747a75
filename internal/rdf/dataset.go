package rdf

// Dataset is an in-memory triple collection with its dictionary.
// Triples keep insertion order so scans are deterministic.
type Dataset struct {
	Dictionary *Dictionary
	Triples    []Triple
}

// NewDataset creates an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{Dictionary: NewDictionary()}
}

// AddTriple appends a triple already in id space.
func (ds *Dataset) AddTriple(t Triple) {
	ds.Triples = append(ds.Triples, t)
}

// Add encodes the three values and appends the triple.
func (ds *Dataset) Add(subject, predicate, object string) Triple {
	t := Triple{
		Subject:   ds.Dictionary.Encode(subject),
		Predicate: ds.Dictionary.Encode(predicate),
		Object:    ds.Dictionary.Encode(object),
	}
	ds.AddTriple(t)
	return t
}

// Encode is shorthand for ds.Dictionary.Encode.
func (ds *Dataset) Encode(value string) ID {
	return ds.Dictionary.Encode(value)
}

// Match returns the triples whose constant positions equal the pattern's
// constants, in insertion order. Variable positions match anything;
// consistency of repeated variables is left to the caller.
func (ds *Dataset) Match(p TriplePattern) []Triple {
	var out []Triple
	for _, t := range ds.Triples {
		if matches(p.Subject, t.Subject) &&
			matches(p.Predicate, t.Predicate) &&
			matches(p.Object, t.Object) {
			out = append(out, t)
		}
	}
	return out
}

func matches(term Term, id ID) bool {
	c, ok := term.(Constant)
	if !ok {
		return true
	}
	return c.ID == id
}
