// Package testutil provides dataset fixtures, deterministic session ids
// and golden-file helpers shared by the optimizer's tests.
package testutil

import (
	"fmt"

	"github.com/roach88/tripleopt/internal/plan"
	"github.com/roach88/tripleopt/internal/rdf"
)

const ex = "http://example.org/"

// People is a small social dataset. Charlie has many ages, which skews the
// age predicate's cardinality so join orders differ in cost.
type People struct {
	Dataset *rdf.Dataset

	Name    rdf.ID
	Age     rdf.ID
	WorksAt rdf.ID

	Company  rdf.ID
	Company2 rdf.ID
}

// PeopleDataset builds the people fixture:
//
//	alice: name Alice, age 25, worksAt company
//	bob: name Bob, age 30, worksAt company2
//	charlie: name Charlie, ages 35..41, worksAt company
func PeopleDataset() *People {
	ds := rdf.NewDataset()
	p := &People{
		Dataset:  ds,
		Name:     ds.Encode(ex + "name"),
		Age:      ds.Encode(ex + "age"),
		WorksAt:  ds.Encode(ex + "worksAt"),
		Company:  ds.Encode(ex + "company"),
		Company2: ds.Encode(ex + "company2"),
	}

	ds.Add(ex+"alice", ex+"name", "Alice")
	ds.Add(ex+"bob", ex+"name", "Bob")
	ds.Add(ex+"charlie", ex+"name", "Charlie")

	ds.Add(ex+"alice", ex+"age", "25")
	ds.Add(ex+"bob", ex+"age", "30")
	for age := 35; age <= 41; age++ {
		ds.Add(ex+"charlie", ex+"age", fmt.Sprint(age))
	}

	ds.Add(ex+"alice", ex+"worksAt", ex+"company")
	ds.Add(ex+"bob", ex+"worksAt", ex+"company2")
	ds.Add(ex+"charlie", ex+"worksAt", ex+"company")
	return p
}

// NameScan is (?person name ?name).
func (p *People) NameScan() *plan.Scan {
	return plan.NewScan(rdf.Pattern(rdf.Var("person"), rdf.Const(p.Name), rdf.Var("name")))
}

// AgeScan is (?person age ?age).
func (p *People) AgeScan() *plan.Scan {
	return plan.NewScan(rdf.Pattern(rdf.Var("person"), rdf.Const(p.Age), rdf.Var("age")))
}

// WorksAtScan is (?person worksAt ?company).
func (p *People) WorksAtScan() *plan.Scan {
	return plan.NewScan(rdf.Pattern(rdf.Var("person"), rdf.Const(p.WorksAt), rdf.Var("company")))
}

// Sensors is a stream-style dataset of sensors, their locations and
// timestamped readings.
type Sensors struct {
	Dataset *rdf.Dataset

	Type              rdf.ID
	TemperatureSensor rdf.ID
	LocatedIn         rdf.ID
	HasReading        rdf.ID
	Value             rdf.ID
	Timestamp         rdf.ID
}

// SensorsDataset builds four sensors (three temperature, one humidity)
// with four readings each. Reading j of sensor i has value 20+3i+2j.
func SensorsDataset() *Sensors {
	ds := rdf.NewDataset()
	const rdfType = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	s := &Sensors{
		Dataset:           ds,
		Type:              ds.Encode(rdfType),
		TemperatureSensor: ds.Encode(ex + "TemperatureSensor"),
		LocatedIn:         ds.Encode(ex + "locatedIn"),
		HasReading:        ds.Encode(ex + "hasReading"),
		Value:             ds.Encode(ex + "value"),
		Timestamp:         ds.Encode(ex + "timestamp"),
	}

	for i := 0; i < 4; i++ {
		sensor := fmt.Sprintf("%ssensor%d", ex, i)
		class := ex + "TemperatureSensor"
		if i == 3 {
			class = ex + "HumiditySensor"
		}
		ds.Add(sensor, rdfType, class)
		ds.Add(sensor, ex+"locatedIn", fmt.Sprintf("%sroom%d", ex, i%2))
		for j := 0; j < 4; j++ {
			reading := fmt.Sprintf("%sreading%d_%d", ex, i, j)
			ds.Add(sensor, ex+"hasReading", reading)
			ds.Add(reading, ex+"value", fmt.Sprintf("%d.0", 20+3*i+2*j))
			ds.Add(reading, ex+"timestamp", fmt.Sprintf("2024-01-01T00:%02d:00", j))
		}
	}
	return s
}

// Plan returns the temperature query:
//
//	SELECT ?sensor ?location ?reading ?timestamp WHERE {
//	  ?sensor locatedIn ?location . ?sensor hasReading ?reading .
//	  ?reading value ?value . ?reading timestamp ?timestamp .
//	  ?sensor a TemperatureSensor . FILTER(?value > 25.0)
//	}
//
// written as a left-deep join chain with the filter above it.
func (s *Sensors) Plan() plan.Logical {
	location := plan.NewScan(rdf.Pattern(rdf.Var("sensor"), rdf.Const(s.LocatedIn), rdf.Var("location")))
	reading := plan.NewScan(rdf.Pattern(rdf.Var("sensor"), rdf.Const(s.HasReading), rdf.Var("reading")))
	value := plan.NewScan(rdf.Pattern(rdf.Var("reading"), rdf.Const(s.Value), rdf.Var("value")))
	timestamp := plan.NewScan(rdf.Pattern(rdf.Var("reading"), rdf.Const(s.Timestamp), rdf.Var("timestamp")))
	typed := plan.NewScan(rdf.Pattern(rdf.Var("sensor"), rdf.Const(s.Type), rdf.Const(s.TemperatureSensor)))

	var joined plan.Logical = plan.NewJoin(location, reading)
	joined = plan.NewJoin(joined, value)
	joined = plan.NewJoin(joined, timestamp)
	joined = plan.NewJoin(joined, typed)

	filtered := plan.NewSelection(joined, plan.NewCondition("value", plan.OpGt, "25.0"))
	return plan.NewProjection(filtered, "sensor", "location", "reading", "timestamp")
}

// StarScans returns n scans (?s p_i ?o_i) sharing the subject variable,
// with fresh predicates p_1..p_n encoded into dict.
func StarScans(dict *rdf.Dictionary, n int) []plan.Logical {
	out := make([]plan.Logical, n)
	for i := range out {
		p := dict.Encode(fmt.Sprintf("%sp%d", ex, i+1))
		out[i] = plan.NewScan(rdf.Pattern(rdf.Var("s"), rdf.Const(p), rdf.Var(fmt.Sprintf("o%d", i+1))))
	}
	return out
}

// LeftDeep joins ops left to right: ((a ⋈ b) ⋈ c) ...
func LeftDeep(ops ...plan.Logical) plan.Logical {
	if len(ops) == 0 {
		return nil
	}
	acc := ops[0]
	for _, op := range ops[1:] {
		acc = plan.NewJoin(acc, op)
	}
	return acc
}
