// Package model implements the Private-Jet Model Table: the set of aircraft
// type designations whose primary use is as a private jet, each carrying an
// average fuel consumption in gallons per flight hour.
package model

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"io"
	"strconv"
)

//go:embed models.csv
var modelsCSV []byte

// Model is the in-memory representation of one private-jet aircraft model.
type Model struct {
	// Model is the type name as reported by ADS-B Exchange (e.g. "GULFSTREAM 5").
	Model string
	// GPH is the average fuel consumption across every contributing source,
	// in gallons per flight hour.
	GPH int
	// Source lists every source that classified this model as a private
	// jet, separated by ";".
	Source string
	// Date lists the retrieval date of every contributing source, aligned
	// positionally with Source, separated by ";".
	Date string
}

// Table maps an aircraft model name to its Model entry.
type Table map[string]Model

// Load parses the embedded private-jet model table, averaging the GPH of
// every row that shares the same model name and concatenating their Source
// and Date fields.
func Load() (Table, error) {
	return parse(modelsCSV)
}

type aggregate struct {
	model  Model
	gphSum int
	count  int
}

func parse(data []byte) (Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, err
	}
	if len(header) != 4 {
		return nil, errInvalidHeader
	}

	acc := map[string]*aggregate{}
	var order []string

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		gph, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, err
		}

		name := record[0]
		a, ok := acc[name]
		if !ok {
			a = &aggregate{model: Model{Model: name, Source: record[2], Date: record[3]}}
			acc[name] = a
			order = append(order, name)
		} else {
			a.model.Source += ";" + record[2]
			a.model.Date += ";" + record[3]
		}
		a.gphSum += gph
		a.count++
	}

	out := make(Table, len(order))
	for _, name := range order {
		a := acc[name]
		m := a.model
		m.GPH = a.gphSum / a.count
		out[name] = m
	}
	return out, nil
}

type errString string

func (e errString) Error() string { return string(e) }

const errInvalidHeader = errString("model: unexpected models.csv header")
