package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/awojna/Rseslib-sub001/dataset"
	"github.com/awojna/Rseslib-sub001/dataset/csv"
	"github.com/awojna/Rseslib-sub001/dataset/mongodataset"
	"github.com/awojna/Rseslib-sub001/dataset/sqldataset"
	"github.com/awojna/Rseslib-sub001/dataset/sqldataset/pgadapter"
	"github.com/awojna/Rseslib-sub001/dataset/sqldataset/sqlite3adapter"
	"github.com/awojna/Rseslib-sub001/feature/yaml"
	"gopkg.in/mgo.v2"
)

const inputFlagUsage = "path to an input CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL with data to use (defaults to STDIN, interpreted as CSV)"

/*
header reads the features in the metadata file and builds a header with the
given decision, or the one declared by the metadata if none is given.
*/
func (rcc *rootCmdConfig) header(metadataInput, decision string) (*dataset.Header, error) {
	rcc.Logf("Reading features from metadata at %s...", metadataInput)
	md, err := yaml.ReadFeaturesFromFile(metadataInput)
	if err != nil {
		return nil, err
	}
	if decision == "" {
		decision = md.Decision
	}
	if decision == "" {
		return nil, fmt.Errorf("no class feature given by flag or metadata")
	}
	rcc.Logf("Features from metadata read")
	return dataset.NewHeader(md.Features, decision)
}

func (rcc *rootCmdConfig) table(input string, header *dataset.Header, purpose string) (dataset.Table, error) {
	switch {
	case strings.HasPrefix(input, "postgresql://"):
		rcc.Logf("Creating PostgreSQL adapter for url %s to read %s...", input, purpose)
		adapter, err := pgadapter.New(input)
		if err != nil {
			return nil, err
		}
		defer adapter.Close()
		return rcc.sqlTable(adapter, header, purpose)
	case strings.HasPrefix(input, "mongodb://"):
		rcc.Logf("Connecting to MongoDB at %s to read %s...", input, purpose)
		session, err := mgo.Dial(input)
		if err != nil {
			return nil, fmt.Errorf("connecting to %s: %v", input, err)
		}
		defer session.Close()
		set, err := mongodataset.Open(rcc.Context(), session, header)
		if err != nil {
			return nil, err
		}
		return set.Table(rcc.Context())
	case strings.HasSuffix(input, ".db"):
		rcc.Logf("Creating SQLite3 adapter for file %s to read %s...", input, purpose)
		adapter, err := sqlite3adapter.New(input)
		if err != nil {
			return nil, err
		}
		defer adapter.Close()
		return rcc.sqlTable(adapter, header, purpose)
	case input == "":
		rcc.Logf("Reading %s from STDIN...", purpose)
		t, err := csv.ReadTable(os.Stdin, header)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %v", purpose, err)
		}
		return t, nil
	}
	rcc.Logf("Opening %s to read %s...", input, purpose)
	return csv.ReadTableFromFilePath(input, header)
}

func (rcc *rootCmdConfig) sqlTable(adapter sqldataset.Adapter, header *dataset.Header, purpose string) (dataset.Table, error) {
	rcc.Logf("Opening set over adapter to read %s...", purpose)
	set, err := sqldataset.Open(rcc.Context(), adapter, header)
	if err != nil {
		return nil, err
	}
	return set.Table(rcc.Context())
}
