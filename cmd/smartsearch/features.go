package main

import (
	"fmt"
	"os"

	"literature-search-be/pkg/smartsearch"

	"gopkg.in/yaml.v3"
)

// featuresFile is the on-disk list of features to extract, e.g.
//
//	features:
//	  - name: Sample size
//	    description: Number of enrolled participants
//	    type: score
//	    options: {min: 0, max: 10000}
type featuresFile struct {
	Features []smartsearch.FeatureDefinition `yaml:"features"`
}

func loadFeatures(path string) ([]smartsearch.FeatureDefinition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read features file: %w", err)
	}
	return parseFeatures(raw)
}

func parseFeatures(raw []byte) ([]smartsearch.FeatureDefinition, error) {
	var file featuresFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse features file: %w", err)
	}
	for i, f := range file.Features {
		if f.Type == "" {
			file.Features[i].Type = smartsearch.FeatureText
		}
	}
	return file.Features, nil
}
