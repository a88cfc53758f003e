/*
Package yaml provides methods to parse feature.Feature specifications
also known as metadata, from YAML documents.
*/
package yaml

import (
	"fmt"
	"os"

	"github.com/awojna/Rseslib-sub001/feature"
	yaml "gopkg.in/yaml.v2"
)

/*
Metadata holds the features parsed from a metadata document in the order
they were declared, along with the name of the decision feature if the
document declares one.
*/
type Metadata struct {
	Features []feature.Feature
	Decision string
}

/*
ReadFeatures takes a slice of bytes with a feature specification in YML and
returns the metadata parsed from it or an error.
The YML is expected to be an object containing a features property. The value for this
should be an object with a property for each feature with its name and either a
string value of 'continuous' (or 'numeric') for continuous features or a list of
valid values for discrete features. An optional decision property names the
feature to predict.
Features keep the order in which they are declared, as that order defines the
attribute positions of the rows built from them.
*/
func ReadFeatures(md []byte) (*Metadata, error) {
	doc := struct {
		Features yaml.MapSlice `yaml:"features"`
		Decision string        `yaml:"decision"`
	}{}
	err := yaml.Unmarshal(md, &doc)
	if err != nil {
		return nil, fmt.Errorf("parsing yml features: %v", err)
	}
	if len(doc.Features) == 0 {
		return nil, fmt.Errorf("metadata file has no feature information")
	}
	features := make([]feature.Feature, 0, len(doc.Features))
	seen := make(map[string]bool)
	for _, item := range doc.Features {
		fn := fmt.Sprintf("%v", item.Key)
		if seen[fn] {
			return nil, fmt.Errorf("feature %s declared twice", fn)
		}
		seen[fn] = true
		switch values := item.Value.(type) {
		case string:
			if values != "continuous" && values != "numeric" {
				return nil, fmt.Errorf("invalid feature declaration %q for %s", values, fn)
			}
			features = append(features, feature.NewContinuousFeature(fn))
		case []interface{}:
			stringVs := make([]string, 0, len(values))
			for _, v := range values {
				stringVs = append(stringVs, fmt.Sprintf("%v", v))
			}
			features = append(features, feature.NewDiscreteFeature(fn, stringVs))
		default:
			return nil, fmt.Errorf("invalid feature declaration of type %T for %s", item.Value, fn)
		}
	}
	if doc.Decision != "" && !seen[doc.Decision] {
		return nil, fmt.Errorf("decision feature %s is not declared", doc.Decision)
	}
	return &Metadata{Features: features, Decision: doc.Decision}, nil
}

/*
ReadFeaturesFromFile takes a filepath string, reads its contents and uses
ReadFeatures to parse it and return the parsed metadata or an error.
If the file indicated by the filepath cannot be opened for reading an error
will be returned.
*/
func ReadFeaturesFromFile(filepath string) (*Metadata, error) {
	md, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("reading features yml file %s: %v", filepath, err)
	}
	metadata, err := ReadFeatures(md)
	if err != nil {
		err = fmt.Errorf("parsing features yml file %s: %v", filepath, err)
	}
	return metadata, err
}
