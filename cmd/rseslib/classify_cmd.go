package main

import (
	"context"
	"fmt"
	"os"

	"github.com/awojna/Rseslib-sub001/dataset/inputsample"
	"github.com/awojna/Rseslib-sub001/feature"
	"github.com/spf13/cobra"
)

type classifyCmdConfig struct {
	*rootCmdConfig
	model          modelConfig
	undefinedValue string
}

type stdoutFeatureValueRequester string

// conditionalSample leaves the decision undefined without asking for it.
type conditionalSample struct {
	feature.Sample
	decision string
}

func (cs conditionalSample) ValueFor(ctx context.Context, f feature.Feature) (interface{}, error) {
	if f.Name() == cs.decision {
		return nil, nil
	}
	return cs.Sample.ValueFor(ctx, f)
}

func classifyCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &classifyCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a sample answering questions",
		Long:  `Use the loaded classifier to predict the decision for a sample answering questions about its features`,
		Run: func(cmd *cobra.Command, args []string) {
			if config.model.location == "" {
				fmt.Fprintln(os.Stderr, "required model flag was not set")
				os.Exit(1)
			}
			c, err := config.loadModel(&config.model)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			header := c.Header()
			features := header.Features()
			decision := header.Attribute(header.DecisionIndex).Name
			sample := conditionalSample{inputsample.New(os.Stdin, features, stdoutFeatureValueRequester(config.undefinedValue), config.undefinedValue), decision}
			row, err := header.Encode(config.Context(), sample)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			distribution, err := c.ClassifyWithDistributedDecision(row)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(4)
			}
			predicted, err := c.Classify(row)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(4)
			}
			fmt.Printf("Predicted %s is %s\n", decision, header.DecisionValue(predicted))
			for code, p := range distribution {
				if p > 0 {
					fmt.Printf("%s: %f\n", header.DecisionValue(code), p)
				}
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.model.location), "model", "t", "", modelFlagUsage+" (required)")
	cmd.PersistentFlags().StringVar(&(config.model.id), "model-id", "", "id of the model when the model flag points to a store")
	cmd.PersistentFlags().StringVar(&(config.model.prefix), "prefix", "rseslib", "prefix of the keys of models kept in Redis")
	cmd.PersistentFlags().StringVarP(&(config.undefinedValue), "undefined-value", "u", "?", "value to input to define a sample's value for a feature as undefined")
	return cmd
}

func (sfvr stdoutFeatureValueRequester) RequestValueFor(f feature.Feature) error {
	switch f := f.(type) {
	case *feature.DiscreteFeature:
		fmt.Printf("Please provide the sample's %s:\n(valid values are %v or %s if undefined)\n", f.Name(), f.AvailableValues(), string(sfvr))
	case *feature.ContinuousFeature:
		fmt.Printf("Please provide the sample's %s:\n(valid values are real numbers or %s if undefined)\n", f.Name(), string(sfvr))
	default:
		return fmt.Errorf("unknown feature type %T", f)
	}
	return nil
}

func (sfvr stdoutFeatureValueRequester) RejectValueFor(f feature.Feature, value interface{}) error {
	switch f := f.(type) {
	case *feature.DiscreteFeature:
		fmt.Printf("%v is not a valid value for the sample's %s. Please provide one of %v or %s if undefined.\n", value, f.Name(), f.AvailableValues(), string(sfvr))
	case *feature.ContinuousFeature:
		fmt.Printf("%v is not a valid value for the sample's %s. Please provide a real number or %s if undefined.\n", value, f.Name(), string(sfvr))
	default:
		return fmt.Errorf("unknown feature type %T", f)
	}
	return nil
}
