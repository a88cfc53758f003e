package main

import (
	"fmt"
	"os"

	rseslib "github.com/awojna/Rseslib-sub001"
	"github.com/awojna/Rseslib-sub001/props"
	"github.com/spf13/cobra"
)

type trainCmdConfig struct {
	*rootCmdConfig
	model           modelConfig
	dataInput       string
	metadataInput   string
	propertiesInput string
	classFeature    string
}

func trainCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &trainCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a classifier from a set of data",
		Long:  `Train a k nearest neighbours classifier from a set of data to predict a certain feature and save its model.`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			header, err := config.header(config.metadataInput, config.classFeature)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			p := props.New(nil)
			if config.propertiesInput != "" {
				config.Logf("Reading classifier properties from %s...", config.propertiesInput)
				p, err = props.ReadFile(config.propertiesInput)
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(3)
				}
			}
			trainingSet, err := config.table(config.dataInput, header, "training set")
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(4)
			}
			count, err := trainingSet.Count(config.Context())
			if err != nil {
				fmt.Fprintf(os.Stderr, "counting training set rows: %v\n", err)
				os.Exit(5)
			}
			config.Logf("Training classifier from a set with %d rows and %d attributes to predict %s ...", count, header.Len()-1, header.Attribute(header.DecisionIndex).Name)
			c, err := rseslib.Train(config.Context(), trainingSet, p, config)
			if err != nil {
				fmt.Fprintf(os.Stderr, "training the classifier: %v\n", err)
				os.Exit(6)
			}
			config.Logf("Done: k=%d, weights %v", c.K(), c.Metric().Weights())
			err = config.saveModel(&config.model, c)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(7)
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.dataInput), "input", "i", "", inputFlagUsage)
	cmd.PersistentFlags().StringVarP(&(config.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the different features available on the input (required)")
	cmd.PersistentFlags().StringVarP(&(config.propertiesInput), "properties", "p", "", "path to a YML file with the properties configuring the classifier (defaults to the default configuration)")
	cmd.PersistentFlags().StringVarP(&(config.classFeature), "class-feature", "c", "", "name of the feature the classifier should predict (defaults to the decision declared in the metadata)")
	cmd.PersistentFlags().StringVarP(&(config.model.location), "output", "o", "", modelFlagUsage+" (defaults to STDOUT)")
	cmd.PersistentFlags().StringVar(&(config.model.prefix), "prefix", "rseslib", "prefix of the keys of models kept in Redis")
	return cmd
}

func (tcc *trainCmdConfig) Validate() error {
	if tcc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	return nil
}
