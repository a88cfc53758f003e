package main

import (
	"fmt"
	"os"

	rseslib "github.com/awojna/Rseslib-sub001"
	"github.com/spf13/cobra"
)

type testCmdConfig struct {
	*rootCmdConfig
	model         modelConfig
	dataInput     string
	metadataInput string
	classFeature  string
	workers       int
	where         []string
}

func testCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &testCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test the performance of a classifier",
		Long:  `Test the performance of a classifier against a test data set`,
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
			c, err := config.loadModel(&config.model)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			if !c.Header().Equal(header) {
				fmt.Fprintln(os.Stderr, "the metadata does not describe the data the classifier was trained on")
				os.Exit(4)
			}
			testingSet, err := config.table(config.dataInput, c.Header(), "testing set")
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(5)
			}
			if testingSet, err = config.subset(testingSet, config.where); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(5)
			}
			count, err := testingSet.Count(config.Context())
			if err != nil {
				fmt.Fprintf(os.Stderr, "counting testing set rows: %v\n", err)
				os.Exit(6)
			}
			config.Logf("Testing classifier against testset with %d rows...", count)
			e, err := rseslib.Test(config.Context(), c, testingSet, config.workers)
			if err != nil {
				fmt.Fprintf(os.Stderr, "testing classifier: %v\n", err)
				os.Exit(7)
			}
			config.Logf("Done")
			fmt.Printf("%f success rate over %d rows with a decision\n", e.Accuracy(), e.Total)
			for actual, row := range e.Confusion {
				fmt.Printf("%s: %v\n", c.Header().DecisionValue(actual), row)
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.dataInput), "input", "i", "", inputFlagUsage)
	cmd.PersistentFlags().StringVarP(&(config.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the different features available on the input (required)")
	cmd.PersistentFlags().StringVarP(&(config.classFeature), "class-feature", "c", "", "name of the feature the classifier predicts (defaults to the decision declared in the metadata)")
	cmd.PersistentFlags().StringVarP(&(config.model.location), "model", "t", "", modelFlagUsage+" (required)")
	cmd.PersistentFlags().StringVar(&(config.model.id), "model-id", "", "id of the model when the model flag points to a store")
	cmd.PersistentFlags().StringVar(&(config.model.prefix), "prefix", "rseslib", "prefix of the keys of models kept in Redis")
	cmd.PersistentFlags().IntVarP(&(config.workers), "workers", "w", 0, "number of rows classified at a time (defaults to 10)")
	cmd.PersistentFlags().StringArrayVar(&(config.where), "where", nil, whereFlagUsage)
	return cmd
}

func (tcc *testCmdConfig) Validate() error {
	if tcc.model.location == "" {
		return fmt.Errorf("required model flag was not set")
	}
	if tcc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	return nil
}
