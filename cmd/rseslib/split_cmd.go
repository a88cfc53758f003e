package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/awojna/Rseslib-sub001/dataset"
	"github.com/awojna/Rseslib-sub001/dataset/csv"
	"github.com/spf13/cobra"
)

type splitCmdConfig struct {
	*rootCmdConfig
	setInput         string
	metadataInput    string
	classFeature     string
	setOutput        string
	splitOutput      string
	splitProbability int
	folds            int
	seed             int64
	where            []string
}

func splitCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &splitCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a set into two sets",
		Long:  `Split a set into an output set and a split set, at random or keeping the decision distribution`,
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
			input, err := config.table(config.setInput, header, "input set")
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			if input, err = config.subset(input, config.where); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			seed := config.seed
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			output, split, err := config.split(input, rand.New(rand.NewSource(seed)))
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(4)
			}
			if err = config.write(config.setOutput, output); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(5)
			}
			if err = config.write(config.splitOutput, split); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(6)
			}
			config.Logf("Done")
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.setInput), "input", "i", "", inputFlagUsage)
	cmd.PersistentFlags().StringVarP(&(config.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the different features available on the input (required)")
	cmd.PersistentFlags().StringVarP(&(config.classFeature), "class-feature", "c", "", "name of the decision feature (defaults to the decision declared in the metadata)")
	cmd.PersistentFlags().StringVarP(&(config.setOutput), "output", "o", "", "path to a file to dump the output set (defaults to STDOUT)")
	cmd.PersistentFlags().StringVarP(&(config.splitOutput), "split-output", "s", "", "path to a file to dump the output of the split set (required)")
	cmd.PersistentFlags().IntVarP(&(config.splitProbability), "split-probability", "p", 20, "percent of the rows of the set assigned to the split set")
	cmd.PersistentFlags().IntVarP(&(config.folds), "folds", "f", 0, "if set, partition the set into this many parts keeping the decision distribution and use one of them as the split set")
	cmd.PersistentFlags().Int64Var(&(config.seed), "seed", 0, "seed for the random choice of rows (defaults to the current time)")
	cmd.PersistentFlags().StringArrayVar(&(config.where), "where", nil, whereFlagUsage)
	return cmd
}

func (scc *splitCmdConfig) Validate() error {
	if scc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	if scc.splitOutput == "" {
		return fmt.Errorf("required split-output flag was not set")
	}
	if scc.folds == 0 && (scc.splitProbability <= 0 || scc.splitProbability >= 100) {
		return fmt.Errorf("split-probability flag was set to an invalid value: it must be set to an integer between 1 and 99")
	}
	if scc.folds < 0 || scc.folds == 1 {
		return fmt.Errorf("folds flag was set to an invalid value: it must be at least 2")
	}
	return nil
}

func (scc *splitCmdConfig) split(input dataset.Table, rnd *rand.Rand) (dataset.Table, dataset.Table, error) {
	if scc.folds == 0 {
		scc.Logf("Splitting input set at random with %d%% of rows for the split set...", scc.splitProbability)
		split, output, err := dataset.RandomSplit(scc.Context(), input, float64(scc.splitProbability)/100, rnd)
		return output, split, err
	}
	scc.Logf("Partitioning input set into %d stratified parts...", scc.folds)
	parts, err := dataset.RandomStratifiedPartition(scc.Context(), input, scc.folds, rnd)
	if err != nil {
		return nil, nil, err
	}
	var rows []dataset.Row
	for _, p := range parts[1:] {
		pr, err := p.Rows(scc.Context())
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, pr...)
	}
	return dataset.New(input.Header(), rows), parts[0], nil
}

func (scc *splitCmdConfig) write(path string, t dataset.Table) error {
	f := os.Stdout
	if path != "" {
		scc.Logf("Creating %s to dump set...", path)
		var err error
		f, err = os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
	}
	return csv.WriteTable(scc.Context(), f, t)
}
