package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

type rootCmdConfig struct {
	verbose    bool
	ctx        context.Context
	cancelFunc context.CancelFunc
}

func main() {
	if err := cliParser().Execute(); err != nil {
		os.Exit(1)
	}
}

func cliParser() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rseslib",
		Short: "rseslib is a tool to perform nearest neighbour classification",
		Long:  `A tool to train k nearest neighbour classifiers over induced metrics from your data, test them, and use them to classify new samples`,
	}
	config := &rootCmdConfig{}
	rootCmd.PersistentFlags().BoolVarP(&(config.verbose), "verbose", "v", false, "")
	rootCmd.AddCommand(versionCmd(), trainCmd(config), testCmd(config), classifyCmd(config), splitCmd(config))
	return rootCmd
}

func (rcc *rootCmdConfig) Logf(format string, a ...interface{}) {
	logger(rcc.verbose).Logf(format, a...)
}

func (rcc *rootCmdConfig) Context() context.Context {
	if rcc.ctx == nil {
		rcc.ctx, rcc.cancelFunc = context.WithCancel(context.Background())
	}
	return rcc.ctx
}
