package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	// VersionMajor is the major number in rseslib's version
	VersionMajor = 0
	// VersionMinor is the minor number in rseslib's version
	VersionMinor = 1
	// VersionPatch is the patch number in rseslib's version
	VersionPatch = 0
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of rseslib",
		Long:  `All software has versions. This is rseslib's`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("rseslib v%d.%d.%d\n", VersionMajor, VersionMinor, VersionPatch)
		},
	}
}
