/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

// versionInfo is the build identity embedded via ldflags.
type versionInfo struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Date    string `json:"date" yaml:"date"`
}

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print build version information",
		Flags: []cli.Flag{
			outputFlag,
			formatFlag,
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			return writeReport(cmd, versionInfo{
				Name:    name,
				Version: version,
				Commit:  commit,
				Date:    date,
			})
		},
	}
}
