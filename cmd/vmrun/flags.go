// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	fixtureFlag = cli.StringFlag{
		Name:  "fixture",
		Usage: "path of the YAML fixture to run",
	}
	dataDirFlag = cli.StringFlag{
		Name:  "datadir",
		Usage: "directory to persist state in, in memory if empty",
	}
	rootFlag = cli.StringFlag{
		Name:  "root",
		Usage: "state root to start from, defaults to the last flushed head",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity (0-5)",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Usage: "serve metrics at this address after the run, until interrupted",
	}
)
