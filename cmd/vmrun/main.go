// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Command vmrun executes the transactions of a YAML fixture against a pre-state
// and prints their outcomes along with the resulting state root.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/vechain/vmcore/lvldb"
	"github.com/vechain/vmcore/metrics"
	"github.com/vechain/vmcore/runtime"
	"github.com/vechain/vmcore/state"
	"github.com/vechain/vmcore/thor"
	"github.com/vechain/vmcore/tx"
	cli "gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"
)

var version = "dev"

func main() {
	app := cli.App{
		Version:   version,
		Name:      "vmrun",
		Usage:     "run transactions of a fixture against the state",
		ArgsUsage: "[fixture]",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags: []cli.Flag{
			fixtureFlag,
			dataDirFlag,
			rootFlag,
			verbosityFlag,
			metricsAddrFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func initLogger(verbosity int) {
	useColor := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	handler := log.NewTerminalHandlerWithLevel(os.Stderr, log.FromLegacyLevel(verbosity), useColor)
	log.SetDefault(log.NewLogger(handler))
}

func openDatabase(dir string) (*state.Database, error) {
	if dir == "" {
		return state.NewMemDatabase(), nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "create data dir [%v]", dir)
	}
	return state.OpenDatabase(dir, lvldb.Options{CacheSize: 64, OpenFilesCacheCapacity: 64})
}

func startRoot(ctx *cli.Context, db *state.Database) (thor.Bytes32, error) {
	if s := ctx.String(rootFlag.Name); s != "" {
		root, err := thor.ParseBytes32(s)
		if err != nil {
			return thor.Bytes32{}, errors.WithMessage(err, "parse root")
		}
		return root, nil
	}
	return db.Head()
}

func defaultAction(ctx *cli.Context) error {
	initLogger(ctx.Int(verbosityFlag.Name))
	logger := log.New("pkg", "vmrun")

	path := ctx.String(fixtureFlag.Name)
	if path == "" {
		path = ctx.Args().First()
	}
	if path == "" {
		return errors.New("fixture required")
	}
	fx, err := loadFixture(path)
	if err != nil {
		return err
	}

	metricsAddr := ctx.String(metricsAddrFlag.Name)
	if metricsAddr != "" {
		metrics.InitializePrometheusMetrics()
	}

	db, err := openDatabase(ctx.String(dataDirFlag.Name))
	if err != nil {
		return err
	}
	defer db.Close()

	root, err := startRoot(ctx, db)
	if err != nil {
		return err
	}
	st, err := state.New(db, root, state.DefaultOptions())
	if err != nil {
		return err
	}

	// contract code needs an interpreter, vmrun runs value transfers and precompiled contracts
	rt := runtime.New(st, nil, runtime.DefaultConfig())
	defer rt.Close()
	rt.OnTransaction(func(trx *tx.Transaction) error {
		logger.Debug("executing transaction", "id", trx.ID(), "nonce", trx.Nonce(), "gas", trx.Gas())
		return nil
	})

	rep, err := fx.run(rt)
	if err != nil {
		return err
	}
	if ctx.String(dataDirFlag.Name) != "" {
		if err := db.SetHead(thor.MustParseBytes32(rep.Root)); err != nil {
			return err
		}
	}
	logger.Info("fixture executed", "txs", len(rep.Transactions), "root", rep.Root)

	out, err := yaml.Marshal(rep)
	if err != nil {
		return errors.Wrap(err, "encode report")
	}
	if _, err := os.Stdout.Write(out); err != nil {
		return err
	}

	if metricsAddr == "" {
		return nil
	}
	url, stop, err := startMetricsServer(metricsAddr)
	if err != nil {
		return err
	}
	defer stop()
	logger.Info("metrics server started, press Ctrl+C to exit", "url", url)

	exitSignal, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-exitSignal.Done()
	return nil
}
