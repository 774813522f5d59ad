// This program performs administrative tasks against a running ledger node.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ardanlabs/ledger/app/tooling/admin/commands"
	"github.com/ardanlabs/ledger/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	log.Infow("startup", "version", build)

	return processCommands(os.Args, log)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args []string, log *zap.SugaredLogger) error {
	if len(args) < 3 {
		return errors.New("usage: admin <bals|verify> <url>")
	}
	url := args[2]

	switch args[1] {
	case "bals":
		if err := commands.Balances(os.Stdout, url); err != nil {
			return fmt.Errorf("getting balances: %w", err)
		}

	case "verify":
		ev := func(v string, args ...any) {
			log.Infow(fmt.Sprintf(v, args...))
		}

		valid, err := commands.Verify(os.Stdout, url, ev)
		if err != nil {
			return fmt.Errorf("verifying chain: %w", err)
		}
		if !valid {
			return errors.New("chain failed verification")
		}

	default:
		return fmt.Errorf("unknown command %q", args[1])
	}

	return nil
}
