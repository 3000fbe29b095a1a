package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/mwalimu/core/settings"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp     = errors.New("help provided")
	errNoDB     = errors.New("migrate requires the postgres storage driver")
	errEmptyPIN = errors.New("empty PIN")
)

type commandLine struct {
	db          *sql.DB // nil unless the postgres driver is used
	settingsSvc settings.Service
	out         io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose migration command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  setpin - reset the parent PIN; the new PIN is prompted")
	fmt.Fprintln(cli.out, "  parseplan -file PATH - print the checklist parsed from a plan text file")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	parsePlanCmd := flag.NewFlagSet("parseplan", flag.ContinueOnError)
	parsePlanCmd.SetOutput(cli.out)
	parsePlanFile := parsePlanCmd.String("file", "", "The plan text file; \"-\" reads stdin.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		if cli.db == nil {
			return errNoDB
		}
		return cli.migrate(args[2:])
	case "setpin":
		fmt.Fprint(cli.out, "Enter new PIN:")
		pin, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pin) == 0 {
			return errEmptyPIN
		}
		return cli.setPIN(string(pin))
	case "parseplan":
		if err := parsePlanCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *parsePlanFile == "" {
			parsePlanCmd.Usage()
			return errHelp
		}
		return cli.parsePlan(*parsePlanFile)
	default:
		cli.printUsage()
		return errHelp
	}
}
