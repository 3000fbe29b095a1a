package main

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/mwalimu/core/plan"
)

var stdin = os.Stdin // mockable

func (cli *commandLine) parsePlan(path string) error {
	var (
		text []byte
		err  error
	)
	if path == "-" {
		text, err = ioutil.ReadAll(stdin)
	} else {
		text, err = ioutil.ReadFile(path)
	}
	if err != nil {
		return errors.Wrap(err, "reading plan")
	}

	steps := plan.Parser{NewID: plan.StableIDs}.Parse(string(text))
	for i, s := range steps {
		fmt.Fprintf(cli.out, "%2d. [ ] %s  (%s)\n", i+1, s.Text, s.ID)
	}
	prog := plan.ComputeProgress(steps)
	fmt.Fprintf(cli.out, "%d steps, %d%% complete\n", prog.Total, prog.Percent)
	return nil
}
