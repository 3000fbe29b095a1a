package main

import (
	"context"
	"fmt"

	"github.com/trezcool/mwalimu/core"
)

func (cli *commandLine) setPIN(pin string) error {
	if err := cli.settingsSvc.ResetPIN(context.Background(), core.CleanString(pin)); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "PIN has been reset.")
	return nil
}
