package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/younsl/spoton/pkg/userdata"
)

func newUserdataCmd(a *app) *cobra.Command {
	var (
		watchdogOnly bool
		encoded      bool
	)

	cmd := &cobra.Command{
		Use:   "userdata",
		Short: "Print the boot script installed on launched instances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				out string
				err error
			)
			switch {
			case encoded:
				out, err = userdata.Encode(a.cfg.Watchdog)
			case watchdogOnly:
				out, err = userdata.RenderWatchdog(a.cfg.Watchdog)
			default:
				out, err = userdata.Render(a.cfg.Watchdog)
			}
			if err != nil {
				return err
			}

			fmt.Println(out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&watchdogOnly, "watchdog", false, "Print only the idle-shutdown script")
	cmd.Flags().BoolVar(&encoded, "encoded", false, "Print the base64 value sent as instance user data")
	return cmd
}
