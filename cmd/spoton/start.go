package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/younsl/spoton/pkg/utils"
)

func newStartCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Launch the spot instance using the configured passcode",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.ValidateStarter(); err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			client, err := a.ec2Client(ctx)
			if err != nil {
				return err
			}

			resp := a.newStarter(client).Handle(ctx, a.cfg.Passcode)

			body, err := utils.FormatJSON(resp.Body)
			if err != nil {
				return err
			}
			fmt.Println(body)

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("provisioning failed: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
			}
			return nil
		},
	}
}
