package formatter

import (
	"fmt"
	"io"
	"time"

	"github.com/younsl/spoton/internal/models"
	"github.com/younsl/spoton/pkg/utils"
)

// PrintInstancesTable prints managed instances with uptime and hourly prices.
// Running instances older than zombieAge are flagged.
func PrintInstancesTable(w io.Writer, instances []models.InstanceInfo, now time.Time, zombieAge time.Duration) {
	if len(instances) == 0 {
		fmt.Fprintln(w, "No managed instances found.")
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "NAME\tINSTANCE ID\tTYPE\tLIFECYCLE\tSTATE\tZONE\tLAUNCHED\tUPTIME\tSPOT/HR\tON-DEMAND/HR\tPRICING\tZOMBIE")

	for _, instance := range instances {
		lifecycle := instance.Lifecycle
		if lifecycle == "" {
			lifecycle = "on-demand"
		}

		uptime := "-"
		zombie := ""
		if instance.IsRunning() {
			uptime = utils.FormatUptime(instance.Uptime(now))
			if instance.Uptime(now) > zombieAge {
				zombie = "yes"
			}
		}

		spot := "-"
		if instance.SpotHourly > 0 {
			spot = fmt.Sprintf("$%.4f", instance.SpotHourly)
		}
		onDemand := "N/A"
		if instance.PricingSource != "N/A" && instance.PricingSource != "" {
			onDemand = fmt.Sprintf("$%.4f", instance.OnDemandHourly)
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			displayName(instance.Name),
			instance.InstanceID,
			instance.InstanceType,
			lifecycle,
			instance.State,
			instance.AvailabilityZone,
			utils.FormatAge(instance.LaunchTime, now),
			uptime,
			spot,
			onDemand,
			GetPricingMarker(instance.PricingSource),
			zombie,
		)
	}

	tw.Flush()
}
