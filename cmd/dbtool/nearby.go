package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"scwm-service/internal/domain"
	"scwm-service/internal/services"
)

var nearbyCmd = &cobra.Command{
	Use:   "nearby",
	Short: "List recycling centers ranked by distance",
	RunE: func(cmd *cobra.Command, _ []string) error {
		lat, _ := cmd.Flags().GetFloat64("lat")
		lon, _ := cmd.Flags().GetFloat64("lon")
		limit, _ := cmd.Flags().GetInt("limit")
		radius, _ := cmd.Flags().GetFloat64("radius")

		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		q := services.NearbyQuery{RadiusKm: radius, Limit: limit}
		if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
			q.Position = &domain.Coordinates{Lat: lat, Lon: lon}
		}

		ranked, err := services.ListNearby(cmd.Context(), store.Centers, q)
		if err != nil {
			return err
		}
		return printRanked(cmd.OutOrStdout(), ranked)
	},
}

func init() {
	nearbyCmd.Flags().Float64("lat", 0, "latitude of the reference point")
	nearbyCmd.Flags().Float64("lon", 0, "longitude of the reference point")
	nearbyCmd.Flags().Int("limit", 10, "maximum number of centers (0 = all)")
	nearbyCmd.Flags().Float64("radius", 0, "only centers within this many km (0 = no limit)")
}

func printRanked(w io.Writer, ranked []domain.RankedCenter) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tDISTANCE\tADDRESS")
	for i, rc := range ranked {
		dist := "-"
		if rc.DistanceKm != nil {
			dist = fmt.Sprintf("%.2f km", *rc.DistanceKm)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, rc.Name, dist, rc.Address)
	}
	return tw.Flush()
}
