package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/samirrijal/mapboot/internal/app"
	"github.com/samirrijal/mapboot/internal/core/domain"
	"github.com/samirrijal/mapboot/internal/core/mapview"
	"github.com/samirrijal/mapboot/internal/core/usecases"
	"github.com/samirrijal/mapboot/internal/pkg/config"
	"github.com/samirrijal/mapboot/internal/pkg/geospatial"
	"github.com/samirrijal/mapboot/internal/pkg/projection"
)

const commandTimeout = 30 * time.Second

// Global flags
var (
	outputFormat string
	noColor      bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mapctl",
		Short: "Bootstrap map views and inspect projections and tiles",
		Long: `mapctl runs the map bootstrap sequence locally and exposes the
projection and tile helpers the API serves.

Configuration is read the same way as the services: config.yaml in the
working directory or ./configs, overridden by MAPBOOT_* variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				color.NoColor = true
			}
			switch outputFormat {
			case "table", "json", "yaml":
				return nil
			}
			return fmt.Errorf("unknown output format %q (want table, json or yaml)", outputFormat)
		},
	}

	root.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json or yaml")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	root.AddCommand(newBootstrapCmd())
	root.AddCommand(newTransformCmd())
	root.AddCommand(newProjectionsCmd())
	root.AddCommand(newTilesCmd())

	return root
}

// newBootstrapCmd creates the 'bootstrap' subcommand
func newBootstrapCmd() *cobra.Command {
	var (
		lon       float64
		lat       float64
		zoom      int
		container string
		label     string
	)

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Run the bootstrap sequence and print the resulting view",
		Long: `Build a view on the configured container, attach the base tile layer,
project the centre into the view projection, place a marker there and
centre the view. Flags override the configured defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			cfg, err := config.Load("mapctl")
			if err != nil {
				return err
			}

			bc := app.BootstrapConfig(cfg)
			flags := cmd.Flags()
			if flags.Changed("lon") || flags.Changed("lat") {
				if !flags.Changed("lon") {
					lon = bc.Center.Lon
				}
				if !flags.Changed("lat") {
					lat = bc.Center.Lat
				}
				bc.Center = domain.NewGeoPoint(lon, lat, domain.CRSWGS84)
			}
			if flags.Changed("zoom") {
				bc.Zoom = zoom
			}
			if flags.Changed("container") {
				bc.Container = container
			}
			if flags.Changed("label") {
				bc.MarkerLabel = label
			}

			reg := projection.NewRegistry()
			boot := usecases.NewBootstrapper(reg, app.Surface(cfg), bc)
			session, err := boot.Bootstrap(ctx)
			if err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}

			state := session.View.State(reg)
			return render(cmd.OutOrStdout(), state, func(p *printer) { p.view(state) })
		},
	}

	cmd.Flags().Float64Var(&lon, "lon", 0, "Centre longitude in degrees")
	cmd.Flags().Float64Var(&lat, "lat", 0, "Centre latitude in degrees")
	cmd.Flags().IntVar(&zoom, "zoom", 0, "Zoom level")
	cmd.Flags().StringVar(&container, "container", "", "Container to bind the view to")
	cmd.Flags().StringVar(&label, "label", "", "Label of the centre marker")

	return cmd
}

// newTransformCmd creates the 'transform' subcommand
func newTransformCmd() *cobra.Command {
	var (
		from    string
		to      string
		inverse bool
	)

	cmd := &cobra.Command{
		Use:   "transform <x|lon> <y|lat>",
		Short: "Convert a coordinate between projections",
		Long: `Convert a geographic coordinate in --from into --to. With --inverse the
arguments are projected x/y in --from and the result is geographic in --to.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, b, err := parsePair(args)
			if err != nil {
				return err
			}

			svc := usecases.NewProjectionService(projection.NewRegistry(), nil)
			out := cmd.OutOrStdout()

			if inverse {
				geo, err := svc.Inverse(domain.ProjectedPoint{X: a, Y: b, CRS: from}, to)
				if err != nil {
					return err
				}
				return render(out, geo, func(p *printer) { p.geo(geo) })
			}

			pt, err := svc.Transform(cmd.Context(), domain.NewGeoPoint(a, b, from), to)
			if err != nil {
				return err
			}
			return render(out, pt, func(p *printer) { p.projected(pt) })
		},
	}

	cmd.Flags().StringVar(&from, "from", domain.CRSWGS84, "Source projection")
	cmd.Flags().StringVar(&to, "to", domain.CRSSphericalMercator, "Target projection")
	cmd.Flags().BoolVar(&inverse, "inverse", false, "Treat the arguments as projected coordinates")

	return cmd
}

// newProjectionsCmd creates the 'projections' subcommand
func newProjectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "projections",
		Aliases: []string{"proj"},
		Short:   "List registered projections",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list := usecases.NewProjectionService(projection.NewRegistry(), nil).List()
			return render(cmd.OutOrStdout(), list, func(p *printer) { p.projections(list) })
		},
	}
}

// newTilesCmd creates the 'tiles' subcommand
func newTilesCmd() *cobra.Command {
	var (
		zoom   int
		radius int
	)

	cmd := &cobra.Command{
		Use:   "tiles <lon> <lat>",
		Short: "List the base layer tiles around a point",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lon, lat, err := parsePair(args)
			if err != nil {
				return err
			}
			if zoom < 0 || zoom > geospatial.MaxZoom {
				return fmt.Errorf("zoom must be 0-%d, got %d", geospatial.MaxZoom, zoom)
			}
			if radius < 0 || radius > 5 {
				return fmt.Errorf("radius must be 0-5, got %d", radius)
			}

			cfg, err := config.Load("mapctl")
			if err != nil {
				return err
			}
			base := mapview.NewTileLayer(app.BootstrapConfig(cfg).TileLayer)

			around := geospatial.TilesAround(lon, lat, zoom, radius)
			tiles := make([]domain.TileRef, 0, len(around))
			for _, t := range around {
				tiles = append(tiles, domain.TileRef{Z: t.Z, X: t.X, Y: t.Y, URL: base.TileURL(t.Z, t.X, t.Y)})
			}
			return render(cmd.OutOrStdout(), tiles, func(p *printer) { p.tiles(tiles) })
		},
	}

	cmd.Flags().IntVar(&zoom, "zoom", usecases.DefaultZoom, "Zoom level")
	cmd.Flags().IntVar(&radius, "radius", 1, "Tiles on each side of the centre tile")

	return cmd
}

func parsePair(args []string) (float64, float64, error) {
	a, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid coordinate %q", args[0])
	}
	b, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid coordinate %q", args[1])
	}
	return a, b, nil
}
