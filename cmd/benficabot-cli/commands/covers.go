package commands

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"benficabot/lib/scrapers/sapo"
	"benficabot/lib/serviceutil"
	"benficabot/services/covers"
)

var coversOut *string

func init() {
	coversOut = coversCmd.Flags().String("out", "capas.jpg", "Where to write the composed collage.")
	rootCmd.AddCommand(coversCmd)
}

var coversCmd = &cobra.Command{
	Use:   "covers [--out <path/to/capas.jpg>]",
	Short: "Fetches today's sports front pages and composes the collage.",
	Run: func(cmd *cobra.Command, args []string) {
		service := covers.NewService(covers.ServiceOptions{
			Client:     sapo.NewClient(sapo.ClientOptions{}),
			OutputPath: *coversOut,
		})

		t1 := time.Now()
		path, data, err := service.Compose(cmd.Context())
		t2 := time.Now()
		if err != nil {
			serviceutil.Fatal("failed to compose covers", err)
		}

		slog.Info("collage written",
			"path", path,
			"bytes", len(data),
			"seconds", t2.Sub(t1).Seconds())
	},
}
