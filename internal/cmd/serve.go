package cmd

import (
	"github.com/spf13/cobra"
	"github.com/willfong/portfolio-generator/internal/server"
)

var serveFlags = map[string]string{
	"addr":          "server.addr",
	"max-customers": "server.max_customers",
	"seed":          "generate.seed",
	"now":           "generate.now",
}

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve small portfolios over a JSON preview API",
	Long: `Start an HTTP server that generates small portfolios on request.

Endpoints:
  GET  /healthz                      liveness
  GET  /api/portfolio/summary        row count per table
  GET  /api/portfolio/{table}        one page of records (limit, offset)
  POST /api/amortize                 installment and balance of one loan

Portfolio endpoints accept seed, customers and now query parameters. The
same parameters always return the same records.

Example:
  portgen serve --addr :8080 --max-customers 2000
  curl 'localhost:8080/api/portfolio/loans?seed=42&customers=100&limit=10'`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	f := serveCmd.Flags()
	f.String("addr", "", "listen address (default from config, :8080)")
	f.Int("max-customers", 0, "largest customers value a request may ask for")
	f.Int64("seed", 0, "seed used when a request gives none")
	f.String("now", "", "reference date used when a request gives none")
}

func runServe(cmd *cobra.Command, args []string) {
	u := newUI()

	cfg, err := loadConfig(cmd, serveFlags)
	if err != nil {
		fail(u, err)
	}
	if err := cfg.Validate(); err != nil {
		fail(u, err)
	}
	logger := newLogger(cfg)

	u.Println(u.Header("Portfolio Preview API"))
	u.Println("")
	u.Println(u.KeyValue("Listening", cfg.Server.Addr))
	u.Println(u.Muted("Press Ctrl+C to stop"))
	u.Println("")

	if err := server.New(cfg, logger).ListenAndServe(cmd.Context()); err != nil {
		fail(u, err)
	}
	u.Println(u.Success("Server stopped"))
}
