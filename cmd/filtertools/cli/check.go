package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tkingovr/filtertools/api"
	"github.com/tkingovr/filtertools/filter"
	"github.com/tkingovr/filtertools/internal/pipeline"
)

var (
	checkMethod  string
	checkPath    string
	checkHost    string
	checkHeaders []string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Dry-run the pipeline conditions for a request",
	Long: `Check which pipeline filters would run for a request, without running
the proxy or invoking any filter. Useful for testing and debugging
"when" conditions.`,
	Example: `  filtertools check -c pipeline.yaml --method POST --path /admin/users
  filtertools check -c pipeline.yaml --path /api --header X-Tenant=acme`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkMethod, "method", "GET", "request method")
	checkCmd.Flags().StringVar(&checkPath, "path", "/", "request path, with optional query")
	checkCmd.Flags().StringVar(&checkHost, "host", "", "request host")
	checkCmd.Flags().StringArrayVar(&checkHeaders, "header", nil, "request header as Name=Value (repeatable)")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	if cfgFile == "" {
		return fmt.Errorf("--config/-c is required for check command")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	headers, err := parseHeaders(checkHeaders)
	if err != nil {
		return err
	}
	req, err := pipeline.NewCheckRequest(api.CheckRequest{
		Method:  checkMethod,
		Path:    checkPath,
		Host:    checkHost,
		Headers: headers,
	})
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg.File.Filters,
		pipeline.WithKind(pipeline.KindAudit, noopKind),
		pipeline.WithKind(pipeline.KindMetrics, noopKind),
	)
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}
	defer p.Close()

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(p.Check(req))
}

// noopKind stands in for the kinds that need a running server. Check never
// invokes filters, it only needs their conditions.
func noopKind(pipeline.Env) (filter.Filter, error) { return filter.NoOp, nil }

func parseHeaders(raw []string) (map[string]string, error) {
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, expected Name=Value", h)
		}
		headers[name] = value
	}
	return headers, nil
}
