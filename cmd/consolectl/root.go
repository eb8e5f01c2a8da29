package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kubeadapt/kubeadapt-console/internal/config"
	"github.com/kubeadapt/kubeadapt-console/internal/transport"
)

const envPrefix = "KCONSOLE"

// Flag names double as viper keys; KCONSOLE_<NAME> with dashes as
// underscores overrides the default.
const (
	flagServerURL        = "server-url"
	flagAPIKey           = "api-key"
	flagTimeout          = "request-timeout"
	flagMaxRetries       = "max-retries"
	flagCompressionLevel = "compression-level"
	flagOutput           = "output"
)

// cli carries the state shared by every subcommand.
type cli struct {
	v *viper.Viper

	// newClient is swapped in tests.
	newClient func(cfg *config.Config) *transport.Client
}

func newRootCmd() *cobra.Command {
	c := &cli{
		v: viper.New(),
		newClient: func(cfg *config.Config) *transport.Client {
			return transport.NewClient(cfg, nil)
		},
	}

	root := &cobra.Command{
		Use:          "consolectl",
		Short:        "Edit, validate and apply Kubernetes manifests through a console server",
		SilenceUsage: true,
	}
	root.SetErrPrefix("consolectl:")

	defaults := config.Load()
	pf := root.PersistentFlags()
	pf.String(flagServerURL, defaults.ServerURL, "console server base URL")
	pf.String(flagAPIKey, defaults.APIKey, "bearer token for the console API")
	pf.Duration(flagTimeout, defaults.RequestTimeout, "per-request timeout")
	pf.Int(flagMaxRetries, defaults.MaxRetries, "retries for transient failures")
	pf.Int(flagCompressionLevel, defaults.CompressionLevel, "zstd level for request bodies (1-4)")
	pf.StringP(flagOutput, "o", "yaml", "output format for structured results (yaml or json)")

	c.v.SetEnvPrefix(envPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()
	_ = c.v.BindPFlags(pf)

	root.AddCommand(
		c.renderCmd(),
		c.parseCmd(),
		c.validateCmd(),
		c.templatesCmd(),
		c.applyCmd(),
		c.deleteCmd(),
		c.resourcesCmd(),
		c.logsCmd(),
		c.statsCmd(),
	)
	return root
}

// config builds the client configuration from flags and environment.
func (c *cli) config() (*config.Config, error) {
	cfg := &config.Config{
		ServerURL:        strings.TrimSpace(c.v.GetString(flagServerURL)),
		APIKey:           c.v.GetString(flagAPIKey),
		RequestTimeout:   c.v.GetDuration(flagTimeout),
		MaxRetries:       c.v.GetInt(flagMaxRetries),
		CompressionLevel: c.v.GetInt(flagCompressionLevel),
	}
	if err := cfg.ValidateClient(); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	return cfg, nil
}

func (c *cli) client() (*transport.Client, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	return c.newClient(cfg), nil
}

func (c *cli) output() (string, error) {
	switch o := strings.ToLower(c.v.GetString(flagOutput)); o {
	case "yaml", "json":
		return o, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want yaml or json)", o)
	}
}

// readInput reads the file named by path, or stdin when path is "" or "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(b), nil
}
