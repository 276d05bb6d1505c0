// Command streamcat pipes standard input and output through a stream of
// any registered scheme.
//
//	streamcat listen tcp://127.0.0.1:5555
//	streamcat dial tcp://127.0.0.1:5555
//	streamcat schemes
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/opd-ai/streamcore/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	CAFile      string
	CertFile    string
	KeyFile     string
	Insecure    bool
	Timeout     time.Duration
	MetricsAddr string
	LogLevel    string
}

var flags globalOptions

var rootCmd = &cobra.Command{
	Use:           "streamcat",
	Short:         "Pipe stdin and stdout through a streamcore stream",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(flags.LogLevel)
		if err != nil {
			return err
		}
		logrus.SetLevel(level)
		logrus.SetOutput(os.Stderr)
		if flags.MetricsAddr != "" {
			serveMetrics(flags.MetricsAddr)
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.CAFile, "cacert", "", "PEM file of trusted CA certificates")
	pf.StringVar(&flags.CertFile, "cert", "", "PEM file of the local certificate")
	pf.StringVar(&flags.KeyFile, "key", "", "PEM file of the local private key")
	pf.BoolVar(&flags.Insecure, "insecure", false, "do not verify the peer certificate")
	pf.DurationVar(&flags.Timeout, "timeout", 0, "timeout for dial or accept, zero waits forever")
	pf.StringVar(&flags.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	pf.StringVar(&flags.LogLevel, "log-level", "warning", "log level: debug|info|warning|error")

	rootCmd.AddCommand(dialCmd)
	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(schemesCmd)
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithFields(logrus.Fields{
				"function": "serveMetrics",
				"address":  addr,
				"error":    err.Error(),
			}).Warn("Metrics endpoint stopped")
		}
	}()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "streamcat:", err)
		os.Exit(1)
	}
}
