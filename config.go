package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	answerTimeLimit     time.Duration
	bind                string
	clueAPI             string
	clueIDMax           int
	clueRetries         int
	playerTimeout       time.Duration
	port                int
	prefix              string
	profile             bool
	sessionTimeout      time.Duration
	similarityThreshold float64
	tlsCert             string
	tlsKey              string
	verbose             bool
	version             bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.similarityThreshold <= 0 || c.similarityThreshold > 1 {
		return fmt.Errorf("invalid similarity threshold (must be greater than 0 and at most 1): %v", c.similarityThreshold)
	}
	if c.clueRetries < 1 {
		return fmt.Errorf("invalid clue retry count (must be at least 1): %d", c.clueRetries)
	}
	if c.clueIDMax < 1 {
		return fmt.Errorf("invalid clue id ceiling (must be at least 1): %d", c.clueIDMax)
	}
	if c.answerTimeLimit <= 0 {
		return fmt.Errorf("invalid answer time limit: %v", c.answerTimeLimit)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("CLUEBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "cluebox...",
		Short:         "A self-hosted trivia game with shared answer channels.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.DurationVar(&cfg.answerTimeLimit, "answer-time-limit", 52500*time.Millisecond, "time players have to answer a clue (env: CLUEBOX_ANSWER_TIME_LIMIT)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: CLUEBOX_BIND)")
	fs.StringVar(&cfg.clueAPI, "clue-api", "https://jservice.xyz/", "base url of the jservice-compatible clue api (env: CLUEBOX_CLUE_API)")
	fs.IntVar(&cfg.clueIDMax, "clue-id-max", 402824, "highest clue id to try when picking a random clue (env: CLUEBOX_CLUE_ID_MAX)")
	fs.IntVar(&cfg.clueRetries, "clue-retries", 20, "attempts at finding a valid random clue before giving up (env: CLUEBOX_CLUE_RETRIES)")
	fs.DurationVar(&cfg.playerTimeout, "player-timeout", 10*time.Minute, "time before disconnected players are removed (env: CLUEBOX_PLAYER_TIMEOUT)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: CLUEBOX_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: CLUEBOX_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: CLUEBOX_PROFILE)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle channels are ended (env: CLUEBOX_SESSION_TIMEOUT)")
	fs.Float64Var(&cfg.similarityThreshold, "similarity-threshold", 0.65, "minimum similarity ratio for an answer to count as correct (env: CLUEBOX_SIMILARITY_THRESHOLD)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: CLUEBOX_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: CLUEBOX_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: CLUEBOX_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: CLUEBOX_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("cluebox v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
