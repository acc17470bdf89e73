package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/fmuoria/cv-auditor/internal/agent"
	"github.com/fmuoria/cv-auditor/internal/config"
	"github.com/fmuoria/cv-auditor/internal/ingestion"
	"github.com/fmuoria/cv-auditor/internal/logger"
	"github.com/fmuoria/cv-auditor/internal/scoring"
	"github.com/fmuoria/cv-auditor/internal/store"
)

const (
	app = "cvaudit"

	outputTable = "table"
	outputJSON  = "json"
)

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "cvaudit checks student CVs for the expected sections and keeps a submission log",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is cvaudit.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().StringP("output", "o", outputTable, "result format: table or json")
}

// runtime holds everything a command needs once configuration is resolved
type runtime struct {
	cfg     *config.Config
	logger  *zap.Logger
	auditor *scoring.Auditor
	store   store.Store
	agent   *agent.Agent
	output  string
}

// flagBinding maps a command flag onto a configuration key
type flagBinding struct {
	flag string
	key  string
}

// loadConfig resolves .env files, the config file, env overrides and the given flags
func loadConfig(cmd *cobra.Command, bindings ...flagBinding) (*config.Config, *viper.Viper, error) {
	if err := config.LoadEnvFiles(".env"); err != nil {
		return nil, nil, err
	}

	v, err := config.NewViper(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	for _, b := range bindings {
		if f := cmd.Flags().Lookup(b.flag); f != nil {
			if err := v.BindPFlag(b.key, f); err != nil {
				return nil, nil, fmt.Errorf("binding flag %s: %w", b.flag, err)
			}
		}
	}
	for _, name := range []string{"debug", "json", "output"} {
		if err := v.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			return nil, nil, fmt.Errorf("binding flag %s: %w", name, err)
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

// setup builds the logger, store and agent for a command
func setup(cmd *cobra.Command, bindings ...flagBinding) (*runtime, error) {
	cfg, v, err := loadConfig(cmd, bindings...)
	if err != nil {
		return nil, err
	}

	l, err := logger.New(v.GetBool("json"), v.GetBool("debug"))
	if err != nil {
		return nil, fmt.Errorf("creating a logger: %w", err)
	}

	output := v.GetString("output")
	if output != outputTable && output != outputJSON {
		return nil, fmt.Errorf("unknown output format %q", output)
	}

	categories, err := cfg.LoadCategories()
	if err != nil {
		return nil, err
	}

	auditor, err := scoring.NewAuditor(categories,
		scoring.WithDelimiter(cfg.Summary.Delimiter),
		scoring.WithApprovalThreshold(cfg.ApprovalThreshold()),
	)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(commandContext(cmd), cfg.Store)
	if err != nil {
		return nil, err
	}

	l.Debug("configuration loaded",
		zap.String("store", cfg.Store.Backend),
		zap.Int("categories", len(categories)),
		zap.String("config_file", v.ConfigFileUsed()),
	)

	a := agent.New(auditor, st,
		agent.WithLogger(l),
		agent.WithWorkers(cfg.Batch.Workers),
		agent.WithExtractor(ingestion.NewDocumentExtractor(cfg.Ingestion.MinTextLength)),
		agent.WithFileHandler(ingestion.NewFileHandler(cfg.Ingestion.SubmissionsDir)),
	)

	return &runtime{
		cfg:     cfg,
		logger:  l,
		auditor: auditor,
		store:   st,
		agent:   a,
		output:  output,
	}, nil
}

func (r *runtime) Close() {
	if err := r.store.Close(); err != nil {
		r.logger.Warn("closing store", zap.Error(err))
	}
	_ = r.logger.Sync()
}

// emit prints v as JSON when requested, otherwise calls render
func (r *runtime) emit(w io.Writer, v interface{}, render func()) error {
	if r.output == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	render()
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
