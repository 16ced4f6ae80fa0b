package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/local/stopoverdispatch/internal/appconfig"
	cfgpkg "github.com/local/stopoverdispatch/internal/config"
	"github.com/local/stopoverdispatch/internal/dispatch"
	logpkg "github.com/local/stopoverdispatch/internal/logger"
	"github.com/local/stopoverdispatch/internal/mailer"
	"github.com/local/stopoverdispatch/internal/metrics"
	"github.com/local/stopoverdispatch/internal/pdfdoc"
	"github.com/local/stopoverdispatch/internal/preview"
	"github.com/local/stopoverdispatch/internal/storage"
	"github.com/local/stopoverdispatch/internal/store"
)

// app carries what every command needs once flags are parsed.
type app struct {
	configFile string
	envFile    string
	noColor    bool

	cfg   cfgpkg.Config
	state *appconfig.Store
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "stopoverdispatch",
		Short:         "Detect stopover pages in a survey report and send them to each stopover",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logpkg.Close()
		},
	}
	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "application state file (default $APP_CONFIG or data/app_config.json)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newScanCmd(a),
		newSendCmd(a),
		newMappingCmd(a),
		newTemplateCmd(a),
		newServeCmd(a),
	)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w\n\n%s", err, cmd.UsageString())
	})
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	if err := cfgpkg.LoadDotEnv(a.envFile); err != nil {
		return fmt.Errorf("load %s: %w", a.envFile, err)
	}
	a.cfg = cfgpkg.FromEnv()
	if a.configFile != "" {
		a.cfg.Paths.AppConfig = a.configFile
	}
	setupUI(a.noColor)

	// The CLI keeps stdout for results; logs go to stderr and the file.
	console := os.Stderr
	level := a.cfg.Logging.Level
	if cmd.Name() != "serve" && os.Getenv("LOG_LEVEL") == "" {
		level = "warn"
	}
	if err := logpkg.Init(logpkg.Options{
		Level:        level,
		Pretty:       a.cfg.Logging.Pretty || cmd.Name() != "serve",
		File:         a.cfg.Logging.File,
		MaxSizeMB:    a.cfg.Logging.MaxSizeMB,
		MaxBackups:   a.cfg.Logging.MaxBackups,
		MaxAgeDays:   a.cfg.Logging.MaxAgeDays,
		Compress:     a.cfg.Logging.Compress,
		Console:      console,
		SendToAxiom:  a.cfg.Axiom.Send && a.cfg.Axiom.APIKey != "",
		AxiomAPIKey:  a.cfg.Axiom.APIKey,
		AxiomOrgID:   a.cfg.Axiom.OrgID,
		AxiomDataset: a.cfg.Axiom.Dataset,
		AxiomFlush:   a.cfg.Axiom.FlushInterval,
	}); err != nil {
		return err
	}

	st, err := appconfig.Open(a.cfg.Paths.AppConfig)
	if err != nil {
		return err
	}
	a.state = st
	metrics.SetMappedCodes(len(st.Mappings()))
	st.OnChange(func(s appconfig.State) { metrics.SetMappedCodes(len(s.Mappings)) })
	return nil
}

// components holds the wired service and what must be closed with it.
type components struct {
	svc     *dispatch.Service
	outbox  *mailer.Outbox
	redis   *store.RedisJobs
	archive *storage.S3Client
}

func (c *components) Close() {
	if c.redis != nil {
		_ = c.redis.Close()
	}
}

func (a *app) buildService(ctx context.Context) (*components, error) {
	c := &components{outbox: mailer.NewOutbox(a.cfg.Paths.OutboxDir)}

	var jobs store.JobStore = store.NewMemory(a.cfg.Redis.JobTTL)
	if a.cfg.Redis.URL != "" {
		rj, err := store.NewRedisJobs(a.cfg.Redis.URL, a.cfg.Redis.JobTTL)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		c.redis = rj
		jobs = rj
	}

	var m mailer.Mailer = c.outbox
	if a.cfg.Storage.Bucket != "" {
		s3c, err := storage.NewS3Client(ctx, a.cfg.Storage.Bucket, a.cfg.Storage.Prefix)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.archive = s3c
		if a.cfg.Storage.ArchiveSent {
			m = mailer.NewArchiving(m, s3c)
		}
	}

	c.svc = dispatch.New(dispatch.Dependencies{
		Extractor: pdfdoc.NewExtractor(nil),
		Jobs:      jobs,
		Config:    a.state,
		Mailer:    m,
		Previewer: preview.NewRenderer(preview.Options{
			MaxWidth:  a.cfg.Preview.MaxWidth,
			MaxHeight: a.cfg.Preview.MaxHeight,
			Quality:   a.cfg.Preview.Quality,
		}),
		From:          a.cfg.Mail.From,
		AttachmentDir: a.cfg.Paths.AttachmentDir,
		Workers:       a.cfg.Scan.Workers,
	})
	log.Debug().Bool("redis", c.redis != nil).Bool("archive", a.cfg.Storage.ArchiveSent && c.archive != nil).Str("outbox", c.outbox.Dir()).Msg("service ready")
	return c, nil
}
