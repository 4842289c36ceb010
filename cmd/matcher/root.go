package main

import (
	"context"
	"fmt"
	"log"

	"github.com/fadilmartias/cv-matcher/internal/bootstrap"
	"github.com/fadilmartias/cv-matcher/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const app = "matcher"

var (
	envFile string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "matcher scores candidates against job postings from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute executes the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "error:", err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with database and provider settings")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.SetEnvPrefix(app)
	viper.AutomaticEnv()
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		log.Fatalf("binding debug flag: %v", err)
	}
	if err := viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json")); err != nil {
		log.Fatalf("binding json flag: %v", err)
	}
}

func initConfig() {
	if err := godotenv.Load(envFile); err != nil && rootCmd.PersistentFlags().Changed("env-file") {
		log.Fatalf("loading %s: %v", envFile, err)
	}
}

func newLogger() (*zap.Logger, error) {
	return logger.New(viper.GetBool("json"), viper.GetBool("debug"))
}

// withPipeline connects to the database, builds the scoring pipeline and
// hands it to fn. In-flight runs are shut down before it returns.
func withPipeline(ctx context.Context, fn func(*bootstrap.Container) error) error {
	zlog, err := newLogger()
	if err != nil {
		return fmt.Errorf("creating a logger: %w", err)
	}
	defer zlog.Sync() //nolint:errcheck

	db, err := bootstrap.Connect()
	if err != nil {
		return err
	}
	c, err := bootstrap.New(ctx, db, zlog)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(context.Background()); err != nil {
			zlog.Warn("close", zap.Error(err))
		}
	}()
	return fn(c)
}
