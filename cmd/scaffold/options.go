package main

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/pkg/profile"
	"github.com/rs/zerolog"
	"github.com/scaffold-io/scaffold/loader"
	"github.com/scaffold-io/scaffold/source"
	"github.com/scaffold-io/scaffold/source/pgsource"
	"github.com/scaffold-io/scaffold/source/s3source"
	"github.com/spf13/viper"
)

// newLogger returns a console logger writing to w at the configured level.
func newLogger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(viper.GetString("log-level")))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.WarnLevel
	}
	out := zerolog.ConsoleWriter{Out: w, NoColor: !isTerminalIO() || viper.GetBool("no-color")}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// openSource returns the template source selected by the flags: an S3
// bucket, a PostgreSQL table or local directories. The returned function
// releases any connection.
func openSource(ctx context.Context) (source.Source, func(), error) {
	noop := func() {}
	if bucket := viper.GetString("s3-bucket"); bucket != "" {
		s, err := s3source.NewFromConfig(ctx, bucket, viper.GetString("s3-prefix"))
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	}
	if url := viper.GetString("pg-url"); url != "" {
		s, conn, err := pgsource.Connect(ctx, url, viper.GetString("pg-table"))
		if err != nil {
			return nil, noop, err
		}
		return s, func() { conn.Close(context.Background()) }, nil
	}
	s, err := source.NewDir(viper.GetStringSlice("source")...)
	if err != nil {
		return nil, noop, err
	}
	return s, noop, nil
}

// newLoader builds a loader over the configured source.
func newLoader(ctx context.Context, logger zerolog.Logger) (*loader.Loader, func(), error) {
	src, closeSource, err := openSource(ctx)
	if err != nil {
		return nil, nil, err
	}
	l, err := loaderFor(src, logger)
	if err != nil {
		closeSource()
		return nil, nil, err
	}
	return l, closeSource, nil
}

func loaderFor(src source.Source, logger zerolog.Logger) (*loader.Loader, error) {
	cfg := loader.Config{
		Source:    src,
		Extension: viper.GetString("extension"),
		Logger:    &logger,
	}
	if target := viper.GetString("target"); target != "" {
		if err := os.MkdirAll(target, 0o755); err != nil {
			return nil, err
		}
		dir, err := source.NewDir(target)
		if err != nil {
			return nil, err
		}
		cfg.Target = dir
	}
	return loader.New(cfg)
}

var profileModes = map[string]func(*profile.Profile){
	"block": profile.BlockProfile,
	"cpu":   profile.CPUProfile,
	"mem":   profile.MemProfile,
	"mutex": profile.MutexProfile,
	"trace": profile.TraceProfile,
}

type stopper interface{ Stop() }

type ignore struct{}

func (ignore) Stop() {}

// startProfile starts the profiler selected by --profile.
func startProfile() stopper {
	mode, ok := profileModes[viper.GetString("profile")]
	if !ok {
		return ignore{}
	}
	opts := []func(*profile.Profile){mode, profile.Quiet, profile.NoShutdownHook}
	if p := viper.GetString("profile-path"); p != "" {
		opts = append(opts, profile.ProfilePath(p))
	}
	return profile.Start(opts...)
}
