package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"justapengu.in/laptimes"
	"justapengu.in/laptimes/internal/timing"
)

var configPath string

func init() {
	flag.StringVar(&configPath, "c", "./config.yml", "config path")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-c config.yml] serve|ingest [-o out.csv] [-m mapping.csv] files...\n", os.Args[0])
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	config, err := laptimes.ReadConfig(configPath)

	if err != nil {
		logrus.WithError(err).Fatalf("Could not read config at %s", configPath)
	}

	logrus.SetLevel(config.Level())

	switch flag.Arg(0) {
	case "serve", "":
		err = serve(config)
	case "ingest":
		err = ingest(flag.Args()[1:])
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		logrus.WithError(err).Fatal("laptimes exited with an error")
	}
}

func serve(config *laptimes.Config) error {
	store, err := config.NewStore()

	if err != nil {
		return err
	}

	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	server := &http.Server{
		Addr:    config.HTTP.Listen,
		Handler: laptimes.Router(laptimes.NewSessionManager(store)),
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	defer signal.Stop(c)

	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		logrus.Infof("Listening on http://%s", config.HTTP.Listen)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}

		return nil
	})

	g.Go(func() error {
		select {
		case <-c:
		case <-ctx.Done():
		}

		logrus.Infof("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func ingest(args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	outPath := fs.String("o", "", "write the consolidated csv here instead of stdout")
	mappingPath := fs.String("m", "", "driver subcategory mapping csv")

	if err := fs.Parse(args); err != nil {
		return err
	}

	sources := make([]timing.Source, 0, fs.NArg())

	for _, path := range fs.Args() {
		sources = append(sources, timing.Source{Filename: filepath.Base(path), Path: path})
	}

	laps, reports := timing.IngestAll(sources)

	for _, report := range reports {
		if warning := report.Warning(); warning != "" {
			logrus.Warn(warning)
		}
	}

	laps = timing.ApplyMapping(laps.Dedup(), readMapping(*mappingPath))

	var out io.Writer = os.Stdout

	if *outPath != "" {
		f, err := os.Create(*outPath)

		if err != nil {
			return err
		}

		defer f.Close()

		out = f
	}

	if err := timing.WriteCSV(out, laps); err != nil {
		return err
	}

	logrus.Infof("Wrote %d laps from %d files", len(laps), len(sources))

	return nil
}

func readMapping(path string) timing.Mapping {
	if path == "" {
		return nil
	}

	f, err := os.Open(path)

	if err != nil {
		logrus.WithError(err).Warn("Could not open subcategory mapping, all drivers will be NOT REGISTERED")
		return nil
	}

	defer f.Close()

	mapping, err := timing.LoadMapping(f)

	if err != nil {
		logrus.WithError(err).Warn("Could not read subcategory mapping, all drivers will be NOT REGISTERED")
		return nil
	}

	return mapping
}
