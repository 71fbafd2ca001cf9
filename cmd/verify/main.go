package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"company-verify/internal/render"
	"company-verify/internal/sources"
	"company-verify/internal/util"
	"company-verify/internal/verify"
)

func main() {
	_ = godotenv.Load()
	srcCfg := sources.ConfigFromEnv()

	var (
		name        = flag.String("name", "", "Company name to verify (defaults to the remaining arguments)")
		timeout     = flag.Duration("timeout", srcCfg.HTTP.Timeout, "Per-source timeout")
		delay       = flag.Duration("delay", srcCfg.HTTP.Delay, "Pause after every page fetch")
		concurrency = flag.Int("concurrency", 1, "Sources queried at once (1 = one after another)")
		asJSON      = flag.Bool("json", false, "Print the report as JSON")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}

	company := strings.TrimSpace(*name)
	if company == "" {
		company = strings.TrimSpace(strings.Join(flag.Args(), " "))
	}
	if company == "" {
		fmt.Fprintln(os.Stderr, "usage: verify [flags] <company name>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	srcCfg.HTTP.Timeout = *timeout
	srcCfg.HTTP.Delay = *delay
	srcCfg.WhoisTimeout = *timeout

	verifier, err := verify.NewVerifier(verify.Config{
		SourceTimeout: srcCfg.SourceBudget(),
		Concurrency:   *concurrency,
	}, sources.New(srcCfg).All()...)
	if err != nil {
		logrus.Fatalf("create verifier: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	timer := util.StartTimer()
	report := verifier.Verify(ctx, company)
	logrus.WithField("duration", timer.Elapsed()).Debug("verification finished")

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			logrus.Fatalf("encode report: %v", err)
		}
		return
	}
	if err := render.Text(os.Stdout, report); err != nil {
		logrus.Fatalf("render report: %v", err)
	}
}
