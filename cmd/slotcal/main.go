package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/civil"

	"slotcal/internal/calendar"
	"slotcal/internal/config"
	"slotcal/internal/ics"
	appLog "slotcal/internal/log"
	"slotcal/internal/service"
	"slotcal/internal/web"
)

const version = "0.1.0"

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	once       bool
	on         string
	date       string
	debug      bool
}

func main() {
	flags := parseFlags()
	if err := run(flags, os.Stdout); err != nil {
		appLog.Error("slotcal failed", err)
		os.Exit(1)
	}
}

func run(flags flagConfig, out io.Writer) error {
	conf, err := config.Load(flags.configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", flags.configPath, err)
	}

	// CLI -listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	level, err := appLog.ParseLevel(conf.LogLevel)
	if err != nil {
		return err
	}
	if flags.debug {
		level = appLog.LevelDebug
	}
	appLog.SetLevel(level)

	appLog.Info("slotcal starting", "version", version)
	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"horizon_days", conf.HorizonDays,
		"availability_count", len(conf.Availability),
		"occupation_count", len(conf.Occupations),
		"ics_count", len(conf.ICS),
		"once", flags.once,
	)

	svc, err := service.New(conf, ics.NewFetcher(conf.CacheDir, nil))
	if err != nil {
		return err
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := svc.Refresh(ctx); err != nil {
		return fmt.Errorf("initial refresh: %w", err)
	}

	if flags.once {
		return printSlots(out, svc, flags)
	}

	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer func() {
		<-svc.Stop().Done()
		appLog.Info("slotcal exiting")
	}()

	return web.NewServer(conf, svc).Run(ctx)
}

// printSlots writes "scope start-end" lines for the -on and -date queries.
// Without either flag it prints today's free slots.
func printSlots(out io.Writer, svc *service.Service, flags flagConfig) error {
	if flags.on == "" && flags.date == "" {
		flags.date = svc.Today().String()
	}

	if flags.on != "" {
		scope, err := calendar.ParseScope(flags.on)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "# available on %s\n", scope)
		writeSlots(out, svc.AvailableSlotsOn(scope))
	}

	if flags.date != "" {
		d, err := civil.ParseDate(flags.date)
		if err != nil {
			return fmt.Errorf("%q is not a valid date", flags.date)
		}
		fmt.Fprintf(out, "# free on %s\n", d)
		writeSlots(out, svc.FreeSlotsOn(d))
	}
	return nil
}

func writeSlots(out io.Writer, slots []calendar.Availability) {
	for _, a := range slots {
		fmt.Fprintln(out, a)
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Refresh once, print slots and exit")
	flag.StringVar(&cfg.on, "on", "", "With -once: print available slots for a weekday or date")
	flag.StringVar(&cfg.date, "date", "", "With -once: print free slots for a date (default today)")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
