// checkinctl is the operator tool for the check-in service. It talks to the
// configured store directly, using the same environment as checkinsvc.
//
//	checkinctl token [--email addr] [--ttl 12h]
//	checkinctl export [--event ID] [--out file]
//	checkinctl clear --yes
//	checkinctl watch
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	config "github.com/avvvet/checkin-services/configs"
	"github.com/avvvet/checkin-services/internal/checkinsvc/auth"
	"github.com/avvvet/checkin-services/internal/checkinsvc/broker"
	svcconfig "github.com/avvvet/checkin-services/internal/checkinsvc/config"
	"github.com/avvvet/checkin-services/internal/checkinsvc/models"
	"github.com/avvvet/checkin-services/internal/checkinsvc/service"
	"github.com/avvvet/checkin-services/internal/checkinsvc/store"
	"github.com/avvvet/checkin-services/internal/comm"
	natscli "github.com/avvvet/checkin-services/internal/nats"
)

const SERVICE_NAME = "checkinctl"

func main() {
	log.SetOutput(os.Stderr)
	config.LoadEnv(SERVICE_NAME)

	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		printUsage(out)
		return errors.New("missing command")
	}

	cfg := svcconfig.Load()
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "token":
		return runToken(cfg, rest, out)
	case "export":
		return runExport(cfg, rest, out)
	case "clear":
		return runClear(cfg, rest, out)
	case "watch":
		return runWatch(cfg, rest, out)
	case "help", "-h", "--help":
		printUsage(out)
		return nil
	default:
		printUsage(out)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, `usage: checkinctl <command> [flags]

commands:
  token    mint an admin bearer token
  export   write check-ins as JSON, newest first
  clear    delete every check-in (requires --yes)
  watch    print check-in events published on NATS`)
}

func runToken(cfg svcconfig.Config, args []string, out io.Writer) error {
	flagSet := pflag.NewFlagSet("token", pflag.ContinueOnError)
	email := flagSet.String("email", cfg.AdminEmail, "email claim of the token")
	ttl := flagSet.Duration("ttl", cfg.TokenTTL, "token lifetime")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	if auth.NormalizeEmail(*email) == "" {
		return errors.New("no email: pass --email or set ADMIN_EMAIL")
	}
	if cfg.JWTSecret == svcconfig.DefaultJWTSecret {
		log.Warn("JWT_SECRET is not set, token is signed with the default secret")
	}

	token, err := auth.NewTokenService(cfg.JWTSecret, *ttl).Issue(auth.NormalizeEmail(*email))
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}

func openService(cfg svcconfig.Config) (*service.CheckinService, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	closeFn := func() {
		if err := st.Close(); err != nil {
			log.Warnf("closing store: %s", err)
		}
	}
	return service.NewCheckinService(st, nil, cfg.StoreTimeout), closeFn, nil
}

func runExport(cfg svcconfig.Config, args []string, out io.Writer) error {
	flagSet := pflag.NewFlagSet("export", pflag.ContinueOnError)
	event := flagSet.String("event", "", "only export check-ins for this event id")
	outPath := flagSet.StringP("out", "o", "", "write to file instead of stdout")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	svc, closeFn, err := openService(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	records, err := svc.List(context.Background())
	if err != nil {
		return fmt.Errorf("list check-ins: %w", err)
	}
	records = filterByEvent(records, *event)

	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode check-ins: %w", err)
	}
	log.Infof("exported %d check-ins", len(records))
	return nil
}

func filterByEvent(records []models.Checkin, event string) []models.Checkin {
	if event == "" {
		return records
	}
	kept := make([]models.Checkin, 0, len(records))
	for _, r := range records {
		if r.EventID == event {
			kept = append(kept, r)
		}
	}
	return kept
}

func runClear(cfg svcconfig.Config, args []string, out io.Writer) error {
	flagSet := pflag.NewFlagSet("clear", pflag.ContinueOnError)
	yes := flagSet.Bool("yes", false, "confirm deleting every check-in")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if !*yes {
		return errors.New("refusing to clear without --yes")
	}

	svc, closeFn, err := openService(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := svc.DeleteAll(context.Background()); err != nil {
		return fmt.Errorf("clear check-ins: %w", err)
	}
	fmt.Fprintf(out, "all check-ins deleted from %s store\n", cfg.Backend)
	return nil
}

func runWatch(cfg svcconfig.Config, args []string, out io.Writer) error {
	flagSet := pflag.NewFlagSet("watch", pflag.ContinueOnError)
	topic := flagSet.String("topic", cfg.NatsTopic, "NATS subject to follow")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if cfg.NatsURL == "" {
		return errors.New("NATS_URL is not set")
	}

	n, err := natscli.Connect(cfg.NatsURL, cfg.NatsToken, SERVICE_NAME)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer n.Close()

	b := broker.NewBroker(n.Conn, *topic, "")
	sub, err := b.Subscribe(func(msg comm.Message) {
		fmt.Fprintln(out, formatEvent(msg))
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", *topic, err)
	}
	defer sub.Unsubscribe()
	log.Infof("watching %s on %s", *topic, n.Url)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	return nil
}

func formatEvent(msg comm.Message) string {
	var ev comm.CheckinEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		return fmt.Sprintf("%s %s (undecodable payload)", msg.SentAt.Format(time.RFC3339), msg.Type)
	}

	switch {
	case ev.Checkin != nil:
		c := ev.Checkin
		return fmt.Sprintf("%s %s id=%s name=%q guests=%d event=%s",
			msg.SentAt.Format(time.RFC3339), msg.Type, c.ID, c.Name, c.Guests, c.EventID)
	case ev.ID != "":
		return fmt.Sprintf("%s %s id=%s", msg.SentAt.Format(time.RFC3339), msg.Type, ev.ID)
	default:
		return fmt.Sprintf("%s %s", msg.SentAt.Format(time.RFC3339), msg.Type)
	}
}
