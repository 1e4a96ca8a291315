package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/coachdesk/coachdesk/agent/engine"
	"github.com/coachdesk/coachdesk/agent/llm"
	"github.com/coachdesk/coachdesk/pkg/config"
	_ "github.com/coachdesk/coachdesk/pkg/logger/autoload"
	"github.com/coachdesk/coachdesk/pkg/mailer"
	"github.com/coachdesk/coachdesk/pkg/openrouter"
	"github.com/coachdesk/coachdesk/store/postgres"

	"github.com/coachdesk/coachdesk/agent/contract"
)

type AppConfig struct {
	ActingUserID string `envconfig:"ACTING_USER_ID" split_words:"true"`
}

func main() {
	userFlag := flag.String("user", "", "acting user id (overrides ACTING_USER_ID)")
	providerFlag := flag.String("provider", "", "provider hint (e.g. anthropic)")
	readOnlyFlag := flag.Bool("read-only", false, "block all mutating tools for this run")

	appCfg := config.MustLoad[AppConfig]("")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	openRouterCfg := config.MustLoad[openrouter.Config]("OPENROUTER")
	openRouterClient := openrouter.NewClient(*openRouterCfg)
	if openRouterClient == nil {
		log.Fatal().Msg("openrouter api key is not configured")
	}

	llmCfg := config.MustLoad[llm.Config]("LLM")
	router, err := llm.NewRouter(openRouterClient, *llmCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build model router")
	}

	mailerCfg := config.MustLoad[mailer.Config]("MAILER")
	inviteMailer := mailer.MustNew(*mailerCfg)

	pgCfg := config.MustLoad[postgres.Config]("POSTGRES")
	store, err := postgres.Connect(ctx, *pgCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer store.Close()

	eng, err := engine.New(store, router, inviteMailer)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build engine")
	}

	prompt := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if prompt == "" {
		fmt.Fprintln(os.Stderr, "usage: coachdesk [-user ID] [-provider HINT] [-read-only] <prompt>")
		os.Exit(2)
	}

	actingUserID := strings.TrimSpace(*userFlag)
	if actingUserID == "" {
		actingUserID = appCfg.ActingUserID
	}

	in := contract.RunInput{
		ActingUserID: actingUserID,
		Prompt:       prompt,
		ProviderHint: *providerFlag,
	}
	if *readOnlyFlag {
		allow := false
		in.AllowMutations = &allow
	}

	out, err := eng.Run(ctx, in)
	if err != nil {
		log.Fatal().Err(err).Msg("run failed")
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to encode output")
	}
	fmt.Println(string(encoded))
}
