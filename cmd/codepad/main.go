package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	cliconfig "codepad/internal/cli/config"
	"codepad/internal/cli/repl"
	"codepad/internal/identity/local"
	"codepad/internal/judge"
	"codepad/internal/session"
	"codepad/internal/session/repository"
	"codepad/internal/ui"
	"codepad/pkg/utils/logger"
)

const defaultConfigPath = "configs/codepad.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	judgeURL := flag.String("judge", "", "Override judge base URL")
	cookiePath := flag.String("cookies", "", "Override cookie file path")
	flag.Parse()

	cfg, err := cliconfig.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	if *judgeURL != "" {
		cfg.JudgeBaseURL = *judgeURL
	}
	if *cookiePath != "" {
		cfg.CookiePath = *cookiePath
	}

	if err := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cookies, err := buildCookieStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init cookie store failed: %v\n", err)
		os.Exit(1)
	}

	provider := local.New(cfg.Identity.JWTSecret, cfg.Identity.JWTIssuer)
	for _, user := range cfg.Identity.Users {
		if err := provider.Register(user.Username, user.Password); err != nil {
			fmt.Fprintf(os.Stderr, "register user %q failed: %v\n", user.Username, err)
			os.Exit(1)
		}
	}

	notifier := ui.NewConsoleNotifier(os.Stdout)
	store := session.NewStore()
	controller := session.NewController(store, cookies, provider, ui.LogNavigator{}, notifier)

	client := judge.NewClient(cfg.JudgeBaseURL, cfg.Timeout, func() string {
		return store.Snapshot().SessionToken
	})
	workflow := judge.NewWorkflow(client, notifier, judge.WorkflowConfig{
		PollInterval: cfg.PollInterval,
		MaxPolls:     cfg.MaxPolls,
	}, func(result judge.Result) {
		repl.PrintResult(os.Stdout, result)
	})

	ctx := context.Background()
	// Hydrate from the persisted auth record before the first prompt.
	_ = controller.OnLoad(ctx)

	sess := repl.New(controller, workflow, cfg.ProblemID)
	if err := sess.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "repl failed: %v\n", err)
		os.Exit(1)
	}
	workflow.Cancel()
}

func buildCookieStore(cfg cliconfig.Config) (repository.CookieStore, error) {
	switch cfg.CookieBackend {
	case "redis":
		return repository.NewRedisCookieStore(repository.DefaultRedisConfig(cfg.RedisAddr), "")
	default:
		return repository.NewFileCookieStore(cfg.CookiePath), nil
	}
}
