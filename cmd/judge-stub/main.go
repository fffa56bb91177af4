package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"codepad/internal/judgestub"
	"codepad/pkg/utils/logger"
)

func main() {
	addr := flag.String("addr", ":2358", "Listen address")
	delay := flag.Duration("delay", 4*time.Second, "Time a submission spends before turning terminal")
	rateLimit := flag.Int("rate-limit", 0, "Max create requests per client IP per window, 0 disables")
	window := flag.Duration("rate-window", time.Minute, "Rate limit window")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	if err := logger.Init(logger.Config{Level: *logLevel}); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	server := judgestub.New(judgestub.Config{
		ProcessDelay:    *delay,
		RateLimit:       *rateLimit,
		RateLimitWindow: *window,
	})
	fmt.Printf("judge stub listening on %s\n", *addr)
	if err := server.Run(*addr); err != nil {
		fmt.Fprintf(os.Stderr, "server failed: %v\n", err)
		os.Exit(1)
	}
}
