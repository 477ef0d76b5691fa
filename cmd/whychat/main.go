package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/fx"

	"whychat/internal/app"
	"whychat/internal/config"
)

func main() {
	serverFlag := flag.String("server", "", "server base URL (overrides config)")
	senderFlag := flag.String("sender", "", "sender name (overrides config default)")
	conversationFlag := flag.String("conversation", "", "conversation id (overrides config default)")
	configFlag := flag.String("config", "", "config file path (default ~/.whychat/config.toml)")
	flag.Parse()

	cfgPath := *configFlag
	if cfgPath == "" {
		cfgPath = config.ConfigPath()
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		// A missing config file is normal on first run.
		cfg = config.Default()
	}
	if *serverFlag != "" {
		cfg.ServerURL = *serverFlag
	}
	if *conversationFlag != "" {
		cfg.DefaultConversation = *conversationFlag
	}

	sender := *senderFlag
	if sender == "" {
		sender = cfg.DefaultSender
	}

	if _, err := cfg.WebSocketURL(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fxApp := fx.New(
		app.Module(app.Params{Config: cfg, Sender: sender}),
		fx.NopLogger,
	)

	fxApp.Run()
}
