// Runs the HTTP API used by the browser UI.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"invoice-reminder/src/pkg/config"
	echomw "invoice-reminder/src/pkg/echo-middleware"
	"invoice-reminder/src/pkg/email"
	"invoice-reminder/src/pkg/ingest"
	"invoice-reminder/src/pkg/reminder"
	"invoice-reminder/src/pkg/server"
	"invoice-reminder/src/pkg/session"
)

func main() {
	// common flags
	configPath := flag.String("config", "./cfg/config.json", "Path to your configuration file.")
	// program's custom flags
	address := flag.String("address", "", "Listen address, overrides server.address and server.port")
	providerName := flag.String("provider", "", "Email provider, overrides email.provider")
	// parse and init config
	flag.Parse()
	config.InitializeConfig(*configPath)
	echomw.InitializeConfig(config.Section[echomw.Config]("echo_middleware"))
	server.InitializeConfig(config.Section[server.Config]("server"))
	ingest.InitializeConfig(config.Section[ingest.Config]("ingest"))
	email.InitializeConfig(config.Section[email.Config]("email"))
	reminder.InitializeConfig(config.Section[reminder.Config]("reminder"))

	if *providerName == "" {
		*providerName = email.Cfg.Provider
	}
	provider, e := email.ParseProvider(*providerName)
	e.QuitIf("error")
	config.CheckIfEnvVarsPresent(email.EnvVars[provider]...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// the catalog only exists for sendgrid, everything else uses built-in templates
	var catalog reminder.Catalog
	if provider == email.ProviderSendGrid && os.Getenv("SENDGRID_API_KEY") != "" {
		catalog = email.NewSendGridCatalog(os.Getenv("SENDGRID_API_KEY"))
	}

	policy := reminder.PolicyFromConfig()
	policy.ReplyTo = email.Cfg.ReplyTo

	var logo []email.Attachment
	if email.Cfg.LogoURL != "" {
		logoCtx, cancel := context.WithTimeout(ctx, email.RequestTimeout())
		attachment, logoErr := email.FetchLogo(logoCtx, email.Cfg.LogoURL, email.Cfg.LogoMaxWidth)
		cancel()
		if logoErr != nil {
			tl.Log(tl.Warning, palette.Yellow, "Sending without a logo: %v", logoErr)
		} else {
			logo = append(logo, attachment)
		}
	}

	listen := *address
	if listen == "" {
		listen = server.ListenAddress()
	}

	api := server.New(server.Options{
		Store:     session.NewStore(server.Cfg.MaxSessions),
		Catalog:   catalog,
		Policy:    policy,
		Provider:  provider,
		NewSender: email.NewSender,
		From:      email.Cfg.From,
		Logo:      logo,
		ChunkSize: ingest.Cfg.ChunkSize,
		Interval:  email.DispatchInterval(),
	})

	tl.Log(
		tl.Notice, palette.BlueBold, "%s reminder server. Config path: '%s', provider: '%s'",
		"Running", *configPath, provider,
	)
	e = api.Run(ctx, listen)
	e.QuitIf("error")
}
