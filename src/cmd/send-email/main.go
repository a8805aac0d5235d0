// in case you need to create an entrypoint with multiple subprograms
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"invoice-reminder/src/pkg/config"
	"invoice-reminder/src/pkg/email"
	"invoice-reminder/src/pkg/export"
	"invoice-reminder/src/pkg/ingest"
	"invoice-reminder/src/pkg/ledger"
	"invoice-reminder/src/pkg/reminder"
	"invoice-reminder/src/pkg/session"
	"invoice-reminder/src/pkg/util"
)

func initializeConfig(configPath string) {
	config.InitializeConfig(configPath)
	ingest.InitializeConfig(config.Section[ingest.Config]("ingest"))
	email.InitializeConfig(config.Section[email.Config]("email"))
	reminder.InitializeConfig(config.Section[reminder.Config]("reminder"))
}

/*
Pick prvider and use it to send a test email to admin/specified address.
Specify test email file path (render one with the remind subprogram in dry run mode)
*/
func testProvider(subprogram string, flags []string) {
	config.CheckIfEnvVarsPresent(
		"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_REGION", // amazon ses
		"MAILGUN_DOMAIN", "MAILGUN_API_KEY", // mailgun
		"SENDGRID_API_KEY",                            // sendgrid
		"SMTP_HOST", "SMTP_USERNAME", "SMTP_PASSWORD", // smtp
	)

	// common flags
	subprogramCmd := flag.NewFlagSet(subprogram, flag.ExitOnError)
	configPath := subprogramCmd.String("config", "./cfg/config.json", "Path to your configuration file.")

	// custom flags
	provider := subprogramCmd.String("provider", "mailgun", "Provider to use when sending emails")
	senderAddress := subprogramCmd.String("sender", "", "Sender's address")
	recipientAddress := subprogramCmd.String("recipient", "", "Recipient's address")
	subject := subprogramCmd.String("subject", "Test subject", "Subject of an email")
	emailHtmlFilePath := subprogramCmd.String("html", "./tmp/email.html", "Html of an email, with variables substituted")
	emailTextFilePath := subprogramCmd.String("text", "./tmp/email.txt", "Text of an email, with variables substituted")

	// parse and init config
	xerr.QuitIfError(subprogramCmd.Parse(flags), "Unable to subprogramCmd.Parse")
	initializeConfig(*configPath)

	util.RequiredFlag(senderAddress, "sender")
	util.RequiredFlag(recipientAddress, "recipient")
	util.RequiredFlag(provider, "provider")
	util.EnsureFlags()

	recipientAddresses := strings.Split(*recipientAddress, ",")

	// read html file
	htmlFileContentBytes, err := os.ReadFile(*emailHtmlFilePath)
	xerr.QuitIfError(err, fmt.Sprintf("Unable to read file '%s'", *emailHtmlFilePath))
	tl.Log(tl.Verbose, palette.BlueDim, "Full Email:\n```\n%s\n```", htmlFileContentBytes)
	// read text file
	textFileContentBytes, err := os.ReadFile(*emailTextFilePath)
	xerr.QuitIfError(err, fmt.Sprintf("Unable to read file '%s'", *emailTextFilePath))
	tl.Log(tl.Verbose, palette.BlueDim, "Full Email:\n```\n%s\n```", textFileContentBytes)

	parsedProvider, e := email.ParseProvider(*provider)
	e.QuitIf("error")

	// send email here
	sendEmails := true
	e = email.SendMessage(parsedProvider, &sendEmails, *senderAddress, recipientAddresses, *subject, string(textFileContentBytes), string(htmlFileContentBytes), nil)
	e.QuitIf("error")
}

// batchFlags are shared by remind and export.
type batchFlags struct {
	configPath *string
	input      *string
	sender     *string
	replyTo    *string
	customers  *string
	template   *string
	asOf       *string
	noLogo     *bool
}

func addBatchFlags(subprogramCmd *flag.FlagSet) batchFlags {
	return batchFlags{
		configPath: subprogramCmd.String("config", "./cfg/config.json", "Path to your configuration file."),
		input:      subprogramCmd.String("input", "", "Receivables export (.csv or .xlsx)"),
		sender:     subprogramCmd.String("sender", "", "Sender's address, defaults to email.from"),
		replyTo:    subprogramCmd.String("reply-to", "", "Reply-To address, defaults to email.reply_to"),
		customers:  subprogramCmd.String("customers", "", "Comma separated customer names, all customers when empty"),
		template:   subprogramCmd.String("template", "", "Template id (see the templates subprogram)"),
		asOf:       subprogramCmd.String("as-of", "", "Compute days overdue as of this date (YYYY-MM-DD), today when empty"),
		noLogo:     subprogramCmd.Bool("no-logo", false, "Don't fetch and embed email.logo_url"),
	}
}

// batch is everything remind and export need once flags and config are read.
type batch struct {
	portfolio   ledger.Portfolio
	policy      reminder.Policy
	from        string
	customers   []string
	attachments []email.Attachment
	now         time.Time
}

func prepareBatch(ctx context.Context, flags batchFlags, catalog reminder.Catalog) batch {
	now := time.Now().UTC()
	if *flags.asOf != "" {
		parsed, ok := ledger.ParseDueDate(*flags.asOf)
		if !ok {
			tl.Log(tl.Error, palette.Red, "Unable to parse %s '%s'", "--as-of", *flags.asOf)
			os.Exit(1)
		}
		now = parsed
	}

	file, err := os.Open(*flags.input)
	xerr.QuitIfError(err, fmt.Sprintf("Unable to open file '%s'", *flags.input))
	defer file.Close()

	upload, e := session.Load(filepath.Base(*flags.input), file, ingest.Cfg.ChunkSize)
	e.QuitIf("error")
	for _, field := range upload.FieldMap.Missing() {
		tl.Log(tl.Warning, palette.Yellow, "No column found for %s, headers: %s", field, strings.Join(upload.Headers, ", "))
	}
	tl.LogJSON(tl.Verbose, palette.CyanDim, "Field map", upload.FieldMap)

	portfolio := ledger.Aggregate(upload.Result.Rows, now)
	for _, similar := range ledger.SimilarNames(portfolio) {
		tl.Log(tl.Warning1, palette.Yellow, "'%s' and '%s' look like the same customer (%s)", similar.Name, similar.Match, similar.Reason)
	}
	tl.LogJSON(tl.Info1, palette.Cyan, "Portfolio", portfolio.Stats)

	policy := reminder.PolicyFromConfig()
	policy.ReplyTo = email.Cfg.ReplyTo
	if *flags.replyTo != "" {
		policy.ReplyTo = *flags.replyTo
	}
	if *flags.template != "" {
		policy = reminder.PolicyFor(reminder.ResolveTemplates(ctx, catalog), *flags.template, policy)
	}

	prepared := batch{portfolio: portfolio, policy: policy, from: email.Cfg.From, now: now}
	if *flags.sender != "" {
		prepared.from = *flags.sender
	}
	for _, name := range strings.Split(*flags.customers, ",") {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			prepared.customers = append(prepared.customers, trimmed)
		}
	}

	if email.Cfg.LogoURL != "" && !*flags.noLogo {
		logo, logoErr := email.FetchLogo(ctx, email.Cfg.LogoURL, email.Cfg.LogoMaxWidth)
		if logoErr != nil {
			tl.Log(tl.Warning, palette.Yellow, "Continuing without a logo: %v", logoErr)
		} else {
			prepared.attachments = []email.Attachment{logo}
			prepared.policy.InlineLogo = true
		}
	}
	return prepared
}

func sendGridCatalog() reminder.Catalog {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	if apiKey == "" {
		return nil
	}
	return email.NewSendGridCatalog(apiKey)
}

/*
Send reminders to the customers of a receivables export.
Without --send nothing leaves the machine: every reminder is validated and logged.
*/
func remind(subprogram string, flags []string) {
	// common flags
	subprogramCmd := flag.NewFlagSet(subprogram, flag.ExitOnError)
	shared := addBatchFlags(subprogramCmd)

	// custom flags
	provider := subprogramCmd.String("provider", "", "Provider to use when sending emails, defaults to email.provider")
	send := subprogramCmd.Bool("send", false, "Actually send. Dry run otherwise")
	summaryPath := subprogramCmd.String("summary", "", "Write the dispatch summary as JSON to this path")

	// parse and init config
	xerr.QuitIfError(subprogramCmd.Parse(flags), "Unable to subprogramCmd.Parse")
	initializeConfig(*shared.configPath)

	util.RequiredFlag(shared.input, "input")
	util.EnsureFlags()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prepared := prepareBatch(ctx, shared, sendGridCatalog())
	if prepared.from == "" {
		tl.Log(tl.Error, palette.Red, "%s parameter is %s", "--sender", "required when email.from is empty")
		os.Exit(1)
	}

	var sender email.Sender = &email.DryRunSender{}
	if *send {
		if *provider == "" {
			*provider = email.Cfg.Provider
		}
		parsedProvider, e := email.ParseProvider(*provider)
		e.QuitIf("error")
		sender, e = email.NewSender(ctx, parsedProvider)
		e.QuitIf("error")
	}

	drafts := reminder.Drafts(prepared.portfolio, prepared.customers, prepared.policy)
	jobs := reminder.Jobs(drafts, prepared.policy, prepared.from, prepared.now.Year(), prepared.attachments)
	summary := email.Dispatch(ctx, sender, jobs, email.DispatchInterval())

	if *summaryPath != "" {
		e := export.SaveJSON(*summaryPath, summary)
		e.QuitIf("error")
	}
	if summary.Fail > 0 {
		os.Exit(1)
	}
}

/*
Write reminders as .eml files into a zip archive instead of sending them.
*/
func exportReminders(subprogram string, flags []string) {
	// common flags
	subprogramCmd := flag.NewFlagSet(subprogram, flag.ExitOnError)
	shared := addBatchFlags(subprogramCmd)

	// custom flags
	outputPath := subprogramCmd.String("output", "./tmp/reminders.zip", "Where to write the archive")
	manifest := subprogramCmd.Bool("manifest", true, "Add summary.csv to the archive")

	// parse and init config
	xerr.QuitIfError(subprogramCmd.Parse(flags), "Unable to subprogramCmd.Parse")
	initializeConfig(*shared.configPath)

	util.RequiredFlag(shared.input, "input")
	util.EnsureFlags()

	prepared := prepareBatch(context.Background(), shared, sendGridCatalog())

	drafts := reminder.Drafts(prepared.portfolio, prepared.customers, prepared.policy)
	for _, draft := range drafts {
		if draft.Payload == nil {
			tl.Log(tl.Info1, palette.Yellow, "Skipping '%s': %s", draft.Customer, draft.Reason)
		}
	}

	archive, e := export.Archive(reminder.Payloads(drafts), prepared.policy, prepared.from, prepared.now, prepared.attachments, *manifest)
	e.QuitIf("error")
	e = export.WriteArchive(*outputPath, archive)
	e.QuitIf("error")
}

// List the templates an operator can pick with --template.
func templates(subprogram string, flags []string) {
	// common flags
	subprogramCmd := flag.NewFlagSet(subprogram, flag.ExitOnError)
	configPath := subprogramCmd.String("config", "./cfg/config.json", "Path to your configuration file.")

	// parse and init config
	xerr.QuitIfError(subprogramCmd.Parse(flags), "Unable to subprogramCmd.Parse")
	initializeConfig(*configPath)

	ctx, cancel := context.WithTimeout(context.Background(), email.RequestTimeout())
	defer cancel()

	for _, template := range reminder.ResolveTemplates(ctx, sendGridCatalog()) {
		kind := "sendgrid"
		if template.Builtin {
			kind = "built-in"
		}
		tl.Log(tl.Notice, palette.Cyan, "%s  %s  (%s) subject context: '%s'", template.ID, template.Label, kind, template.SubjectContext)
	}
}

func main() {
	// Check if there are enough arguments
	if len(os.Args) < 2 {
		tl.Log(tl.Error, palette.Red, "Usage: %s", "go run src/cmd/send-email/main.go subprogram_name(test-provider, remind, export or templates)")
		os.Exit(1)
	}
	subprogram := os.Args[1]
	flags := os.Args[2:]

	// Switch subprogram based on the first argument
	switch subprogram {
	case "test-provider":
		testProvider(subprogram, flags)
	case "remind":
		remind(subprogram, flags)
	case "export":
		exportReminders(subprogram, flags)
	case "templates":
		templates(subprogram, flags)
	default:
		tl.Log(tl.Error, palette.Red, "Unknown subprogram: %s", subprogram)
		os.Exit(1)
	}
}
