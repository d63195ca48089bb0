// Package service is the command-line shell of the client: a cobra command
// tree whose handlers drive the controllers of the app package and render
// their state on the terminal.
package service

import (
	"context"
	"io"

	"github.com/spf13/cobra"
)

// Service encapsulates the command tree, the flags shared by every command
// and the loader that builds the runtime before a command runs.
type Service struct {
	handlers *handlers
	load     Loader
	flags    Flags
	in       io.Reader
	out      io.Writer
}

// NewService creates a Service reading prompts from in and writing output to
// out. load is called once, before the selected command runs.
func NewService(load Loader, in io.Reader, out io.Writer) *Service {
	return &Service{handlers: newHandlers(in, out), load: load, in: in, out: out}
}

// NewRootCommand sets up and returns the root command with every subcommand
// attached. The runtime is loaded in the persistent pre-run hook.
func (service *Service) NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "agromitra",
		Short:         "AI farming assistant: crop advice, calendars, marketplace and admin tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			env, err := service.load(service.flags)
			if err != nil {
				return err
			}
			service.handlers.attach(env, service.flags.Yes)
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetIn(service.in)
	root.SetOut(service.out)
	root.SetErr(service.out)

	pf := root.PersistentFlags()
	pf.StringVar(&service.flags.ConfigFile, "config", "", "config file (default ./agromitra.yaml or ~/.agromitra/agromitra.yaml)")
	pf.StringVar(&service.flags.APIURL, "api-url", "", "backend base URL")
	pf.StringVar(&service.flags.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.BoolVarP(&service.flags.Yes, "yes", "y", false, "answer yes to every confirmation prompt")

	h := service.handlers
	root.AddCommand(
		h.loginCommand(),
		h.registerCommand(),
		h.logoutCommand(),
		h.statusCommand(),
		h.langCommand(),
		h.profileCommand(),
		h.chatCommand(),
		h.cropsCommand(),
		h.recommendCommand(),
		h.pricesCommand(),
		h.weatherCommand(),
		h.voiceCommand(),
		h.browseCommand(),
		h.calendarCommand(),
		h.listingsCommand(),
		h.ordersCommand(),
		h.adminCommand(),
		h.trainingCommand(),
	)
	return root
}

// Execute runs the command selected by args and releases the runtime
// afterwards, whether or not the command failed.
func (service *Service) Execute(ctx context.Context, args []string) error {
	root := service.NewRootCommand()
	root.SetArgs(args)
	defer service.handlers.close()
	return root.ExecuteContext(ctx)
}
