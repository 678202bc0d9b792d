package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"

	"productdesk/internal/config"
	"productdesk/internal/controller"
	"productdesk/internal/form"
	"productdesk/internal/grid"
	"productdesk/internal/logger"
	"productdesk/internal/proxy"
	"productdesk/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// options are the flags shared by every command.
type options struct {
	apiURL string
}

// session is one connected front-end: a loaded store behind a controller.
type session struct {
	ctrl   *controller.Controller
	logger *zap.Logger
	in     *bufio.Reader
	out    io.Writer
}

func openSession(ctx context.Context, opts *options, in *bufio.Reader, out, errOut io.Writer, confirmer controller.Confirmer) (*session, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, err
	}
	if opts.apiURL != "" {
		cfg.APIURL = opts.apiURL
	}

	logCfg := logger.ConfigForEnvironment(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat)
	logCfg.Output = "stderr"
	appLogger := logger.New(logCfg)

	p, err := proxy.New(proxy.Config{URL: cfg.APIURL, Timeout: cfg.RequestTimeout}, appLogger)
	if err != nil {
		return nil, err
	}
	s := store.New(p, appLogger)
	if confirmer == nil {
		confirmer = terminalConfirmer{in: in, out: out}
	}
	ctrl := controller.New(s, terminalNotifier{out: errOut}, confirmer, appLogger)

	if err := ctrl.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("loading products from %s: %w", cfg.APIURL, err)
	}
	return &session{ctrl: ctrl, logger: appLogger, in: in, out: out}, nil
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	in := bufio.NewReader(stdin)

	root := &cobra.Command{
		Use:           "productctl",
		Short:         "Manage the product catalog",
		Long:          "productctl lists, adds, edits and deletes products through the product REST API.\nWithout a subcommand it starts an interactive session.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), opts, in, stdout, stderr, nil)
			if err != nil {
				return err
			}
			defer s.logger.Sync()
			return s.runShell(cmd.Context())
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "product collection endpoint (overrides API_URL)")

	root.AddCommand(
		newListCommand(opts, in, stdout, stderr),
		newAddCommand(opts, in, stdout, stderr),
		newEditCommand(opts, in, stdout, stderr),
		newDeleteCommand(opts, in, stdout, stderr),
	)
	return root
}

func newListCommand(opts *options, in *bufio.Reader, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show every product",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), opts, in, stdout, stderr, nil)
			if err != nil {
				return err
			}
			return grid.Render(stdout, s.ctrl.Records())
		},
	}
}

// fieldFlags binds one string flag per form field.
type fieldFlags map[string]*string

func bindFieldFlags(cmd *cobra.Command) fieldFlags {
	flags := fieldFlags{}
	for _, name := range form.Fields() {
		flags[name] = cmd.Flags().String(name, "", "product "+name)
	}
	return flags
}

// apply copies the flags the user set onto f.
func (ff fieldFlags) apply(cmd *cobra.Command, f *form.Form) error {
	for _, name := range form.Fields() {
		if cmd.Flags().Changed(name) {
			if err := f.SetField(name, *ff[name]); err != nil {
				return err
			}
		}
	}
	return nil
}

func newAddCommand(opts *options, in *bufio.Reader, stdout, stderr io.Writer) *cobra.Command {
	var flags fieldFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), opts, in, stdout, stderr, nil)
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, s.ctrl.Add()); err != nil {
				return err
			}
			return s.save(cmd.Context())
		},
	}
	flags = bindFieldFlags(cmd)
	return cmd
}

func newEditCommand(opts *options, in *bufio.Reader, stdout, stderr io.Writer) *cobra.Command {
	var flags fieldFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the fields given as flags on an existing product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := openSession(cmd.Context(), opts, in, stdout, stderr, nil)
			if err != nil {
				return err
			}
			f, err := s.ctrl.EditByID(id)
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, f); err != nil {
				return err
			}
			return s.save(cmd.Context())
		},
	}
	flags = bindFieldFlags(cmd)
	return cmd
}

func newDeleteCommand(opts *options, in *bufio.Reader, stdout, stderr io.Writer) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var confirmer controller.Confirmer
			if yes {
				confirmer = autoConfirmer{}
			}
			s, err := openSession(cmd.Context(), opts, in, stdout, stderr, confirmer)
			if err != nil {
				return err
			}
			_, err = s.ctrl.DeleteByID(cmd.Context(), id)
			return err
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// save saves the open form and prints the field errors when it does not validate.
func (s *session) save(ctx context.Context) error {
	err := s.ctrl.Save(ctx)
	if f := s.ctrl.Form(); f != nil {
		errs := f.Validate()
		for _, name := range form.Fields() {
			if msg, ok := errs[name]; ok {
				fmt.Fprintf(s.out, "  %s: %s\n", name, msg)
			}
		}
	}
	return err
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product id %q", arg)
	}
	return id, nil
}
