package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-client/internal/app"
	"github.com/vovakirdan/wirechat-client/internal/config"
	"github.com/vovakirdan/wirechat-client/internal/log"
)

type rootFlags struct {
	configPath string
	serverURL  string
	socketURL  string
	dbPath     string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:          "wirechat-client",
		Short:        "Chat with your friends from the terminal",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd.Context(), flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "path to config file")
	pf.StringVar(&flags.serverURL, "server", "", "chat API base URL")
	pf.StringVar(&flags.socketURL, "socket", "", "event channel WebSocket URL")
	pf.StringVar(&flags.dbPath, "db", "", "session database path")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(newLoginCmd(flags), newSignupCmd(flags), newLogoutCmd(flags))
	return root
}

func newLoginCmd(flags *rootFlags) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(flags)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := promptIfEmpty(&email, "Email: "); err != nil {
				return err
			}
			if err := promptIfEmpty(&password, "Password: "); err != nil {
				return err
			}

			user, err := a.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Printf("Logged in as %s.\n", user.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newSignupCmd(flags *rootFlags) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and save its session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(flags)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := promptIfEmpty(&name, "Name: "); err != nil {
				return err
			}
			if err := promptIfEmpty(&email, "Email: "); err != nil {
				return err
			}
			if err := promptIfEmpty(&password, "Password: "); err != nil {
				return err
			}

			user, err := a.Signup(cmd.Context(), name, email, password)
			if err != nil {
				return err
			}
			fmt.Printf("Welcome, %s.\n", user.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newLogoutCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(flags)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func buildApp(flags *rootFlags) (*app.App, error) {
	bootLogger := log.New("warn", nil)

	cfg, _, err := config.Load(bootLogger, flags.configPath)
	if err != nil {
		return nil, err
	}
	cfg.UpdateFrom(config.Config{
		ServerURL:    flags.serverURL,
		SocketURL:    flags.socketURL,
		DatabasePath: flags.dbPath,
		LogLevel:     flags.logLevel,
	})

	return app.New(cfg, log.New(cfg.LogLevel, nil))
}

func runChat(ctx context.Context, flags *rootFlags) error {
	a, err := buildApp(flags)
	if err != nil {
		return err
	}
	defer a.Close()

	user, ok := a.Restore(ctx)
	if !ok {
		return fmt.Errorf("no saved session; run `wirechat-client login` first")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Connect(ctx); err != nil {
		return err
	}

	fmt.Printf("Connected as %s. Type /help for commands.\n", user.Name)
	runShell(ctx, stop, a)

	return a.Err()
}

func promptIfEmpty(value *string, prompt string) error {
	if *value != "" {
		return nil
	}
	fmt.Print(prompt)

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return err
	}
	*value = strings.TrimSpace(line)
	return nil
}
