package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/danmuck/mcserve/internal/client"
	"github.com/danmuck/mcserve/internal/config"
	"github.com/danmuck/mcserve/internal/logging"
	"github.com/danmuck/mcserve/internal/protocol/packet"
	"github.com/danmuck/mcserve/internal/server"
)

// Set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "mcserve",
		Short:         "Minecraft Java Edition 1.18.2 login server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		serveCmd(),
		configCmd(),
		probeCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "mcserve: %v\n", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept game connections until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.ConfigureRuntime()

			cfg, err := loadServiceConfig(path)
			if err != nil {
				return err
			}
			svc, err := server.NewService(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := svc.Run(ctx); err != nil {
				return err
			}
			log.Info().Msg("shutdown complete")
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "config", "c", "", "server config file (defaults when empty)")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Write or check config files",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init <server|world> <path>",
		Short: "Write a starter config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteTemplate(args[1], args[0], force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s config to %s\n", args[0], args[1])
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	validateCmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Load a server config and its world description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if _, err := buildWorld(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "validated %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(initCmd, validateCmd)
	return cmd
}

func probeCmd() *cobra.Command {
	cfg := client.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "probe <host:port>",
		Short: "Log in to a server and print what it negotiated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.ConfigureRuntime()
			cfg.Address = args[0]
			c, err := client.New(cfg)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			s, err := c.Login(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "username:    %s\n", s.Username)
			fmt.Fprintf(out, "uuid:        %s\n", s.UUID)
			fmt.Fprintf(out, "encrypted:   %t\n", s.Encrypted)
			fmt.Fprintf(out, "compression: %d\n", s.CompressionThreshold)
			fmt.Fprintf(out, "entity id:   %d\n", s.JoinGame.EntityID)
			fmt.Fprintf(out, "game mode:   %s\n", s.JoinGame.GameMode)
			fmt.Fprintf(out, "world:       %s\n", s.JoinGame.WorldName)
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfg.Username, "username", "u", "probe", "login name")
	cmd.Flags().DurationVar(&cfg.IOTimeout, "timeout", 10*time.Second, "login exchange timeout")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mcserve %s (%s)\n", version, commit)
			fmt.Fprintf(out, "  protocol:   %d (1.18.2)\n", packet.ProtocolVersion)
			fmt.Fprintf(out, "  go version: %s\n", runtime.Version())
		},
	}
}
