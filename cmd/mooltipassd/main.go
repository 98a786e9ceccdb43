// mooltipassd emulates the credential vault device over a TCP host
// channel: an in-memory flash and parameter store behind the real
// command dispatcher, for host-application development and testing.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/BioHaZard1/mooltipass/lib/bridge"
	"github.com/BioHaZard1/mooltipass/lib/handler"
	"github.com/BioHaZard1/mooltipass/lib/session"
	"github.com/BioHaZard1/mooltipass/lib/storage"
	"github.com/BioHaZard1/mooltipass/lib/vault"
)

const version = "v1.0"

var (
	configPath string
	listenAddr string
	logLevel   string
	devMode    bool
)

func main() {
	root := &cobra.Command{
		Use:   "mooltipassd",
		Short: "Credential vault device emulator",
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the vault and its host channel",
		RunE:  runServe,
	}
	serve.Flags().StringVarP(&configPath, "config", "c", "", "config file path")
	serve.Flags().StringVarP(&listenAddr, "listen", "l", "", "host channel listen address")
	serve.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	serve.Flags().BoolVar(&devMode, "dev", false, "skip media import approval (factory channel)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("mooltipassd", version)
		},
	}

	root.AddCommand(serve, versionCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	log.SetLevel(level)

	cfg, err := bridge.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}

	flash := storage.NewMemFlash()
	arena := &storage.Arena{}
	store, err := vault.NewStore(flash, vault.NewMemProfileStore())
	if err != nil {
		return err
	}

	// the emulator runs with a permanently inserted, unlocked card
	auth := &session.FakeAuth{Present: true, IsUnlocked: true, UID: 1, ReauthResult: true}
	sess := session.New()
	sess.Unlock(auth.UserID())

	ctx := &handler.Context{
		Session:  sess,
		Store:    store,
		Flash:    flash,
		Writer:   storage.NewNodeWriter(flash, arena),
		Importer: storage.NewMediaImporter(flash, arena),
		Auth:     auth,
		UI:       &session.AutoConfirmUI{Accept: true},
		Params:   session.NewMemParams(),
		Rand:     session.CryptoRand{},
		Log:      log,
		Version:  version,
		DevMode:  devMode,
	}

	srv, err := bridge.NewServer(cfg, handler.NewDispatcher(ctx), log)
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.WithField("signal", sig.String()).Info("Shutting down")
		srv.Stop()
	}()

	log.WithFields(logrus.Fields{
		"listen":  cfg.ListenAddr,
		"dev":     devMode,
		"version": version,
	}).Info("Starting mooltipassd")

	return srv.Start()
}
