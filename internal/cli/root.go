// Package cli implements dashctl, the operator command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/notsoai/dashboard/internal/config"
	"github.com/notsoai/dashboard/internal/db"
	"github.com/notsoai/dashboard/internal/store"
)

// Env is what commands need from the outside world.
type Env struct {
	Config    config.Config
	OpenStore func() (store.Store, error)
}

// DefaultEnv loads configuration from the environment and opens the
// configured database on demand.
func DefaultEnv() (Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return Env{}, err
	}
	return Env{
		Config: cfg,
		OpenStore: func() (store.Store, error) {
			if cfg.DB.Driver == "mock" {
				return nil, fmt.Errorf("DB_DRIVER=mock has no persistent storage")
			}
			gdb, err := db.Connect(cfg.DB.Driver, cfg.DB.DSN)
			if err != nil {
				return nil, err
			}
			return store.NewRepo(gdb), nil
		},
	}, nil
}

func NewRootCmd(env Env) *cobra.Command {
	root := &cobra.Command{
		Use:           "dashctl",
		Short:         "Administer the NotSoAI dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newClientCmd(env), newUserCmd(env), newTokenCmd(env))
	return root
}
