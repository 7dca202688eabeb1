package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wudai/relgraph/internal/admin"
	"github.com/wudai/relgraph/internal/config"
	"github.com/wudai/relgraph/internal/filter"
	"github.com/wudai/relgraph/internal/identity"
	"github.com/wudai/relgraph/internal/ratelimit"
	"github.com/wudai/relgraph/internal/store"
	"github.com/wudai/relgraph/internal/store/local"
	"github.com/wudai/relgraph/internal/store/remote"
)

var (
	brand  = color.New(color.FgHiGreen, color.Bold)
	subtle = color.New(color.FgHiBlack)
	good   = color.New(color.FgGreen)
	bad    = color.New(color.FgRed)
	accent = color.New(color.FgCyan)
)

// app wires one CLI invocation: config, identity, the chosen store backend
// and the matching admin authorizer.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	clientID string

	store  store.Store
	remote bool

	// local mode
	kv        *local.KV
	localAuth *admin.LocalAuthorizer

	// remote mode
	client     *remote.Client
	remoteAuth *admin.KeyAuthorizer
}

func openApp(cmd *cobra.Command) (*app, error) {
	flags := cmd.Flags()

	cfgPath, _ := flags.GetString("config")
	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		return nil, err
	}

	verbose, _ := flags.GetBool("verbose")
	log := zap.NewNop()
	if verbose {
		log, err = zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
	}

	dataDir, _ := flags.GetString("data-dir")
	if dataDir == "" {
		dataDir = cfg.Storage.DataDir
	}
	if dataDir == "" {
		dataDir, err = identity.DefaultDataDir()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	clientID, err := identity.NewProvider(dataDir).ClientID()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, clientID: clientID}

	useRemote, _ := flags.GetBool("remote")
	if useRemote {
		if err := a.openRemote(cmd, dataDir); err != nil {
			return nil, err
		}
	} else {
		if err := a.openLocal(cmd, dataDir); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *app) openLocal(cmd *cobra.Command, dataDir string) error {
	kv, err := local.OpenKV(a.cfg.Storage.DBPath(dataDir))
	if err != nil {
		return err
	}
	a.kv = kv
	a.localAuth = admin.NewLocalAuthorizer(kv)

	if password, _ := cmd.Flags().GetString("admin-password"); password != "" {
		firstTime, err := a.localAuth.Login(password)
		if err != nil {
			kv.Close()
			return err
		}
		if firstTime {
			good.Fprintln(os.Stderr, "管理员密码已设置")
		}
	}

	rl := a.cfg.RateLimit
	limiter := ratelimit.New(ratelimit.Config{
		MaxActions:      rl.MaxActions,
		Window:          time.Duration(rl.WindowSeconds) * time.Second,
		Cooldown:        time.Duration(rl.CooldownSeconds) * time.Second,
		MaxDeletes:      rl.MaxDeletes,
		DeleteWindow:    time.Duration(rl.DeleteWindowSeconds) * time.Second,
		MaxTotalDeletes: rl.MaxTotalDeletes,
	}, local.DeleteCounters{KV: kv})

	st, err := local.Open(kv, local.Options{
		ClientID: a.clientID,
		Limiter:  limiter,
		Filter:   filter.New(a.cfg.Content.BannedTerms),
		Auth:     a.localAuth,
		Logger:   a.log,
	})
	if err != nil {
		kv.Close()
		return err
	}
	a.store = st
	return nil
}

func (a *app) openRemote(cmd *cobra.Command, dataDir string) error {
	baseURL, _ := cmd.Flags().GetString("api-base")
	if baseURL == "" {
		baseURL = a.cfg.Remote.BaseURL
	}
	if baseURL == "" {
		return fmt.Errorf("no backend configured: set --api-base, WUDAI_API_BASE or remote.base_url")
	}

	// The admin key cache shares the local kv file.
	kv, err := local.OpenKV(a.cfg.Storage.DBPath(dataDir))
	if err != nil {
		return err
	}
	a.kv = kv
	a.remote = true

	a.client = remote.NewClient(baseURL, a.clientID)
	auth, err := admin.NewKeyAuthorizer(a.client, kv)
	if err != nil {
		kv.Close()
		return err
	}
	a.remoteAuth = auth
	a.client.AdminKey = auth.Key

	if key, _ := cmd.Flags().GetString("admin-key"); key != "" {
		if err := auth.Verify(context.Background(), key); err != nil {
			kv.Close()
			return err
		}
	}

	st := remote.New(a.client, a.log)
	if err := st.Refresh(context.Background()); err != nil {
		kv.Close()
		return err
	}
	a.store = st
	return nil
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
	// remote mode closes the kv separately, the store doesn't own it
	if a.remote && a.kv != nil {
		a.kv.Close()
	}
}

// relTime renders a millisecond timestamp the way the board did: recent
// things relative, older things as a plain date.
func relTime(ms int64, now time.Time) string {
	d := now.Sub(time.UnixMilli(ms))
	switch {
	case d < time.Minute:
		return "刚刚"
	case d < time.Hour:
		return fmt.Sprintf("%d分钟前", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d小时前", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%d天前", int(d.Hours()/24))
	default:
		return time.UnixMilli(ms).Format("2006-01-02")
	}
}

