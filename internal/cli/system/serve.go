package system

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/julianstephens/chapterly/internal/cli"
	"github.com/julianstephens/chapterly/internal/logger"
	"github.com/julianstephens/chapterly/internal/server"
)

type ServeCmd struct {
	Addr string `help:"Address to listen on." default:"127.0.0.1:8080" env:"CHAPTERLY_ADDR"`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	if err := ctx.LoadStore(); err != nil {
		return err
	}
	srv := server.New(ctx.Store, server.WithDebug(ctx.Debug))

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting API server", "addr", c.Addr, "store", ctx.Store.GetConfigPath())
	return srv.Serve(sigCtx, c.Addr)
}
