// Package serve handles the HTTP API command
package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/cmd/root"
	"github.com/mavkasgit/ExpenseByKiroGemini-sub000/internal/server"

	"github.com/spf13/cobra"
)

var address string

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the import API over HTTP",
	Long: `Serve the import API over HTTP. Clients upload statements, edit the column
mapping, review extracted cities, edit rows and commit them. Idle imports are
dropped after server.session_ttl.`,
	Run: serveFunc,
}

func init() {
	Cmd.Flags().StringVar(&address, "addr", "", "Listen address (overrides server.address)")
}

// NewServer builds the HTTP server from AppContainer.
func NewServer() *server.Server {
	cfg := root.AppContainer.GetConfig()
	return server.New(
		root.AppContainer.GetManager(),
		root.AppContainer.GetStore(),
		root.AppContainer.GetMappingStore(),
		server.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			SessionTTL:     cfg.Server.SessionTTL,
			MaxUploadBytes: cfg.Server.MaxUploadBytes,
			ParseOptions:   root.AppContainer.ParseOptions(),
			Delimiter:      cfg.Delimiter(),
		},
		root.Log,
	)
}

func serveFunc(cmd *cobra.Command, args []string) {
	if root.AppContainer == nil {
		root.Log.Fatal("Application container not initialized")
		return
	}

	addr := address
	if addr == "" {
		addr = root.AppContainer.GetConfig().Server.Address
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewServer().Run(ctx, addr); err != nil {
		root.Log.Fatalf("Server error: %v", err)
	}
}
