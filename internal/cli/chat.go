package cli

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/raphaelgruber/helpdesk-go/internal/session"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat with the helpdesk assistant",
	Long: `Start an interactive chat with the helpdesk assistant.

On a terminal this opens a full-screen chat. When input is piped, a line
mode reads one message per line; slash commands such as /actions, /ticket
and /clear work in both.

Examples:
  helpdesk chat
  echo "My VPN keeps disconnecting" | helpdesk chat`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ctrl := newController()
	defer ctrl.Close()
	ctrl.Initialize(ctx)

	if usesTUI(cmd) {
		return runChatUI(ctx, ctrl, cfg.ProbeInterval)
	}

	probes := make(chan session.Event)
	go pollConnectivity(ctx, cfg.ProbeInterval, ctrl.Reprobe, probes)
	return runREPL(ctx, ctrl, cmd.InOrStdin(), cmd.OutOrStdout(), collector.Snapshot, probes)
}

// pollConnectivity issues a re-probe every interval and delivers each
// result on out until ctx is done. A non-positive interval disables it.
func pollConnectivity(ctx context.Context, interval time.Duration, reprobe func() session.Effect, out chan<- session.Event) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ev := reprobe()()
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}
