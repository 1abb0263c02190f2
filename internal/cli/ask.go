package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/raphaelgruber/helpdesk-go/internal/escalation"
	"github.com/spf13/cobra"
)

var (
	askAction bool
	askStrict bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question...>",
	Short: "Ask the assistant a single question",
	Long: `Ask the assistant a single question and print the answer.

The answer is printed with its sources and suggested next steps. When the
assistant recommends escalating, a hint for 'helpdesk ticket' is shown.

Use --action to run a quick action by id instead of asking a question.

Examples:
  helpdesk ask "How do I reset my password?"
  helpdesk ask --action password_reset
  helpdesk ask --strict "VPN keeps dropping"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askAction, "action", false, "treat the argument as a quick action id")
	askCmd.Flags().BoolVar(&askStrict, "strict", false, "exit non-zero when the request fails")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	out := cmd.OutOrStdout()

	ctrl := newController()
	defer ctrl.Close()
	ctrl.Initialize(ctx)

	text := strings.Join(args, " ")
	if askAction {
		ctrl.Settle(ctrl.InvokeQuickAction(text))
	} else {
		ctrl.Settle(ctrl.Send(text))
	}

	st := ctrl.State()
	if last, ok := st.LastMessage(); ok {
		fmt.Fprint(out, formatMessage(last))
	}
	if st.ConversationID != "" {
		fmt.Fprintf(out, "\nConversation: %s\n", st.ConversationID)
	}
	if st.Escalation.Phase == escalation.Prompt {
		fmt.Fprintf(out, "\nNeed more help? Create a ticket:\n  helpdesk ticket --conversation %s --name ... --email ... --description ...\n", st.ConversationID)
	}

	if st.Error != "" && askStrict {
		return errors.New(st.Error)
	}
	return nil
}
