package command

import (
	commandHandler "inspector/internal/command/handler"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/spf13/cobra"
)

var ProviderSet = wire.NewSet(NewCommand, NewHttpClient, commandHandler.NewTailHandler)

type Command struct {
	tailCommandHandler *commandHandler.TailHandler
}

// NewCommand .
func NewCommand(
	tailCommandHandler *commandHandler.TailHandler,
) *Command {
	return &Command{
		tailCommandHandler: tailCommandHandler,
	}
}

// NewHttpClient stream 是長連線，只限制建立連線與等待 header 的時間
func NewHttpClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = 10 * time.Second
	return &http.Client{Transport: transport}
}

func Register(rootCmd *cobra.Command, newCmd func() (*Command, func(), error)) {
	tailCmd := &cobra.Command{
		Use:   "tail",
		Short: "Follow the request stream of a running inspector",
		RunE: func(cmd *cobra.Command, args []string) error {
			command, cleanup, err := newCmd()
			if err != nil {
				return err
			}
			defer cleanup()

			return command.tailCommandHandler.Tail(cmd, args)
		},
	}
	commandHandler.BindTailFlags(tailCmd)
	rootCmd.AddCommand(tailCmd)
}
