/*
	(c) Copyright NetFoundry Inc. Inc.

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

	https://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package subcmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chunga-ict/instancectl/kernel/client"
	"github.com/chunga-ict/instancectl/kernel/engine"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func init() {
	RootCmd.AddCommand(NewWatchCommand())
}

func NewWatchCommand() *cobra.Command {
	watchCmd := &WatchCommand{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the instance list fresh and redraw it until interrupted",
		Args:  cobra.NoArgs,
		RunE:  watchCmd.watch,
	}

	cmd.Flags().DurationVar(&watchCmd.Interval, "interval", 2*time.Second, "redraw interval")

	return cmd
}

type WatchCommand struct {
	Interval time.Duration
}

func (w *WatchCommand) watch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := engine.NewController(cfg, client.NewHttpClient(cfg))
	defer c.Close()
	c.Start()

	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		w.draw(cmd, c, cfg.UserId, interactive)
		select {
		case <-ctx.Done():
			logrus.Info("watch stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WatchCommand) draw(cmd *cobra.Command, c *engine.Controller, userId string, interactive bool) {
	out := cmd.OutOrStdout()
	if interactive {
		fmt.Fprint(out, "\033[H\033[2J")
	}

	if !c.Loaded() {
		if loadError := c.LoadError(); loadError != "" {
			fmt.Fprintln(out, loadError)
		} else {
			fmt.Fprintln(out, "loading instances...")
		}
		return
	}

	rows := make([]instanceRow, 0)
	for _, inst := range c.Instances() {
		status, _ := c.DisplayStatus(inst.Id)
		rows = append(rows, newInstanceRow(inst, status, userId))
	}
	renderInstances(out, rows)

	if payload, found := c.LastError(); found {
		fmt.Fprintf(out, "\n%s\n%s\n", payload.Heading, payload.Detail)
	}
	fmt.Fprintf(out, "refreshed %s\n", c.LastRefresh().Format(time.Kitchen))
}

// waitSettled blocks until the instance has no outstanding action and no active poll.
func waitSettled(ctx context.Context, c *engine.Controller, instanceId string) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		_, busy := c.Action(instanceId)
		if !busy && !c.IsPolling(instanceId) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
