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
	"sync"

	"github.com/chunga-ict/instancectl/kernel/engine"
	"github.com/chunga-ict/instancectl/kernel/model"
	"github.com/openziti/foundation/v2/errorz"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func init() {
	RootCmd.AddCommand(NewActionCommand(model.ActionPause))
	RootCmd.AddCommand(NewActionCommand(model.ActionResume))
	RootCmd.AddCommand(NewActionCommand(model.ActionDelete))
}

var actionShort = map[model.Action]string{
	model.ActionPause:  "Pause running instances",
	model.ActionResume: "Resume paused instances",
	model.ActionDelete: "Destroy instances",
}

func NewActionCommand(action model.Action) *cobra.Command {
	actionCmd := &ActionCommand{Action: action}

	cmd := &cobra.Command{
		Use:   string(action) + " <instanceId>...",
		Short: actionShort[action],
		Args:  cobra.MinimumNArgs(1),
		RunE:  actionCmd.run,
	}

	if action == model.ActionResume {
		cmd.Flags().BoolVarP(&actionCmd.Wait, "wait", "w", false, "wait until resumed instances settle")
	}

	return cmd
}

type ActionCommand struct {
	Action model.Action
	Wait   bool
}

func (a *ActionCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	c, err := newController(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	return a.apply(cmd.Context(), c, args)
}

// apply requests the action for every id concurrently and reports every failure. A failing id
// does not cancel its siblings.
func (a *ActionCommand) apply(ctx context.Context, c *engine.Controller, instanceIds []string) error {
	var mu sync.Mutex
	var failures errorz.MultipleErrors

	var g errgroup.Group
	for _, instanceId := range instanceIds {
		g.Go(func() error {
			if err := a.request(ctx, c, instanceId); err != nil {
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
				return nil
			}
			logrus.Infof("%s of instance [%s] complete", a.Action, instanceId)
			return nil
		})
	}
	_ = g.Wait()

	reportLastError(c)
	switch len(failures) {
	case 0:
		return nil
	case 1:
		return failures[0]
	}
	return failures
}

func (a *ActionCommand) request(ctx context.Context, c *engine.Controller, instanceId string) error {
	switch a.Action {
	case model.ActionPause:
		return c.RequestPause(ctx, instanceId)
	case model.ActionDelete:
		return c.RequestDelete(ctx, instanceId)
	case model.ActionResume:
		if err := c.RequestResume(ctx, instanceId); err != nil {
			return err
		}
		if !a.Wait {
			return nil
		}
		if err := waitSettled(ctx, c, instanceId); err != nil {
			return err
		}
		if payload, found := c.LastError(); found && payload.InstanceId == instanceId {
			return errors.Errorf("instance [%s] failed to resume: %s", instanceId, payload.Detail)
		}
		return nil
	}
	return errors.Errorf("unsupported action '%s'", a.Action)
}
