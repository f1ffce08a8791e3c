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
	"github.com/chunga-ict/instancectl/kernel/engine"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(NewRenameCommand())
}

func NewRenameCommand() *cobra.Command {
	renameCmd := &RenameCommand{}

	return &cobra.Command{
		Use:   "rename <instanceId> <name>",
		Short: "Rename an instance",
		Args:  cobra.ExactArgs(2),
		RunE:  renameCmd.rename,
	}
}

type RenameCommand struct{}

func (r *RenameCommand) rename(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	c, err := newController(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.RequestRename(cmd.Context(), args[0], args[1]); err != nil {
		var validation *engine.ValidationError
		if errors.As(err, &validation) {
			logrus.Warnf("name left as '%s'", validation.Revert)
		}
		return err
	}
	logrus.Infof("instance [%s] renamed", args[0])
	return nil
}
