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
	"encoding/json"
	"fmt"

	"github.com/chunga-ict/instancectl/kernel/engine"
	"github.com/oliveagle/jsonpath"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(NewGetCommand())
}

func NewGetCommand() *cobra.Command {
	getCmd := &GetCommand{}

	cmd := &cobra.Command{
		Use:   "get <instanceId>",
		Short: "Print one instance as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  getCmd.get,
	}

	cmd.Flags().StringVarP(&getCmd.Path, "path", "p", "", "JSONPath expression selecting part of the instance (e.g. $.status)")

	return cmd
}

type GetCommand struct {
	Path string
}

func (g *GetCommand) get(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	c, err := newController(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	out, err := g.describe(c, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func (g *GetCommand) describe(c *engine.Controller, instanceId string) ([]byte, error) {
	inst, found := c.Instance(instanceId)
	if !found {
		return nil, errors.Wrapf(engine.ErrUnknownInstance, "instance [%s]", instanceId)
	}

	data, err := json.Marshal(inst)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode instance")
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to decode instance")
	}
	if status, found := c.DisplayStatus(instanceId); found {
		doc["display_status"] = status
	}
	doc["polling"] = c.IsPolling(instanceId)
	doc["gpu"] = inst.GpuLabel()

	if g.Path == "" {
		return json.MarshalIndent(doc, "", "  ")
	}
	selected, err := jsonpath.JsonPathLookup(doc, g.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to evaluate '%s'", g.Path)
	}
	if s, ok := selected.(string); ok {
		return []byte(s), nil
	}
	return json.Marshal(selected)
}
