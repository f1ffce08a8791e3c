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
	"github.com/chunga-ict/instancectl/kernel/client"
	"github.com/chunga-ict/instancectl/kernel/engine"
	"github.com/chunga-ict/instancectl/kernel/mcp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(NewMCPServerCommand())
}

func NewMCPServerCommand() *cobra.Command {
	mcpCmd := &MCPServerCommand{}

	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Start MCP server for AI-driven instance management",
		Long: `Start an MCP (Model Context Protocol) server that exposes instance
lifecycle management to AI assistants.

The server provides tools for:
  - list_instances: List instances with durable and displayed status
  - get_instance: Get details of a specific instance
  - pause_instance, resume_instance, delete_instance: Request lifecycle actions
  - rename_instance: Rename an instance

And resources:
  - instances://status: Load state, last error and every instance`,
		Args: cobra.NoArgs,
		RunE: mcpCmd.run,
	}

	return cmd
}

type MCPServerCommand struct{}

func (m *MCPServerCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	c := engine.NewController(cfg, client.NewHttpClient(cfg))
	defer c.Close()
	c.Start()

	logrus.Info("starting MCP server on stdio...")
	server := mcp.NewInstanceMCPServer(c)
	return server.ServeStdio()
}
