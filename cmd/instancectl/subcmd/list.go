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
	"fmt"
	"io"

	"github.com/chunga-ict/instancectl/kernel/model"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(NewListCommand())
}

func NewListCommand() *cobra.Command {
	listCmd := &ListCommand{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List instances and their status",
		Args:    cobra.NoArgs,
		RunE:    listCmd.list,
	}

	cmd.Flags().BoolVar(&listCmd.TeamOnly, "team", false, "only show instances owned by other team members")

	return cmd
}

type ListCommand struct {
	TeamOnly bool
}

func (l *ListCommand) list(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	c, err := newController(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	rows := make([]instanceRow, 0)
	for _, inst := range c.Instances() {
		if l.TeamOnly && !inst.IsTeamInstance(cfg.UserId) {
			continue
		}
		status, _ := c.DisplayStatus(inst.Id)
		rows = append(rows, newInstanceRow(inst, status, cfg.UserId))
	}
	renderInstances(cmd.OutOrStdout(), rows)
	return nil
}

type instanceRow struct {
	Id        string
	Name      string
	Framework string
	Gpu       string
	Status    model.Status
	Cost      float64
	Team      bool
}

func newInstanceRow(inst *model.Instance, status model.Status, userId string) instanceRow {
	gpu := inst.GpuLabel()
	if inst.NumGpus > 1 {
		gpu = fmt.Sprintf("%d x %s", inst.NumGpus, gpu)
	}
	return instanceRow{
		Id:        inst.Id,
		Name:      inst.Name,
		Framework: inst.Framework,
		Gpu:       gpu,
		Status:    status,
		Cost:      inst.Cost,
		Team:      inst.IsTeamInstance(userId),
	}
}

func renderInstances(out io.Writer, rows []instanceRow) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"ID", "NAME", "FRAMEWORK", "GPU", "STATUS", "COST/HR", "TEAM"})
	for _, r := range rows {
		team := ""
		if r.Team {
			team = "yes"
		}
		t.AppendRow(table.Row{r.Id, r.Name, r.Framework, r.Gpu, r.Status, fmt.Sprintf("%.2f", r.Cost), team})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "", fmt.Sprintf("%d instance(s)", len(rows))})
	t.Render()
}
