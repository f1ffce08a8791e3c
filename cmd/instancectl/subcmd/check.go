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
	"os"

	"github.com/chunga-ict/instancectl/kernel/loader"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(NewCheckCommand())
}

func NewCheckCommand() *cobra.Command {
	checkCmd := &CheckCommand{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a configuration file without contacting the backend",
		Args:  cobra.NoArgs,
		RunE:  checkCmd.check,
	}

	cmd.Flags().StringVarP(&checkCmd.ConfigPath, "file", "f", "", "path to YAML configuration file (defaults to --config)")
	cmd.Flags().BoolVar(&checkCmd.Strict, "strict", false, "treat warnings as errors")

	return cmd
}

type CheckCommand struct {
	ConfigPath string
	Strict     bool
}

func (c *CheckCommand) check(cmd *cobra.Command, args []string) error {
	path := c.ConfigPath
	if path == "" {
		path = configPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "unable to read config [%s]", path)
	}
	result, err := loader.ValidateConfigBytes(data)
	if err != nil {
		return errors.Wrapf(err, "unable to parse config [%s]", path)
	}

	for _, issue := range result.Errors {
		logrus.Errorf("  %s", issue)
	}
	for _, issue := range result.Warnings {
		logrus.Warnf("  %s", issue)
	}

	if !result.IsValid() {
		return errors.Errorf("config [%s] has %d error(s)", path, len(result.Errors))
	}
	if c.Strict && len(result.Warnings) > 0 {
		return errors.Errorf("config [%s] has %d warning(s)", path, len(result.Warnings))
	}

	cfg, err := loader.ParseConfig(data)
	if err != nil {
		return errors.Wrapf(err, "unable to parse config [%s]", path)
	}
	logrus.Infof("check: config [%s] is valid", path)
	logrus.Infof("  api: %s (premium: %s)", cfg.Api.BaseUrl, cfg.Api.PremiumBaseUrl)
	logrus.Infof("  refresh every %v, poll every %v (premium %v)", cfg.RefreshInterval, cfg.Polling.FastCadence, cfg.Polling.SlowCadence)
	for _, rule := range cfg.Premium {
		logrus.Infof("  premium: framework '%s', gpu '%s'", rule.Framework, rule.GpuType)
	}
	return nil
}
