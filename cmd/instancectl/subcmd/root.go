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

	"github.com/chunga-ict/instancectl/kernel/client"
	"github.com/chunga-ict/instancectl/kernel/engine"
	"github.com/chunga-ict/instancectl/kernel/loader"
	"github.com/chunga-ict/instancectl/kernel/model"
	"github.com/michaelquigley/pfxlog"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const defaultConfigPath = "instancectl.yml"

var RootCmd = &cobra.Command{
	Use:   "instancectl",
	Short: "Pause, resume, delete and watch remote compute instances",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configureLogging(logLevel)
	},
	SilenceUsage: true,
}

var (
	configPath string
	logLevel   string
)

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to YAML configuration file")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides the configuration)")
}

func Execute() error {
	return RootCmd.Execute()
}

func configureLogging(level string) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	pfxlog.GlobalInit(parsed, pfxlog.DefaultOptions().SetTrimPrefix("github.com/chunga-ict/"))
}

// loadConfig reads the configuration named by --config. The configured log level applies unless
// --log-level was given.
func loadConfig() (*model.Config, error) {
	cfg, err := loader.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel == "" {
		if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
			logrus.SetLevel(level)
		}
	}
	return cfg, nil
}

// newController builds a controller against the configured backend and loads the instance list.
// Callers own the returned controller and must Close it.
func newController(ctx context.Context, cfg *model.Config) (*engine.Controller, error) {
	c := engine.NewController(cfg, client.NewHttpClient(cfg))
	if err := c.Refresh(ctx); err != nil {
		c.Close()
		return nil, errors.Wrap(err, "unable to load instances")
	}
	return c, nil
}

// reportLastError logs the controller's error surface, if anything is on it.
func reportLastError(c *engine.Controller) {
	if payload, found := c.LastError(); found {
		logrus.Errorf("%s: %s", payload.Heading, payload.Detail)
	}
}
