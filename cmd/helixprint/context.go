package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"helixprint/internal/api"
	"helixprint/internal/config"
)

type commandContext struct {
	apiFlag    *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(apiFlag, configFlag *string) *commandContext {
	return &commandContext{
		apiFlag:    apiFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) apiAddress() string {
	if c.apiFlag != nil {
		if addr := strings.TrimSpace(*c.apiFlag); addr != "" {
			return addr
		}
	}
	cfg, err := c.ensureConfig()
	if err != nil || cfg == nil {
		return ""
	}
	return cfg.Paths.APIBind
}

func (c *commandContext) apiClient() (*api.Client, error) {
	var token string
	if cfg, err := c.ensureConfig(); err == nil && cfg != nil {
		token = cfg.Paths.APIToken
	}
	client, err := api.NewClient(c.apiAddress(), token)
	if err != nil {
		return nil, fmt.Errorf("daemon API: %w", err)
	}
	return client, nil
}

// wrapAPIError adds a start hint when the daemon is unreachable.
func wrapAPIError(err error) error {
	if api.IsAPIUnavailable(err) {
		return fmt.Errorf("connect to daemon: %w; start it with `helixprint serve`", err)
	}
	return err
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
