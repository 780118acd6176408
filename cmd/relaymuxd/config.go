package main

import (
	"time"

	"github.com/spf13/viper"
)

// demoConfig is the cmd/relaymuxd harness's own file/env configuration,
// grounded on webitel-im-delivery-service's config.LoadConfig() + spf13/viper
// pattern (cmd/cmd.go loads a Config before constructing its App). This is
// demo/harness configuration, distinct from relaymux.Config (the protocol
// deadlines), though it feeds AckDeadline/SilentDeadline into one.
type demoConfig struct {
	ListenAddr   string        `mapstructure:"listen_addr"`
	DialURL      string        `mapstructure:"dial_url"`
	AckDeadline  time.Duration `mapstructure:"ack_deadline"`
	SilentWindow time.Duration `mapstructure:"silent_window"`
}

func defaultDemoConfig() *demoConfig {
	return &demoConfig{
		ListenAddr:   ":8787",
		DialURL:      "ws://127.0.0.1:8787/relaymux",
		AckDeadline:  5 * time.Second,
		SilentWindow: 30 * time.Second,
	}
}

// loadDemoConfig reads an optional config file plus RELAYMUXD_-prefixed
// environment overrides, the same file+env blend
// webitel-im-delivery-service's LoadConfig establishes for its own service.
func loadDemoConfig(configFile string) (*demoConfig, error) {
	cfg := defaultDemoConfig()

	v := viper.New()
	v.SetEnvPrefix("relaymuxd")
	v.AutomaticEnv()
	v.SetDefault("listen_addr", cfg.ListenAddr)
	v.SetDefault("dial_url", cfg.DialURL)
	v.SetDefault("ack_deadline", cfg.AckDeadline)
	v.SetDefault("silent_window", cfg.SilentWindow)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	out := &demoConfig{}
	if err := v.Unmarshal(out); err != nil {
		return nil, err
	}
	return out, nil
}
