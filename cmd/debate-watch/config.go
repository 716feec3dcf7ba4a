package main

import (
	"errors"
	"time"
)

type Config struct {
	AccountsFile  string
	OutDir        string
	AggregatorURL string
	Model         string

	Window         time.Duration
	Timeout        time.Duration
	MaxAttempts    int
	RetryBaseDelay time.Duration

	Watch    bool
	Interval time.Duration

	AggregatorToken string
	APIKey          string
}

func (c Config) Validate() error {
	if c.AccountsFile == "" {
		return errors.New("missing -accounts")
	}
	if c.OutDir == "" {
		return errors.New("missing -out")
	}
	if c.AggregatorURL == "" {
		return errors.New("missing -aggregator-url")
	}
	if c.Model == "" {
		return errors.New("missing -model")
	}
	if c.Window <= 0 {
		return errors.New("window must be > 0")
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be > 0")
	}
	if c.MaxAttempts < 1 {
		return errors.New("max-attempts must be >= 1")
	}
	if c.Watch && c.Interval <= 0 {
		return errors.New("interval must be > 0 with -watch")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		AccountsFile:   "accounts.txt",
		OutDir:         "debate_chains",
		AggregatorURL:  "https://apis.datura.ai/twitter",
		Model:          "gpt-4o",
		Window:         10 * time.Minute,
		Timeout:        30 * time.Second,
		MaxAttempts:    4,
		RetryBaseDelay: 60 * time.Second,
		Interval:       10 * time.Minute,
	}
}
