package main

import (
	"errors"
	"time"
)

type Config struct {
	AccountsFile  string
	OutDir        string
	AggregatorURL string

	Window         time.Duration
	Timeout        time.Duration
	MaxAttempts    int
	RetryBaseDelay time.Duration

	AggregatorToken string
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
	if c.Window <= 0 {
		return errors.New("window must be > 0")
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be > 0")
	}
	if c.MaxAttempts < 1 {
		return errors.New("max-attempts must be >= 1")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		AccountsFile:   "accounts.txt",
		OutDir:         "debate_chains",
		AggregatorURL:  "https://apis.datura.ai/twitter",
		Window:         10 * time.Minute,
		Timeout:        30 * time.Second,
		MaxAttempts:    4,
		RetryBaseDelay: 60 * time.Second,
	}
}
