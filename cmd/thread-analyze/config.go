package main

import "errors"

type Config struct {
	InPath string
	OutDir string
	Model  string
	APIKey string

	// Print echoes each analysis to stdout in addition to writing it next to
	// the thread file.
	Print bool
}

func (c Config) Validate() error {
	if c.InPath == "" {
		return errors.New("missing -in")
	}
	if c.Model == "" {
		return errors.New("missing -model")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		InPath: "debate_chains",
		Model:  "gpt-4o",
		Print:  true,
	}
}
