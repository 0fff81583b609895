package main

import (
	"log"

	"github.com/joho/godotenv"

	"webproof-redaction/redaction"
)

// Config is the process configuration of redactctl.
type Config struct {
	Options redaction.Options
}

// LoadConfig reads the environment, first loading envFile when it exists.
func LoadConfig(envFile string) (*Config, error) {
	if err := godotenv.Load(envFile); err != nil {
		log.Printf("Warning: no env file loaded from %s: %v", envFile, err)
	}
	opts, err := redaction.OptionsFromEnv()
	if err != nil {
		return nil, err
	}
	return &Config{Options: opts}, nil
}
