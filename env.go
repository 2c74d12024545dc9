// FILE: env.go
// Package main – Environment helpers for the trading bot.
//
// This file provides:
//   1) Small helpers to read environment variables with sane defaults
//      (strings, ints, floats).
//   2) loadBotEnv(), which hydrates the process env from a .env file via
//      godotenv. Existing process variables always win; the file only fills
//      gaps, so `export FOO=...` keeps working for ad-hoc overrides.
//
// Exchange credentials (OKX_API_KEY / OKX_SECRET_KEY / OKX_PASSPHRASE) are
// consumed by the OKX gateway, not here.

package main

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// --------- Env helpers (used across files) ---------

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// --------- .env loader ---------

// loadBotEnv reads BOT_ENV_FILE (default ".env") into the process env.
// godotenv.Load never overrides variables already set in the environment.
func loadBotEnv() {
	path := getEnv("BOT_ENV_FILE", ".env")
	if err := godotenv.Load(path); err != nil {
		log.Printf("env: %s not found, relying on process env", path)
		return
	}
	log.Printf("env: loaded %s", path)
}
