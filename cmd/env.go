package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/recipe-cli/internal/cache"
	"github.com/sells-group/recipe-cli/internal/config"
	"github.com/sells-group/recipe-cli/internal/extract"
	"github.com/sells-group/recipe-cli/internal/fetcher"
	"github.com/sells-group/recipe-cli/internal/pipeline"
	"github.com/sells-group/recipe-cli/internal/resilience"
	"github.com/sells-group/recipe-cli/internal/store"
	"github.com/sells-group/recipe-cli/pkg/anthropic"
)

// appEnv holds the store, cache and pipeline needed by the extract, cache
// and serve commands.
type appEnv struct {
	Store    store.KV // nil for the "none" driver
	Cache    *cache.Cache
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStoreAndCache opens the durable tier and builds the cache over it.
func initStoreAndCache(ctx context.Context, c *config.Config) (store.KV, *cache.Cache, error) {
	kv, err := store.Open(ctx, store.Config{
		Driver:        c.Store.Driver,
		DatabaseURL:   c.Store.DatabaseURL,
		RedisAddr:     c.Store.RedisAddr,
		RedisPassword: c.Store.RedisPassword,
		RedisDB:       c.Store.RedisDB,
		Pool:          &store.PoolConfig{MaxConns: c.Store.MaxConns, MinConns: c.Store.MinConns},
	})
	if err != nil {
		return nil, nil, eris.Wrap(err, "open store")
	}
	rc := cache.New(kv, cache.Options{
		TTL:       time.Duration(c.Cache.TTLHours) * time.Hour,
		KeyPrefix: c.Cache.KeyPrefix,
	})
	return kv, rc, nil
}

// buildChain assembles the strategy chain. The AI stage is included only
// when a client is given.
func buildChain(c *config.Config, client anthropic.Client) *extract.Chain {
	strategies := []extract.Strategy{
		extract.NewStructured(),
		extract.NewHeuristic(extract.DefaultSelectors()),
	}
	if client != nil {
		strategies = append(strategies, extract.NewAI(client, extract.AIConfig{
			Model:          c.Anthropic.Model,
			MaxTokens:      c.Anthropic.MaxTokens,
			MaxPromptChars: c.Extract.MaxPromptChars,
			Retry:          resilience.FromRetryConfig(c.Retry.MaxAttempts, c.Retry.InitialBackoffMs, c.Retry.MaxBackoffMs),
			Breaker:        resilience.FromCircuitConfig(c.Circuit.FailureThreshold, c.Circuit.ResetTimeoutSecs),
		}))
	}
	return extract.NewChain(strategies...)
}

// newFetcher builds the HTTP page fetcher from config.
func newFetcher(c *config.Config) *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:    c.Fetch.UserAgent,
		Timeout:      time.Duration(c.Fetch.TimeoutSecs) * time.Second,
		MaxRetries:   c.Fetch.MaxRetries,
		MaxBodyBytes: c.Fetch.MaxBodyBytes,
		RatePerHost:  c.Fetch.RatePerHost,
	})
}

// initEnv validates config for mode and wires store, cache, fetcher, chain
// and pipeline. Callers should defer env.Close().
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	kv, rc, err := initStoreAndCache(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var client anthropic.Client
	if cfg.AIEnabled() {
		client = anthropic.NewClient(cfg.Anthropic.Key, time.Duration(cfg.Anthropic.TimeoutSecs)*time.Second)
	} else {
		zap.L().Debug("AI extraction stage disabled")
	}

	chain := buildChain(cfg, client)
	zap.L().Debug("extraction chain ready",
		zap.Strings("strategies", chain.Strategies()),
		zap.String("store", cfg.Store.Driver),
	)

	return &appEnv{
		Store:    kv,
		Cache:    rc,
		Pipeline: pipeline.New(newFetcher(cfg), chain, rc),
	}, nil
}
