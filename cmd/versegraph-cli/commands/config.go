package commands

import (
	"context"

	"versegraph/lib/configutil"
	"versegraph/lib/graphstore"
	"versegraph/lib/scrapers/reddit"
	"versegraph/lib/scrapers/spotify"
	"versegraph/lib/serviceutil"
	"versegraph/services/enrichment/cache"
	"versegraph/services/taxonomy"
)

type Config struct {
	Neo4j   graphstore.Config     `json:"neo4j"`
	Spotify spotify.ClientOptions `json:"spotify"`
	Reddit  reddit.ClientOptions  `json:"reddit"`
	// CachePath is the audio feature cache sqlite file; empty disables
	// caching.
	CachePath string `json:"cache_path"`
	// Weights overrides the default taxonomy weight set when present.
	Weights *taxonomy.Weights `json:"weights"`
}

func (c Config) weights() taxonomy.Weights {
	if c.Weights != nil {
		return *c.Weights
	}
	return taxonomy.DefaultWeights()
}

func loadConfig() Config {
	config, err := configutil.ReadConfig[Config](configPath)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	return config
}

func openGraph(ctx context.Context, config Config) *graphstore.Store {
	graph, err := graphstore.Connect(ctx, config.Neo4j)
	if err != nil {
		serviceutil.Fatal("failed to connect to graph database", err)
	}
	return graph
}

func openCache(config Config) *cache.Cache {
	if config.CachePath == "" {
		return nil
	}
	featureCache, err := cache.Open(config.CachePath)
	if err != nil {
		serviceutil.Fatal("failed to open feature cache", err)
	}
	return featureCache
}
