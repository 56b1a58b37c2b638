package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 10*time.Second, cfg.Scheduler.TimeLimit)
	assert.Equal(t, 30, cfg.Scheduler.HorizonDays)
	assert.Equal(t, ProposalStoreMemory, cfg.Scheduler.ProposalStore)
	assert.Equal(t, 2, cfg.Scheduler.QueueWorkers)
	assert.Equal(t, 30*time.Minute, cfg.Scheduler.ProposalTTL)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestFromViperOverrides(t *testing.T) {
	t.Setenv("SCHEDULER_TIME_LIMIT", "45s")
	t.Setenv("SCHEDULER_PROPOSAL_STORE", " Redis ")
	t.Setenv("SCHEDULER_PROPOSAL_TTL", "not-a-duration")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, 45*time.Second, cfg.Scheduler.TimeLimit)
	assert.Equal(t, ProposalStoreRedis, cfg.Scheduler.ProposalStore)
	assert.Equal(t, 30*time.Minute, cfg.Scheduler.ProposalTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestUnknownProposalStoreFallsBackToMemory(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("SCHEDULER_PROPOSAL_STORE", "memcached")

	assert.Equal(t, ProposalStoreMemory, fromViper(v).Scheduler.ProposalStore)
}
