// In file: internal/llm/profiler.go
package llm

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dileep-u-k/weather-assistant/internal/api"
	"github.com/dileep-u-k/weather-assistant/internal/logger"

	"github.com/redis/go-redis/v9"
)

// ModelProfile tracks latency, token usage and reliability for a model.
type ModelProfile struct {
	ModelID           string    `json:"model_id" redis:"model_id"`
	AvgLatencyMS      int64     `json:"avg_latency_ms" redis:"avg_latency_ms"`
	Status            string    `json:"status" redis:"status"`
	ErrorRate         float64   `json:"error_rate" redis:"error_rate"`
	TotalSuccesses    int64     `json:"total_successes" redis:"total_successes"`
	TotalFailures     int64     `json:"total_failures" redis:"total_failures"`
	TotalInputTokens  int64     `json:"total_input_tokens" redis:"total_input_tokens"`
	TotalOutputTokens int64     `json:"total_output_tokens" redis:"total_output_tokens"`
	LastSeen          time.Time `json:"last_seen" redis:"last_seen"`
}

const (
	statusOnline   = "online"
	statusDegraded = "degraded"
	// Weight of the newest sample in the latency moving average.
	latencyAlpha = 0.1
)

// Profiler keeps a ModelProfile per model in a Redis hash.
type Profiler struct {
	rdb    *redis.Client
	logger logger.Logger
}

var _ UsageRecorder = (*Profiler)(nil)

func NewProfiler(rdb *redis.Client, log logger.Logger) *Profiler {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Profiler{rdb: rdb, logger: log}
}

func (p *Profiler) getProfileKey(modelID string) string {
	return fmt.Sprintf("profile:%s", modelID)
}

// GetProfile retrieves a model's profile. found is false when the model has never been called.
func (p *Profiler) GetProfile(ctx context.Context, modelID string) (profile *ModelProfile, found bool, err error) {
	profileData, err := p.rdb.HGetAll(ctx, p.getProfileKey(modelID)).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read profile for %s: %w", modelID, err)
	}
	if len(profileData) == 0 {
		return nil, false, nil
	}

	profile = &ModelProfile{ModelID: modelID}
	profile.AvgLatencyMS, _ = strconv.ParseInt(profileData["avg_latency_ms"], 10, 64)
	profile.Status = profileData["status"]
	profile.ErrorRate, _ = strconv.ParseFloat(profileData["error_rate"], 64)
	profile.TotalSuccesses, _ = strconv.ParseInt(profileData["total_successes"], 10, 64)
	profile.TotalFailures, _ = strconv.ParseInt(profileData["total_failures"], 10, 64)
	profile.TotalInputTokens, _ = strconv.ParseInt(profileData["total_input_tokens"], 10, 64)
	profile.TotalOutputTokens, _ = strconv.ParseInt(profileData["total_output_tokens"], 10, 64)
	profile.LastSeen, _ = time.Parse(time.RFC3339Nano, profileData["last_seen"])
	return profile, true, nil
}

// RecordSuccess folds a successful call into the profile.
func (p *Profiler) RecordSuccess(ctx context.Context, modelID string, latency time.Duration, usage api.Usage) {
	key := p.getProfileKey(modelID)

	err := p.rdb.Watch(ctx, func(tx *redis.Tx) error {
		currentLatencyStr, err := tx.HGet(ctx, key, "avg_latency_ms").Result()
		if err != nil && err != redis.Nil {
			return err
		}
		newLatency := latency.Milliseconds()
		if err != redis.Nil {
			currentLatency, _ := strconv.ParseInt(currentLatencyStr, 10, 64)
			newLatency = int64((latencyAlpha * float64(latency.Milliseconds())) + ((1.0 - latencyAlpha) * float64(currentLatency)))
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, "avg_latency_ms", newLatency)
			return nil
		})
		return err
	}, key)
	if err != nil {
		p.logger.WithError(err).Warn("Failed to update latency", map[string]interface{}{"model": modelID})
	}

	pipe := p.rdb.Pipeline()
	successes := pipe.HIncrBy(ctx, key, "total_successes", 1)
	failures := pipe.HGet(ctx, key, "total_failures")
	pipe.HIncrBy(ctx, key, "total_input_tokens", int64(usage.PromptTokens))
	pipe.HIncrBy(ctx, key, "total_output_tokens", int64(usage.CompletionTokens))
	pipe.HSet(ctx, key, "model_id", modelID, "status", statusOnline, "last_seen", time.Now().Format(time.RFC3339Nano))

	// A missing total_failures field is redis.Nil, which Exec reports but is harmless here.
	if _, err = pipe.Exec(ctx); err != nil && err != redis.Nil {
		p.logger.WithError(err).Warn("Success update pipeline failed", map[string]interface{}{"model": modelID})
		return
	}

	totalFailures, _ := strconv.ParseInt(failures.Val(), 10, 64)
	p.updateErrorRate(ctx, key, successes.Val(), totalFailures)
}

// RecordFailure counts a failed call and marks the model degraded.
func (p *Profiler) RecordFailure(ctx context.Context, modelID string) {
	key := p.getProfileKey(modelID)
	pipe := p.rdb.Pipeline()
	failures := pipe.HIncrBy(ctx, key, "total_failures", 1)
	successes := pipe.HGet(ctx, key, "total_successes")
	pipe.HSet(ctx, key, "model_id", modelID, "status", statusDegraded, "last_seen", time.Now().Format(time.RFC3339Nano))

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		p.logger.WithError(err).Warn("Failure update pipeline failed", map[string]interface{}{"model": modelID})
		return
	}

	totalSuccesses, _ := strconv.ParseInt(successes.Val(), 10, 64)
	p.updateErrorRate(ctx, key, totalSuccesses, failures.Val())
}

func (p *Profiler) updateErrorRate(ctx context.Context, key string, successes, failures int64) {
	total := successes + failures
	if total == 0 {
		return
	}
	if err := p.rdb.HSet(ctx, key, "error_rate", float64(failures)/float64(total)).Err(); err != nil {
		p.logger.WithError(err).Warn("Failed to update error rate", map[string]interface{}{"key": key})
	}
}
