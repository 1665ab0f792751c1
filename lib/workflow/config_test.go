// Copyright 2026 The Jenkdo Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	config := Config{}.withDefaults()
	assert.Equal(t, DefaultRetries, config.Retries)
	assert.Equal(t, DefaultRetryBackoff, config.RetryBackoff)
	assert.Equal(t, DefaultQueueAttempts, config.QueueAttempts)
	assert.Equal(t, DefaultInterval, config.Interval)
	assert.Equal(t, DefaultTimeout, config.Timeout)
	assert.Equal(t, io.Discard, config.Output)
	assert.NotNil(t, config.Clock)
	assert.NotNil(t, config.Reporter)
}

func TestConfigRetries(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, Config{Retries: -1}.withDefaults().Retries, "negative disables retries")
	assert.Equal(t, 5, Config{Retries: 5}.withDefaults().Retries)
	assert.Equal(t, time.Second, Config{RetryBackoff: time.Second}.withDefaults().RetryBackoff)
}
