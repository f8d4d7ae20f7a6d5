package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOpTimeoutDefaults(t *testing.T) {
	assert.Equal(t, defaultOpTimeout, NewPostgres(nil, 0).timeout)
	assert.Equal(t, defaultOpTimeout, NewMongo(nil, -time.Second).timeout)
	assert.Equal(t, 3*time.Second, NewPostgres(nil, 3*time.Second).timeout)
	assert.Equal(t, 3*time.Second, NewMongo(nil, 3*time.Second).timeout)
}
