package logtrace

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestInitLogger(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	InitLogger("debug")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	InitLogger("WARN")
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	InitLogger("not-a-level")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	InitLogger("")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestRequestId(t *testing.T) {
	assert.Equal(t, "", RequestIdFromContext(nil)) //nolint:staticcheck
	assert.Equal(t, "", RequestIdFromContext(context.Background()))

	ctx := WithRequestId(context.Background(), "req-1")
	assert.Equal(t, "req-1", RequestIdFromContext(ctx))
}
