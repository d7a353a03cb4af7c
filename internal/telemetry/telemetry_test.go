package telemetry

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), "", "tdai-api", "test", false)
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))

	// The no-op globals still hand out usable scopes.
	assert.NotNil(t, Tracer("tdai/http"))
	assert.NotNil(t, Meter("tdai/knowledge"))
}

func TestDurationBoundariesAscend(t *testing.T) {
	require.NotEmpty(t, durationBoundaries)
	assert.True(t, sort.Float64sAreSorted(durationBoundaries))
	// Completions can run for many seconds; the Qdrant and embedding calls
	// need sub-100ms resolution. Both ends must be represented.
	assert.LessOrEqual(t, durationBoundaries[0], 10.0)
	assert.GreaterOrEqual(t, durationBoundaries[len(durationBoundaries)-1], 10000.0)
}
