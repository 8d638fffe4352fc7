package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRunRejectsVersionMismatch(t *testing.T) {
	run := testRun(t, "r1", "2026-01-01T00:00:00Z")
	run.SchemaVersion = CurrentSchemaVersion + 1

	data, err := EncodeRun(run)
	require.NoError(t, err)

	_, err = DecodeRun(data)
	require.ErrorIs(t, err, ErrVersionMismatch)
}

func TestDecodeRunRestoresRecord(t *testing.T) {
	run := testRun(t, "r1", "2026-01-01T00:00:00Z")
	data, err := EncodeRun(run)
	require.NoError(t, err)

	decoded, err := DecodeRun(data)
	require.NoError(t, err)
	assert.Equal(t, run, decoded)
}

func TestDecodePopulationRejectsMalformedWiring(t *testing.T) {
	population := testPopulation(t, "p1", "r1")
	population.Wirings[1] = population.Wirings[1][:10]

	data, err := EncodePopulation(population)
	require.NoError(t, err)

	_, err = DecodePopulation(data)
	require.Error(t, err)
}

func TestDecodePopulationRejectsUnversionedRecord(t *testing.T) {
	_, err := DecodePopulation([]byte(`{"id":"p1","wirings":[]}`))
	require.ErrorIs(t, err, ErrVersionMismatch)
}
