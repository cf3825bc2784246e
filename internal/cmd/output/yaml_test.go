package output

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// testYAMLSample type for testing
type testYAMLSample struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

func TestNewYAMLHandler_Writer(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	h := NewYAMLHandler[testYAMLSample](buf, 2)
	require.Equal(t, buf, h.Writer())
}

func TestYAMLHandler_HandleResult(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	h := NewYAMLHandler[testYAMLSample](buf, 2)

	err := h.HandleResult(testYAMLSample{ID: 7, Name: "subfinder"})
	require.NoError(t, err)

	expected := `result:
  id: 7
  name: subfinder
`
	require.Equal(t, expected, buf.String())
}

func TestYAMLHandler_HandleResults(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	h := NewYAMLHandler[testYAMLSample](buf, 2)

	samples := []testYAMLSample{{ID: 1, Name: "subfinder"}, {ID: 2, Name: "amass"}}
	err := h.HandleResults(samples...)
	require.NoError(t, err)

	expected := `results:
  - id: 1
    name: subfinder
  - id: 2
    name: amass
`
	require.Equal(t, expected, buf.String())
}

func TestYAMLHandler_HandleError(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	h := NewYAMLHandler[testYAMLSample](buf, 2)

	err := h.HandleError(errors.New("enumeration failed"))
	require.NoError(t, err)

	expected := `error: enumeration failed
`
	require.Equal(t, expected, buf.String())
}
