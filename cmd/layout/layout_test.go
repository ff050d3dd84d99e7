package layout

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jespino/bookmap/pkg/coordinator"
	"github.com/jespino/bookmap/pkg/projection"
)

const datasetJSON = `[
  {"id": 1, "Titulo": "Dune", "Año": 1985, "Genero": "Sci-Fi", "Temas": "space|desert|politics"},
  {"id": 2, "Titulo": "Hyperion", "Año": 1989, "Genero": "Sci-Fi", "Temas": "space|pilgrimage"},
  {"id": 3, "Titulo": "It", "Año": 1986, "Genero": "Horror", "Temas": "fear|childhood"},
  {"id": 4, "Titulo": "Misery", "Año": 1987, "Genero": "Horror", "Temas": "fear|obsession"},
  {"id": 5, "Titulo": "Foundation", "Año": 1951, "Genero": "Sci-Fi", "Temas": "space|politics|empire"}
]`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	dir := t.TempDir()
	dataset := filepath.Join(dir, "books.json")
	require.NoError(t, os.WriteFile(dataset, []byte(datasetJSON), 0644))

	root := &cobra.Command{Use: "bookmap", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().String("config", filepath.Join(dir, "none.toml"), "")
	root.PersistentFlags().String("dataset", dataset, "")
	root.PersistentFlags().String("log-level", "disabled", "")
	root.AddCommand(LayoutCmd())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(append([]string{"layout"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestLayoutCmdJSON(t *testing.T) {
	tests := []struct {
		mode string
		want coordinator.Mode
	}{
		{mode: "goroutine", want: coordinator.ModeGoroutine},
		{mode: "inline", want: coordinator.ModeInline},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			out, err := run(t, "--mode", tt.mode)
			require.NoError(t, err)

			var got output
			require.NoError(t, json.Unmarshal([]byte(out), &got))
			assert.Equal(t, tt.want, got.Mode)
			assert.Equal(t, coordinator.RequestID(1), got.RequestID)
			assert.Equal(t, 4, got.Books)
			require.Len(t, got.Coords, 4)
			for id, p := range got.Coords {
				for _, v := range p {
					assert.GreaterOrEqual(t, v, projection.DefaultPadding, "book %d", id)
					assert.LessOrEqual(t, v, 100-projection.DefaultPadding, "book %d", id)
				}
			}
		})
	}
}

func TestLayoutCmdTooFewBooks(t *testing.T) {
	out, err := run(t, "--genre", "Horror")
	require.NoError(t, err)

	var got output
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 2, got.Books)
	assert.Empty(t, got.Coords)
}

func TestLayoutCmdTable(t *testing.T) {
	out, err := run(t, "--from", "1950", "--format", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "ID  X")
	assert.Contains(t, out, "Foundation")
}

func TestLayoutCmdErrors(t *testing.T) {
	_, err := run(t, "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")

	_, err = run(t, "--mode", "threads")
	assert.ErrorContains(t, err, "unknown mode")
}
