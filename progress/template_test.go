package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplate_Render(t *testing.T) {
	snap := Snapshot{
		TaskName: "import",
		Message:  "reading lines",
		Current:  250,
		Max:      1000,
	}
	testCases := []struct {
		name     string
		expr     string
		expected string
	}{
		{"plain text", "no placeholders", "no placeholders"},
		{"task and message", "${task}: ${message}", "import: reading lines"},
		{"range", "${current}/${max}", "250/1000"},
		{"percent", "${percent} done", "25% done"},
		{"adjacent placeholders", "${current}${max}", "2501000"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tmpl, err := NewTemplate(tc.expr)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, tmpl.Render(snap))
		})
	}
}

func TestTemplate_PercentIndeterminate(t *testing.T) {
	tmpl := MustTemplate("${percent}")
	assert.Equal(t, "n/a", tmpl.Render(Snapshot{Indeterminate: true}))
	assert.Equal(t, "n/a", tmpl.Render(Snapshot{}))
}

func TestTemplate_UnknownPlaceholder(t *testing.T) {
	_, err := NewTemplate("${bogus}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestTemplate_UnterminatedPlaceholder(t *testing.T) {
	// An unterminated ${ is treated as literal text rather than an error.
	tmpl, err := NewTemplate("stuck ${here")
	require.NoError(t, err)
	assert.Equal(t, "stuck ${here", tmpl.Render(Snapshot{}))
}
