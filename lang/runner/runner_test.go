package runner

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These six scenarios are the reference end-to-end behaviors: each
// source program's printed output, byte for byte. Numeric println
// output uses the same fixed six-fractional-digit decimal as string
// coercion (see DESIGN.md for why this module stringifies numbers
// uniformly rather than giving println a second, bare-integer path).
func TestRunSource_EndToEnd(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "arithmetic precedence",
			source: `let x = 2 + 3 * 4; println(x);`,
			want:   "14.000000\n",
		},
		{
			name:   "while loop counts down",
			source: `let x = 10; while (x > 0) { x = x - 1; } println(x);`,
			want:   "0.000000\n",
		},
		{
			name:   "function call returns sum",
			source: `function add(a, b) { return a + b; } println(add(2, 40));`,
			want:   "42.000000\n",
		},
		{
			name: "ref parameters swap the caller's variables",
			source: `function swap(ref a, ref b) { let t = a; a = b; b = t; }
				let x = 1; let y = 2; swap(x, y); println(x); println(y);`,
			want: "2.000000\n1.000000\n",
		},
		{
			name:   "null equals null",
			source: `if (null == null) { println("yes"); } else { println("no"); }`,
			want:   "yes\n",
		},
		{
			name:   "string concatenation stringifies the number operand",
			source: `let s = "n=" + 7; println(s);`,
			want:   "n=7.000000\n",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var out bytes.Buffer
			err := RunSource(c.source, &out, nil)
			require.NoError(t, err)
			assert.Equal(t, c.want, out.String())
		})
	}
}

func TestRun_ReadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.core")
	require.NoError(t, os.WriteFile(path, []byte(`println(1 + 1);`), 0644))

	var out bytes.Buffer
	require.NoError(t, Run(path, &out, nil))
	assert.Equal(t, "2.000000\n", out.String())
}

func TestRun_MissingFile(t *testing.T) {
	var out bytes.Buffer
	err := Run("/nonexistent/file.core", &out, nil)
	require.Error(t, err)
}

func TestRunSource_LexErrorIsReported(t *testing.T) {
	var out bytes.Buffer
	err := RunSource("let x = 1 @ 2;", &out, nil)
	require.Error(t, err)
}

func TestRunSource_ParseErrorIsReported(t *testing.T) {
	var out bytes.Buffer
	err := RunSource("let let let;", &out, nil)
	require.Error(t, err)
}

func TestRunSource_BreakOutsideLoopFails(t *testing.T) {
	var out bytes.Buffer
	err := RunSource("break;", &out, nil)
	require.Error(t, err)
}

func TestRunSource_DiagnosticsCollectsStages(t *testing.T) {
	var out bytes.Buffer
	diag := &Diagnostics{Enabled: true}
	require.NoError(t, RunSource(`println(1);`, &out, diag))
	assert.NotEmpty(t, diag.Tokens)
	assert.True(t, diag.Accepted)
	assert.Contains(t, diag.Program, "CALL")
}

func TestRunSource_NestedCallInNonFinalArgumentBindsCorrectly(t *testing.T) {
	var out bytes.Buffer
	err := RunSource(`
		function add(a, b) { return a + b; }
		function mul(a, b) { return a * b; }
		println(add(1, mul(2, 3)));
	`, &out, nil)
	require.NoError(t, err)
	assert.Equal(t, "7.000000\n", out.String())
}

func TestRunSource_StructMemberAccessAndCall(t *testing.T) {
	var out bytes.Buffer
	err := RunSource(`println(math.abs(-3));`, &out, nil)
	require.NoError(t, err)
	assert.Equal(t, "3.000000\n", out.String())
}
