package config

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/voxelsplace/voxgen/lsystem"
	"github.com/voxelsplace/voxgen/render"
	"github.com/voxelsplace/voxgen/vox"
)

func TestLoadYAML(t *testing.T) {
	job, err := Load(context.Background(), filepath.Join("testdata", "dragon.yaml"))
	require.NoError(t, err)
	require.Equal(t, "dragon", job.Name)
	require.Equal(t, []string{"L→L+R+", "R→-L-R"}, job.Rules)

	opts, err := job.Options()
	require.NoError(t, err)
	want := render.DefaultOptions()
	want.Generations = 8
	want.OffsetX, want.OffsetY = 10, -15
	want.Rainbow = true
	require.Equal(t, want, opts)

	g, err := job.Grammar()
	require.NoError(t, err)
	require.Equal(t, "L+R+", lsystem.Format(g.Commands(1)))

	path, err := job.OutputPath()
	require.NoError(t, err)
	require.Equal(t, "dragon_8.vox", path)
}

func TestLoadHCL(t *testing.T) {
	job, err := Load(context.Background(), filepath.Join("testdata", "hilbert.hcl"))
	require.NoError(t, err)
	opts, err := job.Options()
	require.NoError(t, err)
	require.Equal(t, 6, opts.Generations)
	require.Equal(t, uint32(127), opts.SizeX)
	require.Equal(t, uint32(64), opts.SizeZ)
	require.Equal(t, 63.0, opts.OffsetX)
	require.Equal(t, -63.0, opts.OffsetY)

	path, err := job.OutputPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join("volumes", "hilbert_6.vox"), path)
}

func TestHCLAngleExpressions(t *testing.T) {
	job, err := Load(context.Background(), filepath.Join("testdata", "sierpinski.hcl"))
	require.NoError(t, err)
	opts, err := job.Options()
	require.NoError(t, err)
	require.InDelta(t, math.Pi/3, opts.Angle, 1e-12)
	require.Equal(t, 4.0, opts.Step)

	for _, expr := range []string{"radians(60)", "60 * deg", "tau / 6"} {
		src := `name = "s"
axiom = "F"
render {
  angle = ` + expr + `
}
`
		job, err := Parse("inline.hcl", []byte(src), HCL)
		require.NoError(t, err, expr)
		opts, err := job.Options()
		require.NoError(t, err)
		require.InDelta(t, math.Pi/3, opts.Angle, 1e-12, expr)
	}
}

func TestAngleDegrees(t *testing.T) {
	job, err := Parse("a.yaml", []byte("name: a\naxiom: F\nrender:\n  angle_deg: 90\n"), YAML)
	require.NoError(t, err)
	opts, err := job.Options()
	require.NoError(t, err)
	require.InDelta(t, math.Pi/2, opts.Angle, 1e-12)

	_, err = Parse("a.yaml", []byte("name: a\naxiom: F\nrender:\n  angle: 1\n  angle_deg: 90\n"), YAML)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestParseInvalid(t *testing.T) {
	cases := map[string]string{
		"generations": "name: a\naxiom: F\nrender:\n  generations: 40\n",
		"size":        "name: a\naxiom: F\nrender:\n  size: [64, 300, 64]\n",
		"size arity":  "name: a\naxiom: F\nrender:\n  size: [64, 64]\n",
		"no axiom":    "name: a\n",
		"bad name":    "name: ../etc\naxiom: F\n",
		"color":       "name: a\naxiom: F\nrender:\n  colors: ['#12345']\n",
		"empty":       "",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(name+".yaml", []byte(src), YAML)
			require.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestParseBadRule(t *testing.T) {
	_, err := Parse("r.yaml", []byte("name: r\naxiom: F\nrules: ['F=FF']\n"), YAML)
	require.ErrorIs(t, err, ErrInvalid)
	require.ErrorIs(t, err, lsystem.ErrParse)
}

func TestParseUnknownFields(t *testing.T) {
	_, err := Parse("u.yaml", []byte("name: u\naxiom: F\ngenerations: 3\n"), YAML)
	require.Error(t, err)

	_, err = Parse("u.hcl", []byte("name = \"u\"\naxiom = \"F\"\ngenerations = 3\n"), HCL)
	require.Error(t, err)

	_, err = Parse("u.hcl", []byte("name = \"u\"\naxiom = \n"), HCL)
	require.Error(t, err)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(context.Background(), "job.toml")
	require.Error(t, err)

	_, err = Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#ff8000")
	require.NoError(t, err)
	require.Equal(t, vox.Rgba{255, 128, 0, 255}, c)

	c, err = ParseColor("#0000ff80")
	require.NoError(t, err)
	require.Equal(t, vox.Rgba{0, 0, 255, 128}, c)

	for _, bad := range []string{"ff8000", "#ff80", "#gg0000", "#ff8000ff00"} {
		_, err := ParseColor(bad)
		require.ErrorIs(t, err, ErrInvalid, bad)
	}
}

func TestColorsOverlay(t *testing.T) {
	src := "name: c\naxiom: F\nrender:\n  rainbow: true\n  colors: ['#ff0000', '#00ff00']\n"
	job, err := Parse("c.yaml", []byte(src), YAML)
	require.NoError(t, err)
	opts, err := job.Options()
	require.NoError(t, err)
	require.Equal(t, []vox.Rgba{{255, 0, 0, 255}, {0, 255, 0, 255}}, opts.Colors)
}

func TestOutputPathFile(t *testing.T) {
	job := &Job{Name: "x", Axiom: "F", Output: filepath.Join("out", "tree.vox")}
	path, err := job.OutputPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join("out", "tree.vox"), path)
}
