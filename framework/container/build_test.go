package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-container/framework/container"
)

func makePoint(t *testing.T, c *container.Container, args container.Args) *Point {
	t.Helper()
	p, err := container.ResolveWith[*Point](c, "Point", args)
	require.NoError(t, err)
	return p
}

func TestBuild_ArgumentBindingThenNamedOverride(t *testing.T) {
	c := newContainer()
	require.NoError(t, c.BindArgument("Point", "a", 1))

	p := makePoint(t, c, container.Named(map[string]any{"b": 2}))
	assert.Equal(t, &Point{A: 1, B: 2}, p)

	p = makePoint(t, c, container.Named(map[string]any{"a": 99, "b": 2}))
	assert.Equal(t, &Point{A: 99, B: 2}, p, "named override wins over the argument binding")
}

func TestBuild_PositionalFillsByDeclarationOrder(t *testing.T) {
	c := newContainer()
	p := makePoint(t, c, container.Positional(10, 20))
	assert.Equal(t, &Point{A: 10, B: 20}, p)
}

func TestBuild_PositionalPartial_RestAutoResolved(t *testing.T) {
	c := newContainer()
	require.NoError(t, c.BindArgument("Point", "b", 5))

	p := makePoint(t, c, container.Positional(10))
	assert.Equal(t, &Point{A: 10, B: 5}, p)
}

func TestBuild_NamedOnlyMapsGivenNames(t *testing.T) {
	c := newContainer()

	_, err := c.MakeWith("Point", container.Named(map[string]any{"b": 20}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Point::a")

	require.NoError(t, c.BindArgument("Point", "a", 3))
	p := makePoint(t, c, container.Named(map[string]any{"b": 20}))
	assert.Equal(t, &Point{A: 3, B: 20}, p)
}

func TestBuild_NamedOverrideUsedVerbatim(t *testing.T) {
	c := newContainer()
	mine := &Engine{HP: 1}

	v, err := c.MakeWith("Car", container.Named(map[string]any{"engine": mine}))
	require.NoError(t, err)
	assert.Same(t, mine, v.(*Car).Engine)
}

func TestBuild_ArgumentBindingBeatsTypeHint(t *testing.T) {
	c := newContainer()
	special := &Engine{HP: 9000}
	require.NoError(t, c.BindArgument("Car", "engine", special))

	v, err := c.Make("Car")
	require.NoError(t, err)
	assert.Same(t, special, v.(*Car).Engine)
}

func TestBuild_ArgumentBindingBeatsDefault(t *testing.T) {
	c := newContainer()
	require.NoError(t, c.When("Car").Needs("name").Give("coupe"))

	v, err := c.Make("Car")
	require.NoError(t, err)
	assert.Equal(t, "coupe", v.(*Car).Name)
}

func TestBuild_OverflowWithoutVariadic(t *testing.T) {
	c := newContainer()

	_, err := c.MakeWith("Point", container.Positional(1, 2, 3))
	require.Error(t, err)
	assert.ErrorIs(t, err, container.ErrTooManyArguments)

	_, err = c.MakeWith("Point", container.Named(map[string]any{"a": 1, "b": 2}, 3))
	assert.ErrorIs(t, err, container.ErrTooManyArguments)
}

func TestBuild_ZeroParamConstructorIgnoresArgs(t *testing.T) {
	c := newContainer()
	v, err := c.MakeWith("Engine", container.Positional(1, 2))
	require.NoError(t, err)
	assert.Equal(t, 100, v.(*Engine).HP)
}

func TestBuild_VariadicTakesPositionalOverflow(t *testing.T) {
	c := newContainer()
	v, err := c.MakeWith("Bag", container.Positional("p:", "x", "y"))
	require.NoError(t, err)
	assert.Equal(t, &Bag{Prefix: "p:", Items: []string{"x", "y"}}, v)
}

func TestBuild_VariadicTakesNamedOverflow(t *testing.T) {
	c := newContainer()
	v, err := c.MakeWith("Bag", container.Named(map[string]any{"prefix": "n:"}, "a", "b"))
	require.NoError(t, err)
	assert.Equal(t, &Bag{Prefix: "n:", Items: []string{"a", "b"}}, v)
}

func TestBuild_VariadicEmpty(t *testing.T) {
	c := newContainer()
	v, err := c.MakeWith("Bag", container.Positional("only"))
	require.NoError(t, err)
	assert.Equal(t, "only", v.(*Bag).Prefix)
	assert.Empty(t, v.(*Bag).Items)
}

func TestBuild_VariadicFromArgumentBinding(t *testing.T) {
	c := newContainer()
	require.NoError(t, c.BindArgument("Bag", "prefix", "b:"))
	require.NoError(t, c.BindArgument("Bag", "items", []string{"q", "r"}))

	v, err := c.Make("Bag")
	require.NoError(t, err)
	assert.Equal(t, &Bag{Prefix: "b:", Items: []string{"q", "r"}}, v)

	v, err = c.MakeWith("Bag", container.Named(map[string]any{"items": []string{"z"}}))
	require.NoError(t, err)
	assert.Equal(t, []string{"z"}, v.(*Bag).Items)
}

func TestBuild_StructClass(t *testing.T) {
	c := newContainer()

	v, err := c.Make("Settings")
	require.NoError(t, err)

	s := v.(*Settings)
	assert.Equal(t, "localhost", s.Host)
	assert.Equal(t, 8080, s.Port)
	require.NotNil(t, s.Engine)

	v, err = c.MakeWith("Settings", container.Named(map[string]any{"port": 9090, "host": "db"}))
	require.NoError(t, err)
	assert.Equal(t, "db", v.(*Settings).Host)
	assert.Equal(t, 9090, v.(*Settings).Port)
}

func TestBuild_ArgumentTypeMismatch(t *testing.T) {
	c := newContainer()
	_, err := c.MakeWith("Point", container.Positional("one", "two"))
	require.Error(t, err)
	assert.ErrorIs(t, err, container.ErrConstruction)
}
