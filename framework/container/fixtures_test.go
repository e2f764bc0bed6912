package container_test

import (
	"errors"

	"github.com/km-arc/go-container/framework/container"
	"github.com/km-arc/go-container/framework/introspect"
)

// ── fixture classes ───────────────────────────────────────────────────────────

type Engine struct{ HP int }

func NewEngine() *Engine { return &Engine{HP: 100} }

type Car struct {
	Engine *Engine
	Name   string
}

func NewCar(e *Engine, name string) *Car { return &Car{Engine: e, Name: name} }

type Point struct{ A, B int }

func NewPoint(a, b int) *Point { return &Point{A: a, B: b} }

type Logger interface{ Log(msg string) string }

type ConsoleLogger struct{ Prefix string }

func (l *ConsoleLogger) Log(msg string) string { return l.Prefix + msg }

func NewConsoleLogger(prefix string) *ConsoleLogger { return &ConsoleLogger{Prefix: prefix} }

type Service struct{ Logger Logger }

func NewService(l Logger) *Service { return &Service{Logger: l} }

type Bag struct {
	Prefix string
	Items  []string
}

func NewBag(prefix string, items ...string) *Bag { return &Bag{Prefix: prefix, Items: items} }

type Chicken struct{ Egg *Egg }
type Egg struct{ Chicken *Chicken }

func NewChicken(e *Egg) *Chicken { return &Chicken{Egg: e} }
func NewEgg(c *Chicken) *Egg     { return &Egg{Chicken: c} }

type Settings struct {
	Host   string `default:"localhost"`
	Port   int    `inject:"port" default:"8080"`
	Engine *Engine
	secret string
}

type Broken struct{}

var errBroken = errors.New("broken on purpose")

func NewBroken() (*Broken, error) { return nil, errBroken }

type Garage struct{ Car *Car }

func NewGarage(c *Car) *Garage { return &Garage{Car: c} }

// newRegistry registers every fixture class.
func newRegistry() *introspect.Registry {
	reg := introspect.NewRegistry()
	reg.MustRegister("Engine", NewEngine)
	reg.MustRegister("Car", NewCar, introspect.Params("engine", "name"), introspect.Default("name", "sedan"))
	reg.MustRegister("Point", NewPoint, introspect.Params("a", "b"))
	reg.MustRegisterAbstract("Logger", (*Logger)(nil))
	reg.MustRegister("ConsoleLogger", NewConsoleLogger, introspect.Params("prefix"))
	reg.MustRegister("Service", NewService, introspect.Params("logger"))
	reg.MustRegister("Bag", NewBag, introspect.Params("prefix", "items"))
	reg.MustRegister("Chicken", NewChicken, introspect.Params("egg"))
	reg.MustRegister("Egg", NewEgg, introspect.Params("chicken"))
	reg.MustRegisterStruct("Settings", &Settings{})
	reg.MustRegister("Broken", NewBroken)
	reg.MustRegister("Garage", NewGarage, introspect.Params("car"))
	return reg
}

func newContainer(opts ...container.Option) *container.Container {
	return container.New(append([]container.Option{container.WithIntrospector(newRegistry())}, opts...)...)
}
