// Package command adapts plain option-struct functions into CLI commands.
//
// A command function has the shape
//
//	func(ctx context.Context, opts struct{ ... }) error
//
// where the struct fields carry go-flags tags. New builds the flag parser
// from the struct by reflection, so a command declares its options next to
// its implementation instead of registering flags by hand.
package command

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"reflect"

	"github.com/jessevdk/go-flags"
	"golang.org/x/sys/unix"
)

// Cmd wraps a command function for mitchellh/cli.
type Cmd struct {
	name, syn string
	fn        reflect.Value

	opts   reflect.Value
	parser *flags.Parser
}

// New wraps fn, which must be a func(context.Context, optsStruct) error.
func New(name, syn string, fn interface{}) *Cmd {
	rv := reflect.ValueOf(fn)

	if rv.Kind() != reflect.Func {
		panic("must pass a function")
	}

	rt := rv.Type()

	if rt.NumIn() != 2 {
		panic("must provide two arguments only")
	}

	if rt.NumOut() != 1 {
		panic("must return one argument only")
	}

	in := rt.In(1)

	if in.Kind() != reflect.Struct {
		panic("argument must be a struct")
	}

	sv := reflect.New(in)

	parser := flags.NewNamedParser(name, flags.Default)
	parser.ShortDescription = syn
	parser.LongDescription = syn

	_, err := parser.AddGroup("Command Options", "", sv.Interface())
	if err != nil {
		panic(err)
	}

	return &Cmd{
		name:   name,
		syn:    syn,
		fn:     rv,
		opts:   sv,
		parser: parser,
	}
}

func (c *Cmd) Help() string {
	var buf bytes.Buffer
	c.parser.WriteHelp(&buf)
	return buf.String()
}

func (c *Cmd) Synopsis() string {
	return c.syn
}

func (c *Cmd) Run(args []string) int {
	_, err := c.parser.ParseArgs(args)
	if err != nil {
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cancelOnSignal(cancel, os.Interrupt, unix.SIGQUIT, unix.SIGTERM)

	rets := c.fn.Call([]reflect.Value{reflect.ValueOf(ctx), c.opts.Elem()})

	if err, ok := rets[0].Interface().(error); ok && err != nil {
		fmt.Fprintf(os.Stderr, "! Error: %v\n", err)
		return 1
	}

	return 0
}

func cancelOnSignal(cancel func(), signals ...os.Signal) {
	c := make(chan os.Signal, 2)
	signal.Notify(c, signals...)

	go func() {
		for range c {
			cancel()
		}
	}()
}
