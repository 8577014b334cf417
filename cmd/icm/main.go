package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/davecgh/go-spew/spew"
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/git-pkgs/icm"
	_ "github.com/git-pkgs/icm/all"
	"github.com/git-pkgs/icm/fetch"
	"github.com/git-pkgs/icm/internal/command"
	"github.com/git-pkgs/icm/record"
)

func main() {
	c := cli.NewCLI("icm", "0.1.0")
	c.Args = os.Args[1:]
	c.Commands = map[string]cli.CommandFactory{
		"build": func() (cli.Command, error) {
			return command.New(
				"build",
				"Build the content manifest for a resolution",
				buildF,
			), nil
		},
		"types": func() (cli.Command, error) {
			return command.New(
				"types",
				"List the package types manifests can be built for",
				typesF,
			), nil
		},
	}

	exitStatus, err := c.Run()
	if err != nil {
		log.Println(err)
	}

	os.Exit(exitStatus)
}

func buildF(ctx context.Context, opts struct {
	File       string `short:"f" long:"file" description:"read the resolution document from a file"`
	Resolution int64  `short:"r" long:"resolution" description:"fetch the resolution with this id"`
	BaseURL    string `short:"u" long:"base-url" description:"resolver service base URL for -r"`
	Layer      int    `short:"l" long:"layer-index" default:"-1" description:"image layer index to stamp into the metadata"`
	Output     string `short:"o" long:"output" description:"write the manifest to this file instead of stdout"`
	Debug      bool   `long:"debug" description:"log at debug level and dump the decoded resolution"`
}) error {
	level := hclog.Warn

	if opts.Debug {
		level = hclog.Debug
	}

	L := hclog.New(&hclog.LoggerOptions{
		Name:  "icm",
		Level: level,
	})

	var (
		res *record.Resolution
		err error
	)

	switch {
	case opts.File != "":
		res, err = record.DecodeFile(opts.File)
	case opts.BaseURL != "":
		res, err = fetch.NewClient(opts.BaseURL).Resolution(ctx, opts.Resolution)
	default:
		return fmt.Errorf("pass -f <file> or -u <base-url> with -r <id>")
	}

	if err != nil {
		return err
	}

	if opts.Debug {
		spew.Fdump(os.Stderr, res)
	}

	manifest, err := icm.BuildResolution(res, icm.WithDiagnostics(icm.HclogDiagnostics(L)))
	if err != nil {
		return err
	}

	manifest.Metadata.ImageLayerIndex = opts.Layer

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}

	data = append(data, '\n')

	if opts.Output != "" {
		return os.WriteFile(opts.Output, data, 0644)
	}

	_, err = os.Stdout.Write(data)
	return err
}

func typesF(ctx context.Context, opts struct{}) error {
	types := icm.Supported()

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	for _, t := range types {
		fmt.Println(t)
	}

	return nil
}
