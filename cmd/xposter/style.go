package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/9to5-byte/XPoster/style"
)

var cmdTrain = &cli.Command{
	Name:   "train",
	Usage:  "analyze writing samples and store the style profile",
	Flags:  aiFlags,
	Action: runTrain,
}

var cmdAddSample = &cli.Command{
	Name:      "add-sample",
	Usage:     "add a writing sample document to the training set",
	ArgsUsage: `<file>`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "path of the sample to import; reads stdin when neither this nor an argument is given",
		},
	},
	Action: runAddSample,
}

var cmdProfile = &cli.Command{
	Name:   "profile",
	Usage:  "print the stored style profile as JSON",
	Action: runProfile,
}

func runTrain(cctx *cli.Context) error {
	ctx := cctx.Context
	logger := configLogger(cctx, os.Stderr)

	provider, err := newProvider(cctx)
	if err != nil {
		return err
	}

	docs, err := style.NewDocuments(cctx.String("samples-dir"))
	if err != nil {
		return err
	}
	samples, err := docs.LoadSamples()
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no writing samples found in %s; add some with 'xposter add-sample'", docs.Dir())
	}

	profile, err := style.NewAnalyzer(provider).Analyze(ctx, samples)
	if err != nil {
		return err
	}
	if err := style.NewStore(cctx.String("profile-path")).Save(profile); err != nil {
		return err
	}
	logger.Info("style profile saved", "samples", profile.SampleCount)

	fmt.Printf("analyzed %d writing samples\n", profile.SampleCount)
	fmt.Printf("tone: %s\n", profile.Tone)
	fmt.Printf("voice: %s\n", profile.Voice)
	fmt.Printf("prompt hints: %s\n", profile.PromptHints())
	return nil
}

func runAddSample(cctx *cli.Context) error {
	docs, err := style.NewDocuments(cctx.String("samples-dir"))
	if err != nil {
		return err
	}

	src := cctx.String("file")
	if src == "" {
		src = cctx.Args().First()
	}

	var text string
	var name string
	if src != "" {
		raw, err := os.ReadFile(src)
		if err != nil {
			return err
		}
		text = string(raw)
		name = filepath.Base(src)
	} else {
		// no argument reads the sample from stdin
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		text = string(raw)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("sample is empty")
	}

	path, err := docs.AddSample(text, name)
	if err != nil {
		return err
	}
	fmt.Printf("saved %s\n", path)
	return nil
}

func runProfile(cctx *cli.Context) error {
	profile, err := style.NewStore(cctx.String("profile-path")).Load()
	if errors.Is(err, style.ErrProfileNotFound) {
		return fmt.Errorf("no style profile found; run 'xposter train' first")
	}
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
