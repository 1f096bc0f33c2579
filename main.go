package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/kr/pretty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/thiremani/corvid/asm"
	"github.com/thiremani/corvid/compiler"
	"github.com/thiremani/corvid/config"
	"github.com/thiremani/corvid/il"
	"github.com/thiremani/corvid/interp"
	"github.com/thiremani/corvid/lower"
)

const (
	IL_SUFFIX = ".cvil"
	IR_FILE   = "module.ll"
	NORM_FILE = "normalized" + IL_SUFFIX
	SIG_FILE  = "signatures.txt"
)

// Options holds the global flags.
type Options struct {
	Debug      bool
	ConfigPath string
	Entry      string
}

// app is the state shared by subcommands once flags and config are read.
type app struct {
	opts    *Options
	cfg     *config.Config
	cfgPath string
	logger  *slog.Logger
}

func main() {
	rootCmd := newRootCmd()
	if err := fang.Execute(context.Background(), rootCmd,
		fang.WithVersion(Version),
		fang.WithCommit(Commit),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			_, _ = fmt.Fprintln(w, err.Error())
		}),
	); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{opts: &Options{}}

	rootCmd := &cobra.Command{
		Use:   "corvid",
		Short: "Corvid IL toolchain",
		Long: `Corvid loads programs written in a continuation-passing IL, specializes
them into typed monomorphic graphs and runs them in a reference interpreter.`,
		Example: `  # Run a program
  corvid run fact.cvil 10

  # Print the specialized graph
  corvid normalize fact.cvil

  # Check and declare native functions, caching the result
  corvid build fact.cvil double.cvil`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd, args)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&a.opts.Debug, "debug", "d", false, "Enable debug logging")
	flags.StringVar(&a.opts.ConfigPath, "config", "", "Path to "+config.FileName+" (searched upward from the input by default)")
	flags.StringVarP(&a.opts.Entry, "entry", "e", "main", "Entry label")

	rootCmd.AddCommand(runCmd(a), normalizeCmd(a), buildCmd(a), configCmd(a), versionCmd())
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	var err error
	if a.opts.ConfigPath != "" {
		a.cfgPath = a.opts.ConfigPath
		a.cfg, err = config.Load(a.opts.ConfigPath)
	} else {
		dir := "."
		if len(args) > 0 {
			dir = filepath.Dir(args[0])
		}
		a.cfgPath, a.cfg, err = config.Find(dir)
	}
	if err != nil {
		return err
	}

	level, err := a.cfg.LogLevel()
	if err != nil {
		return err
	}
	if a.opts.Debug {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(a.logger)
	return nil
}

func (a *app) normalizer() *compiler.Normalizer {
	n := compiler.NewNormalizer(a.logger)
	n.MaxDepth = a.cfg.Normalize.MaxDepth
	n.MaxPasses = a.cfg.Normalize.MaxPasses
	return n
}

// entry loads path and returns its entry label.
func (a *app) entry(path string, src []byte) (*il.Label, error) {
	mod, err := asm.Load(path, string(src))
	if err != nil {
		return nil, err
	}
	main, ok := mod.Lookup(a.opts.Entry)
	if !ok {
		return nil, errors.Errorf("%s: no label named %s", path, a.opts.Entry)
	}
	return main, nil
}

func (a *app) loadEntry(path string) (*il.Label, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return a.entry(path, src)
}

func runCmd(a *app) *cobra.Command {
	var normalize bool

	cmd := &cobra.Command{
		Use:   "run FILE [ARG...]",
		Short: "Run a program in the interpreter",
		Long: `Run calls the entry label with the given constant arguments and an exit
continuation, then prints the values passed to exit.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			main, err := a.loadEntry(args[0])
			if err != nil {
				return err
			}
			inputs := make([]il.Any, len(args)-1)
			for i, text := range args[1:] {
				if inputs[i], err = asm.Constant(text); err != nil {
					return errors.Wrapf(err, "argument %d", i+1)
				}
			}
			if normalize {
				if err := a.normalizer().Normalize(main); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			in := interp.New(a.logger, out)
			in.MaxSteps = a.cfg.Interp.MaxSteps
			results, err := in.Run(main, inputs...)
			if err != nil {
				return err
			}
			strs := make([]string, len(results))
			for i, r := range results {
				strs[i] = r.String()
			}
			_, err = fmt.Fprintln(out, strings.Join(strs, " "))
			return err
		},
	}
	cmd.Flags().BoolVarP(&normalize, "normalize", "n", false, "Specialize the program before running it")
	return cmd
}

func normalizeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize FILE",
		Short: "Print the specialized graph of the entry label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			main, err := a.loadEntry(args[0])
			if err != nil {
				return err
			}
			if err := a.normalizer().Normalize(main); err != nil {
				return err
			}
			il.Fprint(cmd.OutOrStdout(), main)
			return nil
		},
	}
}

func buildCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "build FILE...",
		Short: "Specialize programs and declare their native functions",
		Long: `Build normalizes each file, checks that the result can be lowered and
writes the LLVM declarations, their decoded signatures and the normalized IL
to the cache. Files are
built concurrently; unchanged files reuse their cached output.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs := make([]string, len(args))
			eg, ctx := errgroup.WithContext(cmd.Context())
			for i, path := range args {
				eg.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					dir, err := a.build(path)
					dirs[i] = dir
					return err
				})
			}
			if err := eg.Wait(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, path := range args {
				fmt.Fprintf(out, "%s -> %s\n", path, dirs[i])
			}
			return nil
		},
	}
}

// build writes the artifacts of one file and returns their directory.
func (a *app) build(path string) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", path)
	}
	shortHash, fullHash := artifactHash(a.cfg.Normalize, map[string][]byte{path: src})
	logger := a.logger.With("file", path)

	dir, cached, err := prepareArtifacts(logger, a.cfg.Cache.Dir, shortHash, fullHash, func(dir string) error {
		main, err := a.entry(path, src)
		if err != nil {
			return err
		}
		n := a.normalizer()
		if err := n.Normalize(main); err != nil {
			return err
		}
		if err := lower.Check(main); err != nil {
			return err
		}

		lw := lower.NewLowerer(strings.TrimSuffix(filepath.Base(path), IL_SUFFIX))
		defer lw.Dispose()
		if err := lw.DeclareAll(n.Instances()); err != nil {
			return err
		}
		if _, err := lw.Declare(main); err != nil {
			return err
		}
		sigs, err := lw.Signatures()
		if err != nil {
			return err
		}
		var sb strings.Builder
		for _, sig := range sigs {
			logger.Debug("declared", "symbol", sig.Symbol, "label", sig.Label)
			sb.WriteString(sig.String())
			sb.WriteByte('\n')
		}
		if err := os.WriteFile(filepath.Join(dir, SIG_FILE), []byte(sb.String()), 0644); err != nil {
			return errors.Wrap(err, "write signatures")
		}

		if err := os.WriteFile(filepath.Join(dir, IR_FILE), []byte(lw.IR()), 0644); err != nil {
			return errors.Wrap(err, "write IR")
		}
		return errors.Wrap(os.WriteFile(filepath.Join(dir, NORM_FILE), []byte(il.Dump(main)), 0644), "write normalized IL")
	})
	if err != nil {
		return "", err
	}
	logger.Info("built", "dir", dir, "cached", cached)
	return dir, nil
}

func configCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path := a.cfgPath
			if path == "" {
				path = "(defaults)"
			}
			fmt.Fprintf(out, "# %s\n", path)
			_, err := pretty.Fprintf(out, "%# v\n", a.cfg)
			return err
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printVersion(cmd.OutOrStdout())
			return nil
		},
	}
}
