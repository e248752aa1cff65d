package command

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/frantjc/dexkeep"
	"github.com/frantjc/dexkeep/internal/dexkeepblob"
	"github.com/frantjc/dexkeep/internal/dexkeepconfig"
	"github.com/frantjc/dexkeep/proguard"
	xslice "github.com/frantjc/x/slice"
	"github.com/spf13/cobra"
)

type options struct {
	configName    string
	verbosity     int
	packagePrefix string
	blobURL       string
	proguard      string
	args          []string
}

// NewDexkeep returns the root command for
// dexkeep which acts as its CLI entrypoint.
func NewDexkeep() *cobra.Command {
	var (
		defaults = dexkeepconfig.Default()
		o        = &options{}
		cmd      = &cobra.Command{
			Use: "dexkeep",
			PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
				if verbose := os.Getenv("DEXKEEP_VERBOSE"); verbose != "" && xslice.Some([]string{"1", "y", "yes", "true", "t"}, func(s string, _ int) bool {
					return strings.EqualFold(s, verbose)
				}) {
					o.verbosity = max(o.verbosity, 3)
				}

				cmd.SetContext(
					dexkeep.WithLogger(
						cmd.Context(), dexkeep.NewLogger(cmd.ErrOrStderr(), o.verbosity),
					),
				)

				cfg, err := dexkeepconfig.Load(o.configName)
				if err != nil {
					return err
				}

				flags := cmd.Flags()
				if !flags.Changed("package") {
					o.packagePrefix = cfg.Package
				}

				if !flags.Changed("blob") {
					o.blobURL = cfg.Blob
				}

				if f := flags.Lookup("proguard"); f != nil && !f.Changed {
					o.proguard = cfg.Proguard
				}

				o.args = cfg.Args

				return nil
			},
		}
	)

	cmd.PersistentFlags().CountVarP(&o.verbosity, "verbose", "V", "verbosity for dexkeep")

	cmd.PersistentFlags().StringVar(&o.configName, "config", "", "config file for dexkeep (default "+dexkeepconfig.DefaultName+")")
	cmd.PersistentFlags().StringVarP(&o.packagePrefix, "package", "p", defaults.Package, "package prefix whose classes to keep")
	cmd.PersistentFlags().StringVar(&o.blobURL, "blob", "", "bucket URL to read the container out of")

	cmd.AddCommand(newClasses(o), newRules(o), newShrink(o))

	return SetCommon(cmd, dexkeep.SemVer())
}

// extract reads the classes out of the container named by arg, fetching
// it out of the configured bucket first if there is one.
func (o *options) extract(cmd *cobra.Command, arg string) (*dexkeep.ClassSet, error) {
	var (
		ctx  = cmd.Context()
		name = arg
	)

	if o.blobURL != "" {
		dir, err := os.MkdirTemp("", "dexkeep")
		if err != nil {
			return nil, err
		}
		defer os.RemoveAll(dir)

		fetched, ok, err := dexkeepblob.Fetch(ctx, o.blobURL, arg, dir)
		if err != nil {
			return nil, err
		} else if ok {
			name = fetched
		} else {
			// Absent from the bucket, so absent locally too.
			name = filepath.Join(dir, path.Base(arg))
		}
	}

	return dexkeep.ExtractClasses(ctx, name, o.packagePrefix)
}

func newClasses(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "classes CONTAINER",
		Short: "List the classes under the package prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			classes, err := o.extract(cmd, args[0])
			if err != nil {
				return err
			}

			for _, className := range classes.Sorted() {
				fmt.Fprintln(cmd.OutOrStdout(), className)
			}

			return nil
		},
	}
}

func newRules(o *options) *cobra.Command {
	var (
		output string
		cmd    = &cobra.Command{
			Use:   "rules CONTAINER",
			Short: "Print keep rules for the classes under the package prefix",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				classes, err := o.extract(cmd, args[0])
				if err != nil {
					return err
				}

				rules := proguard.KeepRules(classes)

				if output == "" || output == "-" {
					return proguard.WriteConfig(cmd.OutOrStdout(), rules)
				}

				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()

				if err = proguard.WriteConfig(f, rules); err != nil {
					return err
				}

				dexkeep.LoggerFrom(cmd.Context()).Info("wrote keep rules", "path", output, "rules", len(rules))

				return f.Close()
			},
		}
	)

	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write the rules to, suitable for -include")

	return cmd
}

func newShrink(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shrink CONTAINER [-- SHRINKER_ARGS...]",
		Short: "Run the shrinker with keep rules for the classes under the package prefix",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dash := cmd.ArgsLenAtDash(); dash > 1 || (dash < 0 && len(args) > 1) {
				return fmt.Errorf("shrinker arguments must follow --")
			}

			classes, err := o.extract(cmd, args[0])
			if err != nil {
				return err
			}

			var (
				rules = proguard.KeepRules(classes)
				argv  = proguard.Args(slices.Concat(o.args, args[1:]), rules)
			)

			dexkeep.LoggerFrom(cmd.Context()).Info("running shrinker", "proguard", o.proguard, "rules", len(rules))

			return proguard.Command(o.proguard).Run(cmd.Context(), &proguard.RunOpts{
				Stdout: cmd.OutOrStdout(),
				Stderr: cmd.ErrOrStderr(),
			}, argv...)
		},
	}

	cmd.Flags().StringVar(&o.proguard, "proguard", dexkeepconfig.Default().Proguard, "shrinker executable")

	return cmd
}
