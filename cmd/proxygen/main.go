package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blimu-dev/rpc-proxygen/internal/cli"
)

func main() {
	var verbose bool
	logger := zap.NewNop()

	root := &cobra.Command{
		Use:           "proxygen",
		Short:         "Generate RPC client proxies from service metadata",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := cli.NewLogger(verbose)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	root.AddCommand(newGenerateCmd(func() *zap.Logger { return logger }))
	root.AddCommand(newValidateCmd())
	root.AddCommand(newSchemaCmd())
	root.AddCommand(newLanguagesCmd())

	err := root.Execute()
	_ = logger.Sync()
	if err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
}

func newGenerateCmd(logger func() *zap.Logger) *cobra.Command {
	var p cli.RunGenerateParams

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate client proxies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunGenerate(cmd.OutOrStdout(), logger(), p)
		},
	}

	cmd.Flags().StringVarP(&p.ConfigPath, "config", "c", "", "Path to proxygen.yaml config")
	cmd.Flags().StringVar(&p.SingleClient, "client", "", "Generate only the client with this local name")
	// Fallback single-client flags
	cmd.Flags().StringVar(&p.Fallback.Metadata, "metadata", "", "Metadata description file (yaml/json)")
	cmd.Flags().StringVar(&p.Fallback.Language, "language", "", "Target language (javascript, typescript, go)")
	cmd.Flags().StringVar(&p.Fallback.OutFile, "out", "", "Output file")
	cmd.Flags().StringVar(&p.Fallback.LocalName, "local-name", "", "Generated class/type name (default \"Proxy\")")
	cmd.Flags().StringVar(&p.Fallback.Package, "package", "", "Go package name")

	return cmd
}

func newValidateCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a metadata description",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunValidate(cmd.OutOrStdout(), input)
		},
	}
	cmd.Flags().StringVar(&input, "metadata", "", "Metadata description file (yaml/json)")
	_ = cmd.MarkFlagRequired("metadata")
	return cmd
}

func newSchemaCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print registered types as OpenAPI 3 components",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunSchema(cmd.Context(), cmd.OutOrStdout(), input)
		},
	}
	cmd.Flags().StringVar(&input, "metadata", "", "Metadata description file (yaml/json)")
	_ = cmd.MarkFlagRequired("metadata")
	return cmd
}

func newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported target languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunLanguages(cmd.OutOrStdout())
		},
	}
}
