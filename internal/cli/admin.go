package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"starmatch/internal/apiclient"
	"starmatch/internal/domain"
	"starmatch/internal/logger"
	"starmatch/internal/port"
	"starmatch/internal/validation"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// recordFile is the YAML document written by export and read by import.
type recordFile[T any] struct {
	Kind  string `yaml:"kind"`
	Items []T    `yaml:"items"`
}

// NewAdminCmd builds the admin subcommands that move questions and
// characters in and out of the backend as YAML.
func NewAdminCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Export and import quiz questions and characters",
	}

	var out string
	export := &cobra.Command{
		Use:   "export <questions|characters>",
		Short: "Write every record of a kind as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := adminClient(*configPath, args[0])
			if err != nil {
				return err
			}
			defer logger.Sync()

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return exportRecords(cmd.Context(), client, args[0], w)
		},
	}
	export.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")

	importCmd := &cobra.Command{
		Use:   "import <questions|characters> <file>",
		Short: "Create or update records from a YAML export",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := adminClient(*configPath, args[0])
			if err != nil {
				return err
			}
			defer logger.Sync()

			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			return importRecords(cmd.Context(), client, args[0], data, cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(export, importCmd)
	return cmd
}

func adminClient(configPath, kind string) (*apiclient.Client, error) {
	if errs := validation.NewValidator().ValidateAdminKind(kind); len(errs) > 0 {
		return nil, errs
	}
	cfg, err := bootstrap(configPath)
	if err != nil {
		return nil, err
	}
	return apiclient.New(cfg.BackendOrigin(), cfg.Backend.Timeout, cfg.Backend.Auth), nil
}

func exportRecords(ctx context.Context, client *apiclient.Client, kind string, w io.Writer) error {
	if kind == "characters" {
		return exportKind(ctx, client.Characters(), kind, w)
	}
	return exportKind(ctx, client.Questions(), kind, w)
}

func importRecords(ctx context.Context, client *apiclient.Client, kind string, data []byte, w io.Writer) error {
	if kind == "characters" {
		return importKind(ctx, client.Characters(), kind, data, w)
	}
	return importKind(ctx, client.Questions(), kind, data, w)
}

func exportKind[T domain.Record](ctx context.Context, api port.RecordAPI[T], kind string, w io.Writer) error {
	items, err := api.List(ctx)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(recordFile[T]{Kind: kind, Items: items}); err != nil {
		return fmt.Errorf("failed to encode %s: %w", kind, err)
	}
	logger.Get().Info("Exported admin records", zap.String("kind", kind), zap.Int("count", len(items)))
	return enc.Close()
}

// importKind validates every record before the first write, then saves
// them in file order: records with an id are updated, the rest created.
func importKind[T interface {
	domain.Record
	Validate() error
}](ctx context.Context, api port.RecordAPI[T], kind string, data []byte, w io.Writer) error {
	var file recordFile[T]
	if err := yaml.Unmarshal(data, &file); err != nil {
		return domain.NewInvalidInputError(fmt.Sprintf("failed to parse %s file: %v", kind, err))
	}
	if file.Kind != "" && file.Kind != kind {
		return domain.NewInvalidInputError(fmt.Sprintf("file holds %s, not %s", file.Kind, kind))
	}
	for i, item := range file.Items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("%s #%d: %w", kind, i+1, err)
		}
	}

	var created, updated int
	for _, item := range file.Items {
		saved, err := api.Save(ctx, item)
		if err != nil {
			return fmt.Errorf("failed after %d of %d %s: %w", created+updated, len(file.Items), kind, err)
		}
		if item.RecordID() == "" {
			created++
		} else {
			updated++
		}
		logger.Get().Debug("Imported admin record", zap.String("kind", kind), zap.String("id", saved.RecordID()))
	}
	fmt.Fprintf(w, "Imported %d %s (%d created, %d updated)\n", len(file.Items), kind, created, updated)
	return nil
}
