package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tunely/internal/config"
	"tunely/internal/styles"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigStylesCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set [diarizer].hf_token (or export HF_TOKEN) to enable speaker colors.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(strings.TrimSpace(ctx.flags.configPath))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			if _, err := cfg.StyleSet(); err != nil {
				return fmt.Errorf("styles: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

type styleRow struct {
	ID       string   `json:"id"`
	Font     string   `json:"font"`
	Size     int      `json:"size"`
	Text     string   `json:"text_color"`
	Fill     string   `json:"fill_color"`
	Speakers []string `json:"speakers"`
}

func newConfigStylesCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "styles",
		Short: "Show the resolved karaoke styles and which speakers use them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			set, err := cfg.StyleSet()
			if err != nil {
				return fmt.Errorf("styles: %w", err)
			}
			mapping := cfg.SpeakerMapping()
			if err := set.CheckMapping(mapping); err != nil {
				return fmt.Errorf("speakers: %w", err)
			}
			rows := buildStyleRows(set, mapping)
			if jsonOutput {
				return writeJSON(cmd, rows)
			}
			table := make([][]string, 0, len(rows))
			for _, row := range rows {
				speakers := strings.Join(row.Speakers, ", ")
				if speakers == "" && row.ID == styles.DefaultID {
					speakers = "(unmapped)"
				}
				table = append(table, []string{row.ID, row.Font, strconv.Itoa(row.Size), row.Text, row.Fill, speakers})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]tableColumn{
				leftColumn("Style"), leftColumn("Font"), rightColumn("Size"), leftColumn("Text"), leftColumn("Fill"), leftColumn("Speakers"),
			}, table))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print styles as JSON")
	return cmd
}

func buildStyleRows(set *styles.Set, mapping styles.Mapping) []styleRow {
	bySpeaker := make(map[string][]string)
	for label := range mapping {
		id := styles.Resolve(label, mapping)
		bySpeaker[id] = append(bySpeaker[id], label)
	}
	specs := set.Specs()
	rows := make([]styleRow, 0, len(specs))
	for _, spec := range specs {
		speakers := bySpeaker[spec.ID]
		slices.Sort(speakers)
		if speakers == nil {
			speakers = []string{}
		}
		rows = append(rows, styleRow{
			ID:       spec.ID,
			Font:     spec.Font,
			Size:     spec.Size,
			Text:     spec.PrimaryColor.Hex(),
			Fill:     spec.SecondaryColor.Hex(),
			Speakers: speakers,
		})
	}
	return rows
}
