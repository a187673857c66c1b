package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/notesmith/internal"
	"github.com/starford/notesmith/internal/frontmatter"
	"github.com/starford/notesmith/internal/noteservice"
	pkgconfig "github.com/starford/notesmith/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}
	return nil
}

func readTemplate(cmd *cli.Command) (string, string, error) {
	file := cmd.Args().First()
	if file == "" {
		return "", "", cli.Exit("template file argument is required", 2)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", "", err
	}
	return string(data), filepath.Base(file), nil
}

func analyze(_ context.Context, cmd *cli.Command) error {
	text, _, err := readTemplate(cmd)
	if err != nil {
		return err
	}
	return writeJSON(os.Stdout, frontmatter.AnalyzeTemplateStructure(text))
}

func renderFile(_ context.Context, cmd *cli.Command) error {
	text, name, err := readTemplate(cmd)
	if err != nil {
		return err
	}
	data := map[string]any{}
	if p := cmd.String("data"); p != "" {
		if data, err = pkgconfig.ReadData(p); err != nil {
			return err
		}
	}
	out, err := noteservice.RenderText(text, name, data, nil)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return writeJSON(os.Stdout, out)
	}
	_, err = io.WriteString(os.Stdout, out.Content)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	cmd := &cli.Command{
		Name:    "notesmith",
		Usage:   "Markdown vault server with note templates, frontmatter tools and duplicate detection",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and vault watcher",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools on stdin/stdout",
				Action: serveMCP,
			},
			{
				Name:      "analyze",
				Usage:     "Print the frontmatter and title structure of a template",
				ArgsUsage: "FILE",
				Action:    analyze,
			},
			{
				Name:      "render",
				Usage:     "Render a template file to stdout",
				ArgsUsage: "FILE",
				Action:    renderFile,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "YAML file with values for template expressions",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the rendered structure and titles as JSON",
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
