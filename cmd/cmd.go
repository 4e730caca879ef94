// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP control API",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles first-run initialization
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and database",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write the example configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"p"},
						Usage:   "Where to write the configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Create the database and run migrations",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Revert the most recent migration",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// libraryCommand handles artwork index operations
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Artwork index operations",
		Commands: []*cli.Command{
			{
				Name:   "index",
				Usage:  "Walk the music directories and index album artwork",
				Flags:  []cli.Flag{configFlag()},
				Action: r.LibraryIndex,
			},
			{
				Name:  "artwork",
				Usage: "Look up indexed artwork for an album",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Artist name",
					},
					&cli.StringFlag{
						Name:  "album",
						Usage: "Album title",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.LibraryArtwork,
			},
			{
				Name:  "export",
				Usage: "Export the artwork index as CSV, Markdown or text",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (csv, md, text)",
						Value:   "text",
					},
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Only export albums by this artist",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of albums to export",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the export to a file instead of stdout",
					},
				},
				Action: r.LibraryExport,
			},
		},
	}
}
