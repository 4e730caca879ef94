package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/msrv/internal/formatter"
	"github.com/desertthunder/msrv/internal/player"
	"github.com/desertthunder/msrv/internal/repositories"
	"github.com/desertthunder/msrv/internal/shared"
)

// LibraryIndex walks every configured music directory and records its artwork.
func (r *Runner) LibraryIndex(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}
	if len(config.Library.MusicDirs) == 0 {
		return fmt.Errorf("%w: library.music_dirs is empty", shared.ErrMissingConfig)
	}

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	ix := &player.Indexer{
		Store:        repositories.NewArtworkRepository(db),
		Runs:         repositories.NewScanRunRepository(db),
		ArtworkNames: config.Library.ArtworkNames,
		Logger:       r.logger,
	}

	total := 0
	for _, root := range config.Library.MusicDirs {
		n, err := ix.Index(ctx, root)
		if err != nil {
			return fmt.Errorf("failed to index %s: %w", root, err)
		}
		r.writePlain("%-40s %d albums\n", root, n)
		total += n
	}

	r.writePlain("✓ Indexed %d albums across %d directories\n", total, len(config.Library.MusicDirs))
	return nil
}

type artworkOutput struct {
	Artist string `json:"artist"`
	Album  string `json:"album"`
	Path   string `json:"path"`
}

// LibraryArtwork prints the indexed artwork for --artist and --album.
func (r *Runner) LibraryArtwork(ctx context.Context, cmd *cli.Command) error {
	artist, album := cmd.String("artist"), cmd.String("album")
	if artist == "" && album == "" {
		return fmt.Errorf("%w: --artist or --album is required", shared.ErrMissingArgument)
	}

	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	art, err := repositories.NewArtworkRepository(db).GetByAlbum(artist, album)
	if errors.Is(err, shared.ErrArtworkNotFound) {
		r.writePlain("No artwork indexed for %q / %q\n", artist, album)
		return nil
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(artworkOutput{Artist: art.Artist(), Album: art.Album(), Path: art.Path()}, true)
	}
	return r.writePlain("%s - %s: %s\n", art.Artist(), art.Album(), art.Path())
}

// LibraryExport renders the artwork index with --format to stdout or --output.
func (r *Runner) LibraryExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	artwork, err := repositories.NewArtworkRepository(db).List(map[string]any{
		"artist": cmd.String("artist"),
		"limit":  int(cmd.Int("limit")),
	})
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(format, artwork, path); err != nil {
			return err
		}
		r.logger.Info("artwork index exported", "path", path, "albums", len(artwork))
		return r.writePlain("✓ Exported %d albums to %s\n", len(artwork), path)
	}

	data, err := formatter.Export(format, artwork)
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}
