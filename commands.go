package main

import (
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"retroplayer/config"
	"retroplayer/database"
	"retroplayer/library"
	"retroplayer/models"
)

func scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan [dir]",
		Short: "Add the audio files under a directory to the library",
		Long: `Walk a directory and add every supported audio file to the library
stored in DB_PATH. Defaults to LIBRARY_DIR. Files already in the library
are listed but not added twice.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := config.Config.Library.Dir
			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				return cmd.Help()
			}

			db, err := database.New(config.Config.Storage.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			tracks, err := library.New(db).IngestDir(dir)
			if err != nil {
				log.Warnf("Some files could not be read: %v", err)
			}
			renderTracks(cmd.OutOrStdout(), tracks)
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	var (
		top   bool
		limit int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently played or most played tracks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.New(config.Config.Storage.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if top {
				records, err := db.GetMostPlayed(limit)
				if err != nil {
					return err
				}
				renderMostPlayed(cmd.OutOrStdout(), records)
				return nil
			}

			records, err := db.GetHistory(limit)
			if err != nil {
				return err
			}
			renderHistory(cmd.OutOrStdout(), records)
			return nil
		},
	}
	cmd.Flags().BoolVar(&top, "top", false, "show the most played tracks instead")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of rows")
	return cmd
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	return t
}

func renderTracks(out io.Writer, tracks []models.Track) {
	t := newTable(out)
	t.AppendHeader(table.Row{"ID", "Title", "Artist"})
	for _, track := range tracks {
		t.AppendRow(table.Row{track.SourceID, track.DisplayTitle(), track.DisplayArtist()})
	}
	t.AppendFooter(table.Row{"", "Total", strconv.Itoa(len(tracks))})
	t.Render()
}

func renderHistory(out io.Writer, records []database.PlayRecord) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Played", "Title", "Artist", "Origin"})
	for _, r := range records {
		t.AppendRow(table.Row{r.PlayedAt.Local().Format("2006-01-02 15:04"), r.Title, r.Artist, r.Origin})
	}
	t.Render()
}

func renderMostPlayed(out io.Writer, records []database.MostPlayedRecord) {
	t := newTable(out)
	t.AppendHeader(table.Row{"#", "Title", "Artist", "Plays", "Last played"})
	for i, r := range records {
		t.AppendRow(table.Row{i + 1, r.Title, r.Artist, r.PlayCount, r.LastPlayed.Local().Format("2006-01-02 15:04")})
	}
	t.Render()
}
