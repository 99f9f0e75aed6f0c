package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tessro/woodshed/internal/bookmarks"
	"github.com/tessro/woodshed/internal/core"
	"github.com/tessro/woodshed/internal/stems"
)

var infoSong songFlags

var infoCmd = &cobra.Command{
	Use:   "info <guitar> <backing>",
	Short: "Decode a song's stems and show what was loaded",
	Long: `Fetch and decode both stems without opening the audio device, then show
the song's duration, each stem's format and size, and saved loops.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runInfo,
}

func init() {
	infoSong.register(infoCmd)
	rootCmd.AddCommand(infoCmd)
}

type stemInfo struct {
	Stem       core.Stem `json:"stem"`
	Source     string    `json:"source"`
	SampleRate int       `json:"sample_rate"`
	Channels   int       `json:"channels"`
	Duration   float64   `json:"duration_seconds"`
	Bytes      uint64    `json:"bytes"`
}

type infoResult struct {
	Track     core.Track     `json:"track"`
	Key       string         `json:"key"`
	Stems     []stemInfo     `json:"stems"`
	Bookmarks core.Bookmarks `json:"bookmarks"`
}

func runInfo(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	req, err := resolveSong(args, infoSong, nil)
	if err != nil {
		return err
	}
	loaded, err := loadStems(ctx, req)
	if err != nil {
		return err
	}

	res := infoResult{Track: loaded.Track}
	for _, stem := range core.AllStems {
		buf := loaded.Buffer(stem)
		res.Stems = append(res.Stems, stemInfo{
			Stem:       stem,
			Source:     loaded.Track.Sources.For(stem),
			SampleRate: int(buf.Format().SampleRate),
			Channels:   buf.Format().NumChannels,
			Duration:   buf.Duration(),
			Bytes:      buf.Size(),
		})
	}

	res.Key, err = bookmarks.TrackKey(loaded.Track)
	if err != nil {
		return err
	}
	if store := optionalBookmarks(); store != nil {
		defer func() { _ = store.Close() }()
		if res.Bookmarks, err = store.List(ctx, res.Key); err != nil {
			return err
		}
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(res)
	}
	return outputInfo(res)
}

func outputInfo(res infoResult) error {
	track := res.Track
	Normal("Song", track.Name)
	if track.Artist != "" {
		Normal("Artist", track.Artist)
	}
	Normal("Duration", core.FormatTime(track.DurationSeconds))
	Normal("Key", res.Key)
	fmt.Println()

	table := NewTable("STEM", "RATE", "CH", "LENGTH", "SIZE", "SOURCE")
	for _, s := range res.Stems {
		length := core.FormatTime(s.Duration)
		if drift := s.Duration - track.DurationSeconds; drift > stems.DurationTolerance || -drift > stems.DurationTolerance {
			length += " (!)"
		}
		table.Row(
			s.Stem.DisplayName(),
			fmt.Sprintf("%d Hz", s.SampleRate),
			fmt.Sprintf("%d", s.Channels),
			length,
			humanize.Bytes(s.Bytes),
			TruncateString(s.Source, 50),
		)
	}
	table.Flush()

	if len(res.Bookmarks) > 0 {
		fmt.Println()
		printBookmarks(res.Bookmarks)
	}
	return nil
}
