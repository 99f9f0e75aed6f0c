package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tessro/woodshed/internal/core"
	"github.com/tessro/woodshed/internal/export"
	"github.com/tessro/woodshed/internal/mixer"
)

var (
	exportSong     songFlags
	exportOut      string
	exportLoop     string
	exportBookmark int64
	exportIsolate  string
	exportGuitar   int
	exportBacking  int
)

var exportCmd = &cobra.Command{
	Use:   "export <guitar> <backing>",
	Short: "Bounce a loop of both stems to a WAV file",
	Long: `Mix a region of the guitar and backing stems at the chosen volumes and
write it as 16-bit stereo WAV at the guitar stem's sample rate.

Without --loop or --bookmark the whole song is exported.`,
	Example: `  woodshed export guitar.wav backing.wav --loop 1:02-1:18 -o solo.wav
  woodshed export guitar.wav backing.wav --bookmark 3 --isolate backing -o jam.wav`,
	Args: cobra.MaximumNArgs(2),
	RunE: runExport,
}

func init() {
	exportSong.register(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "loop.wav", "output WAV file")
	exportCmd.Flags().StringVarP(&exportLoop, "loop", "l", "", "region start-end (seconds or m:ss)")
	exportCmd.Flags().Int64VarP(&exportBookmark, "bookmark", "b", 0, "export a saved bookmark by ID")
	exportCmd.Flags().StringVar(&exportIsolate, "isolate", "", "isolation preset: full, guitar or backing")
	exportCmd.Flags().IntVar(&exportGuitar, "guitar-volume", -1, "guitar volume 0-100")
	exportCmd.Flags().IntVar(&exportBacking, "backing-volume", -1, "backing track volume 0-100")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if exportLoop != "" && exportBookmark != 0 {
		return fmt.Errorf("pass either --loop or --bookmark, not both")
	}

	req, err := resolveSong(args, exportSong, nil)
	if err != nil {
		return err
	}
	loaded, err := loadStems(ctx, req)
	if err != nil {
		return err
	}

	region := core.LoopRegion{Start: 0, End: loaded.Track.DurationSeconds}
	switch {
	case exportLoop != "":
		if region, err = parseRegion(exportLoop); err != nil {
			return err
		}
	case exportBookmark != 0:
		store, err := openBookmarks()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		b, err := findBookmark(ctx, store, loaded.Track, exportBookmark)
		if err != nil {
			return err
		}
		region = b.Region()
	}
	if region.End > loaded.Track.DurationSeconds {
		region.End = loaded.Track.DurationSeconds
	}

	mix := mixer.New(nil)
	if exportIsolate != "" {
		preset, err := parseIsolation(exportIsolate)
		if err != nil {
			return err
		}
		if err := mix.ApplyIsolation(preset); err != nil {
			return err
		}
	}
	if exportGuitar >= 0 {
		mix.SetVolume(core.StemGuitar, exportGuitar)
	}
	if exportBacking >= 0 {
		mix.SetVolume(core.StemBacking, exportBacking)
	}

	f, err := os.Create(exportOut)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() { _ = f.Close() }()

	frames, err := export.WAV(f, loaded.Guitar, loaded.Backing, region, mix.Volumes())
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		return err
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"status":  "exported",
			"path":    exportOut,
			"region":  region,
			"volumes": mix.Volumes(),
			"frames":  frames,
			"bytes":   info.Size(),
		})
	}
	fmt.Printf("Exported %s (%s) to %s [%s]\n",
		region, core.FormatTime(region.Duration()), exportOut, humanize.Bytes(uint64(info.Size())))
	return nil
}
