package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forPelevin/capburn/internal/pipeline"
	"github.com/forPelevin/capburn/internal/types"
)

func newBurnCommand(configPath *string) *cobra.Command {
	var (
		srtPath string
		lang    string
	)

	cmd := &cobra.Command{
		Use:   "burn <video>",
		Short: "Caption a local video and write the subtitled copy to storage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(*configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			// A running server owns the same storage dir and output names.
			if err := rt.store.Lock(); err != nil {
				return err
			}
			defer rt.store.Unlock()

			video, err := uploadLocal(args[0], rt.svc.Upload)
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			var res pipeline.Result
			if strings.TrimSpace(srtPath) != "" {
				captions, err := uploadLocal(srtPath, rt.svc.UploadCaptions)
				if err != nil {
					return err
				}
				res, err = rt.svc.BurnCaptions(ctx, video.Name, captions.Name, lang)
				if err != nil {
					return describe(err)
				}
			} else {
				res, err = rt.svc.Generate(ctx, video.Name, lang)
				if err != nil {
					return describe(err)
				}
			}

			out := cmd.OutOrStdout()
			if res.SRTFile != "" {
				fmt.Fprintf(out, "captions: %s\n", filepath.Join(rt.store.Dir(), res.SRTFile))
			}
			fmt.Fprintf(out, "video: %s\n", filepath.Join(rt.store.Dir(), res.VideoFile))
			return nil
		},
	}
	cmd.Flags().StringVar(&srtPath, "srt", "", "Burn this .srt file instead of transcribing")
	cmd.Flags().StringVar(&lang, "language", "", "Spoken language code (default from config)")
	return cmd
}

func uploadLocal(path string, save func(string, io.Reader) (types.MediaAsset, error)) (types.MediaAsset, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.MediaAsset{}, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return types.MediaAsset{}, fmt.Errorf("stat input: %w", err)
	}
	if !fi.Mode().IsRegular() {
		return types.MediaAsset{}, fmt.Errorf("input %s is not a regular file", path)
	}
	asset, err := save(filepath.Base(path), f)
	if err != nil {
		return types.MediaAsset{}, describe(err)
	}
	return asset, nil
}

// describe prefers the external tool's diagnostic over the wrapped error chain.
func describe(err error) error {
	var te *types.TranscodeError
	if errors.As(err, &te) {
		return fmt.Errorf("%s: %s", te.Op, te.Diagnostic())
	}
	return err
}
