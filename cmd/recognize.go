package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/celebrity-recognition/internal/recognition"
)

type recognizer interface {
	Recognize(ctx context.Context, requestID string, image []byte) (*recognition.Response, error)
}

var recognizeCmd = &cobra.Command{
	Use:   "recognize <image_path>",
	Short: "Recognize celebrities in a local image file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		uc, err := newRecognitionUseCase(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		return runRecognize(cmd.Context(), args[0], uc, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(recognizeCmd)
}

func runRecognize(ctx context.Context, imagePath string, uc recognizer, out io.Writer) error {
	image, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("failed to read image file: %w", err)
	}
	if len(image) == 0 {
		return errors.New("image file is empty")
	}

	resp, err := uc.Recognize(ctx, uuid.NewString(), image)
	if err != nil {
		return err
	}

	if len(resp.CelebrityFaces) == 0 {
		fmt.Fprintln(out, "No celebrities recognized.")
	} else {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tNAME\tCONFIDENCE\tBOX (L,T,W,H)\tURLS")
		for i, face := range resp.CelebrityFaces {
			box := face.BoundingBox
			fmt.Fprintf(w, "%d\t%s\t%.1f%%\t%.2f,%.2f,%.2f,%.2f\t%s\n",
				i+1, face.Name, face.MatchConfidence, box.Left, box.Top, box.Width, box.Height, strings.Join(face.URLs, " "))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	if resp.UnrecognizedFaces > 0 {
		fmt.Fprintf(out, "%d other face(s) not recognized.\n", resp.UnrecognizedFaces)
	}
	return nil
}
