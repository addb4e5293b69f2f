package mode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/gaze-go/gaze"
	"github.com/khaledhikmat/gaze-go/pipeline"
	"github.com/khaledhikmat/gaze-go/service/lgr"
)

// Still runs the tracker over one image: still <image> [out]. The result
// is printed as JSON and the annotated image is written to out, which
// defaults to <image>.annotated.png.
func Still(_ context.Context, svcs pipeline.ServicesFactory, _ []pipeline.Streamer, _ pipeline.Reporter, args []string) error {
	return still(svcs, args, os.Stdout)
}

func still(svcs pipeline.ServicesFactory, args []string, w io.Writer) error {
	if len(args) == 0 {
		return xerrors.New("usage: still <image> [out]")
	}

	in := args[0]
	out := annotatedPath(in)
	if len(args) > 1 {
		out = args[1]
	}

	img := gocv.IMRead(in, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return xerrors.Errorf("error reading image %s", in)
	}

	tracker, err := svcs.InferenceSvc.NewTracker()
	if err != nil {
		return xerrors.Errorf("still tracker: %w", err)
	}
	defer tracker.Close()

	threshold := svcs.InferenceSvc.Threshold()
	res := tracker.Process(img, threshold)

	body, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return xerrors.Errorf("marshal result: %w", err)
	}
	fmt.Fprintln(w, string(body))

	annotated := gaze.Annotate(img, res)
	defer annotated.Close()
	if ok := gocv.IMWrite(out, annotated); !ok {
		return xerrors.Errorf("error writing annotated image %s", out)
	}

	lgr.Logger.Info(
		"still image processed",
		slog.String("image", in),
		slog.String("annotated", out),
		slog.Int("threshold", threshold),
		slog.String("direction", string(res.Direction)),
	)
	return nil
}

func annotatedPath(in string) string {
	return strings.TrimSuffix(in, filepath.Ext(in)) + ".annotated.png"
}
