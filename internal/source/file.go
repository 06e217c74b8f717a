package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"reel/internal/graph"
	"reel/internal/logging"
	"reel/internal/media/ffprobe"
	"reel/internal/services"
	"reel/internal/timeline"
)

// FileResolver resolves local file paths.
type FileResolver struct {
	FFprobe      string
	ProbeTimeout time.Duration
	Logger       *slog.Logger
}

func (r FileResolver) Resolve(ctx context.Context, ref string) (Source, error) {
	ref = strings.TrimSpace(ref)
	info, err := os.Stat(ref)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "source", "resolve", ref, err)
		}
		return nil, services.Wrap(services.ErrValidation, "source", "resolve", ref, err)
	}
	if info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "source", "resolve", ref+" is a directory", nil)
	}
	if timeline.InferInputType(ref) == timeline.InputImage {
		return r.resolveImage(ref)
	}
	return r.resolveVideo(ctx, ref)
}

func (r FileResolver) resolveImage(ref string) (Source, error) {
	file, err := os.Open(ref)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "source", "open image", ref, err)
	}
	defer file.Close()

	cfg, name, err := image.DecodeConfig(file)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "source", "decode image header", ref, err)
	}
	return &Static{
		Reference: ref,
		InputKind: timeline.InputImage,
		Fmt:       graph.Format{MimeType: "image/" + name, Width: cfg.Width, Height: cfg.Height},
	}, nil
}

func (r FileResolver) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.ProbeTimeout > 0 {
		return context.WithTimeout(ctx, r.ProbeTimeout)
	}
	return context.WithCancel(ctx)
}

func (r FileResolver) resolveVideo(ctx context.Context, ref string) (Source, error) {
	probeCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	result, err := ffprobe.Inspect(probeCtx, r.FFprobe, ref)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "source", "probe", ref, err)
	}
	stream, ok := result.FirstVideoStream()
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "source", "probe", ref+" has no video stream", nil)
	}
	logging.NewComponentLogger(r.Logger, "source").Debug("video probed",
		logging.String(logging.FieldSource, ref),
		logging.String("codec", stream.CodecName),
		logging.Int64("duration_us", result.DurationUs()),
	)
	return &probedVideo{
		resolver: r,
		ref:      ref,
		format: graph.Format{
			MimeType:  "video/" + stream.CodecName,
			Width:     stream.Width,
			Height:    stream.Height,
			FrameRate: stream.FrameRate(),
			Color: graph.ColorInfo{
				Space:    stream.ColorSpace,
				Range:    stream.ColorRange,
				Transfer: stream.ColorTransfer,
			},
		},
		durationUs: result.DurationUs(),
	}, nil
}

type probedVideo struct {
	resolver   FileResolver
	ref        string
	format     graph.Format
	durationUs int64
}

func (v *probedVideo) Ref() string { return v.ref }

func (v *probedVideo) Kind() timeline.InputType { return timeline.InputBuffer }

func (v *probedVideo) Format() graph.Format { return v.format }

func (v *probedVideo) DurationUs() int64 { return v.durationUs }

// Decoder lists frame timestamps with a second ffprobe pass.
func (v *probedVideo) Decoder(ctx context.Context) (Decoder, error) {
	probeCtx, cancel := v.resolver.withTimeout(ctx)
	defer cancel()

	times, err := ffprobe.FrameTimes(probeCtx, v.resolver.FFprobe, v.ref)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "source", "list frames", v.ref, err)
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("%w: %s has no decodable frames", services.ErrSourceExhausted, v.ref)
	}
	return NewSliceDecoder(times), nil
}
