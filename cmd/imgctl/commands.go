package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/UnendingLoop/ImageOrchestrator/internal/appconfig"
	"github.com/UnendingLoop/ImageOrchestrator/internal/batch"
	"github.com/UnendingLoop/ImageOrchestrator/internal/model"
	"github.com/UnendingLoop/ImageOrchestrator/internal/operation"
)

var errUsage = errors.New("invalid usage")

type resultView struct {
	URL         string    `json:"url"`
	Size        string    `json:"size"`
	ProcessedAt time.Time `json:"processed_at"`
}

func viewOf(r model.ProcessingResult) resultView {
	return resultView{URL: r.URL, Size: model.FormatSize(r.FileSize), ProcessedAt: r.ProcessedAt}
}

func bindResize(fs *flag.FlagSet, f *operation.ResizeFields) {
	fs.StringVar(&f.Width, "width", f.Width, "target width, px")
	fs.StringVar(&f.Height, "height", f.Height, "target height, px")
	fs.StringVar(&f.Quality, "quality", f.Quality, "quality 1-100, empty to omit")
	fs.StringVar(&f.Format, "format", f.Format, "jpeg|png|webp|gif")
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

func runResize(ctx context.Context, cfg *appconfig.Config, args []string, out io.Writer) error {
	fields := operation.DefaultResizeFields()
	fs := flag.NewFlagSet("resize", flag.ContinueOnError)
	in := fs.String("in", "", "image file")
	bindResize(fs, &fields)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	asset, err := readAsset(*in)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.svc.Resize(ctx, asset, fields)
	if err != nil {
		return err
	}
	return printJSON(out, viewOf(*res))
}

func runProcess(ctx context.Context, cfg *appconfig.Config, args []string, out io.Writer) error {
	form := operation.DefaultForm()
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	in := fs.String("in", "", "image file")
	resize := fs.Bool("resize", false, "enable resize")
	crop := fs.Bool("crop", false, "enable crop")
	watermark := fs.Bool("watermark", false, "enable watermark")
	bindResize(fs, &form.Resize.Fields)
	fs.StringVar(&form.Crop.Fields.X, "x", form.Crop.Fields.X, "crop left offset")
	fs.StringVar(&form.Crop.Fields.Y, "y", form.Crop.Fields.Y, "crop top offset")
	fs.StringVar(&form.Crop.Fields.Width, "crop-width", form.Crop.Fields.Width, "crop width")
	fs.StringVar(&form.Crop.Fields.Height, "crop-height", form.Crop.Fields.Height, "crop height")
	fs.StringVar(&form.Watermark.Fields.Text, "text", form.Watermark.Fields.Text, "watermark text")
	fs.StringVar(&form.Watermark.Fields.Position, "position", form.Watermark.Fields.Position, "watermark position")
	fs.StringVar(&form.Watermark.Fields.Opacity, "opacity", form.Watermark.Fields.Opacity, "watermark opacity 0-1")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if *resize {
		form.Resize.Enable()
	}
	if *crop {
		form.Crop.Enable()
	}
	if *watermark {
		form.Watermark.Enable()
	}

	asset, err := readAsset(*in)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.svc.Process(ctx, asset, form)
	if err != nil {
		return err
	}
	return printJSON(out, viewOf(*res))
}

func runBatch(ctx context.Context, cfg *appconfig.Config, args []string, out io.Writer) error {
	fields := operation.DefaultBatchFields()
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	bindResize(fs, &fields)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	coord := batch.NewCoordinator(a.svc, cfg.Limits())
	for _, path := range fs.Args() {
		asset, err := readAsset(path)
		if err != nil {
			return err
		}
		coord.Append(batch.Item{Asset: asset, Preview: path})
	}

	res, err := coord.Submit(ctx, fields)
	if err != nil {
		return err
	}

	items := coord.Items()
	views := batchViews(res, items)

	return printJSON(out, map[string]any{
		"processed":    coord.Last().SuccessCount(),
		"submitted":    len(items),
		"processed_at": res.ProcessedAt,
		"items":        views,
	})
}

type itemView struct {
	Source string      `json:"source,omitempty"`
	Result *resultView `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// batchViews pairs results with their source files only when the backend
// answered for every submitted item; a shorter answer cannot be matched by position.
func batchViews(res *model.BatchResult, items []batch.Item) []itemView {
	paired := len(res.Items) == len(items)
	views := make([]itemView, 0, len(res.Items))
	for i, it := range res.Items {
		v := itemView{Error: it.Err}
		if paired {
			v.Source = items[i].Preview
		}
		if it.OK() {
			rv := viewOf(*it.Result)
			v.Result = &rv
		}
		views = append(views, v)
	}
	return views
}

func runHealth(ctx context.Context, cfg *appconfig.Config, args []string, out io.Writer) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	rep, err := a.svc.Health(ctx)
	if err != nil {
		return err
	}
	return printJSON(out, map[string]any{
		"status":    rep.Status,
		"healthy":   rep.Healthy(),
		"timestamp": rep.Timestamp,
		"services":  rep.Services,
		"degraded":  rep.Degraded(),
	})
}

func runDownload(ctx context.Context, cfg *appconfig.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: download expects exactly one url", errUsage)
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	path, err := a.svc.Download(ctx, fs.Arg(0))
	if err != nil {
		// причину уже залогировали, пользователю - понятный текст
		return model.ErrDownloadFailed
	}
	return printJSON(out, map[string]string{"path": path})
}

func runHistory(ctx context.Context, cfg *appconfig.Config, args []string, out io.Writer) error {
	var req model.ListRequest
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	id := fs.String("id", "", "show one record")
	fs.IntVar(&req.Page, "page", 1, "page number")
	fs.IntVar(&req.Limit, "limit", 30, "page size, up to 100")
	fs.StringVar(&req.Sort, "sort", model.ByCreated, "processed|created|size")
	fs.StringVar(&req.Order, "order", model.OrderDESC, "ascend|descend")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if *id != "" {
		rec, err := a.svc.HistoryRecord(ctx, *id)
		if err != nil {
			return err
		}
		return printJSON(out, rec)
	}

	recs, err := a.svc.History(ctx, &req)
	if err != nil {
		return err
	}
	return printJSON(out, recs)
}

func readAsset(path string) (model.ImageAsset, error) {
	if path == "" {
		return model.ImageAsset{}, &model.ValidationError{Field: "image", Reason: model.ErrEmptyAsset.Error(), Cause: model.ErrEmptyAsset}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.ImageAsset{}, fmt.Errorf("read image: %w", err)
	}

	ct := mime.TypeByExtension(filepath.Ext(path))
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return model.NewImageAsset(filepath.Base(path), ct, data), nil
}
