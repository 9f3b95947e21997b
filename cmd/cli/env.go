package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dvloznov/tally-ledger/internal/app"
	"github.com/dvloznov/tally-ledger/internal/gcsuploader"
	"github.com/dvloznov/tally-ledger/internal/ledger"
	"github.com/dvloznov/tally-ledger/internal/logger"
	"github.com/dvloznov/tally-ledger/internal/render"
)

type uploader interface {
	gcsuploader.Uploader
	Close() error
}

// env holds what the commands share. The ledger and the storage client are
// opened on first use so that help never touches a store.
type env struct {
	out    io.Writer
	bucket string
	now    func() time.Time

	open        func(ctx context.Context) (*app.Ledger, error)
	newUploader func(ctx context.Context) (uploader, error)

	ledger   *app.Ledger
	uploader uploader
}

func (e *env) openLedger(ctx context.Context) (*app.Ledger, error) {
	if e.ledger == nil {
		l, err := e.open(ctx)
		if err != nil {
			return nil, err
		}
		e.ledger = l
	}
	return e.ledger, nil
}

func (e *env) dispatch(ctx context.Context, op ledger.Operation, args ledger.Args) (*ledger.Result, error) {
	l, err := e.openLedger(ctx)
	if err != nil {
		return nil, err
	}
	now := e.now
	if now == nil {
		now = time.Now
	}
	return ledger.NewDispatcher(l.Service, now).Dispatch(ctx, op, args)
}

func (e *env) close() {
	if e.uploader != nil {
		_ = e.uploader.Close()
		e.uploader = nil
	}
	if e.ledger != nil {
		_ = e.ledger.Close()
		e.ledger = nil
	}
}

// output renders a result to stdout or, with -upload or -uri, to GCS.
type output struct {
	format string
	upload bool
	uri    string
}

func (o *output) setFlags(f *flag.FlagSet) {
	f.StringVar(&o.format, "format", "text", "Report format: text, csv or json.")
	f.BoolVar(&o.upload, "upload", false, "Upload the report to GCS_BUCKET instead of printing it.")
	f.StringVar(&o.uri, "uri", "", "Upload the report to this gs:// URI. Implies -upload.")
}

func (o *output) emit(ctx context.Context, e *env, res *ledger.Result) error {
	if res.Report == nil {
		_, err := fmt.Fprintln(e.out, res.Message)
		return err
	}

	format, err := render.ParseFormat(o.format)
	if err != nil {
		return err
	}

	if !o.upload && o.uri == "" {
		return render.Write(e.out, format, res.Report)
	}

	uri := o.uri
	if uri == "" {
		if e.bucket == "" {
			return fmt.Errorf("emit: -upload needs GCS_BUCKET or -uri")
		}
		uri = gcsuploader.ObjectURI(e.bucket, objectName(res.Report.Title), format.Extension())
	}

	data, err := render.Bytes(format, res.Report)
	if err != nil {
		return err
	}
	if e.uploader == nil {
		if e.uploader, err = e.newUploader(ctx); err != nil {
			return err
		}
	}
	if err := e.uploader.Upload(ctx, uri, format.ContentType(), data); err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	log.Info().Str("uri", uri).Int("rows", len(res.Report.Rows)).Msg("Report uploaded")
	_, err = fmt.Fprintln(e.out, uri)
	return err
}

// objectName turns "Outstanding items 2024" into "outstanding-items-2024".
func objectName(title string) string {
	fields := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	if len(fields) == 0 {
		return "report"
	}
	return strings.Join(fields, "-")
}
