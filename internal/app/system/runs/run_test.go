package runs

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/pharmahub/internal/app/clients/pharmaapi"
	"github.com/dalemusser/pharmahub/internal/app/system/bulkimport"
	"github.com/dalemusser/pharmahub/internal/app/system/sheet"
	"github.com/xuri/excelize/v2"
	"go.uber.org/goleak"
)

type apiFunc func(ctx context.Context, endpoint, pluralKey string, records any) (*pharmaapi.BulkResponse, error)

func (f apiFunc) BulkCreate(ctx context.Context, endpoint, pluralKey string, records any) (*pharmaapi.BulkResponse, error) {
	return f(ctx, endpoint, pluralKey, records)
}

func createAll(_ context.Context, _, _ string, records any) (*pharmaapi.BulkResponse, error) {
	n := len(records.([]bulkimport.Candidate))
	return &pharmaapi.BulkResponse{Summary: pharmaapi.BulkSummary{Total: n, Created: n}}, nil
}

func quickSubmitter(api bulkimport.BulkCreator) *bulkimport.Submitter {
	return &bulkimport.Submitter{
		API:   api,
		Sleep: func(context.Context, time.Duration) error { return nil },
	}
}

func municipalityProfile(t *testing.T) bulkimport.Profile {
	t.Helper()
	p, err := bulkimport.NewRegistry(nil).Lookup("municipalities")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	return p
}

// workbook builds an xlsx with a Nombre column and n data rows.
func workbook(t *testing.T, n int) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	_ = f.SetCellValue("Sheet1", "A1", "Nombre")
	for i := 0; i < n; i++ {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = f.SetCellValue("Sheet1", cell, "Municipio "+strings.Repeat("x", i%3+1))
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf
}

func newTestRun(t *testing.T) *Run {
	return newRun("run-1", "user-1", municipalityProfile(t), time.Unix(0, 0))
}

func TestRun_ResetEqualsFresh(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := newTestRun(t)
	fresh := newTestRun(t)

	if err := r.SetContext(bulkimport.Context{StateID: "4"}); err != nil {
		t.Fatalf("SetContext: %v", err)
	}
	if err := r.SelectFile("m.xlsx", workbook(t, 3)); err != nil {
		t.Fatalf("SelectFile: %v", err)
	}
	if err := r.Start(context.Background(), quickSubmitter(apiFunc(createAll)), bulkimport.Options{}, nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	r.Wait()

	if err := r.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if !reflect.DeepEqual(r.d, fresh.d) {
		t.Errorf("reset state %+v differs from fresh %+v", r.d, fresh.d)
	}
	if !reflect.DeepEqual(r.View(), fresh.View()) {
		t.Error("reset view differs from fresh view")
	}
	if err := r.Reset(); err != nil || !reflect.DeepEqual(r.d, fresh.d) {
		t.Error("second reset is not idempotent")
	}
}

func TestRun_SelectFileWithoutContextWaits(t *testing.T) {
	r := newTestRun(t)
	err := r.SelectFile("m.xlsx", workbook(t, 2))
	if !errors.Is(err, bulkimport.ErrContextMissing) {
		t.Fatalf("expected ErrContextMissing, got %v", err)
	}
	v := r.View()
	if v.State != FileSelected || v.RowCount != 2 || len(v.Preview) != 0 {
		t.Errorf("view = %+v", v)
	}

	if err := r.SetContext(bulkimport.Context{StateID: "9"}); err != nil {
		t.Fatalf("SetContext: %v", err)
	}
	v = r.View()
	if v.State != Previewing || len(v.Preview) != 2 {
		t.Fatalf("after context: state=%s preview=%d", v.State, len(v.Preview))
	}
}

func TestRun_ParseErrorKeepsFileName(t *testing.T) {
	r := newTestRun(t)
	_ = r.SetContext(bulkimport.Context{StateID: "1"})

	err := r.SelectFile("roto.xlsx", strings.NewReader("garbage"))
	if !errors.Is(err, sheet.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	v := r.View()
	if v.State != FileSelected || v.FileName != "roto.xlsx" || v.ParseError == "" {
		t.Errorf("view = %+v", v)
	}
	if v.Context.StateID != "1" {
		t.Error("replacing the file dropped the chosen context")
	}
}

func TestRun_ContextChangeRemapsCandidates(t *testing.T) {
	r := newTestRun(t)
	_ = r.SetContext(bulkimport.Context{StateID: "1"})
	if err := r.SelectFile("m.xlsx", workbook(t, 2)); err != nil {
		t.Fatalf("SelectFile: %v", err)
	}
	if err := r.SetContext(bulkimport.Context{StateID: "2"}); err != nil {
		t.Fatalf("SetContext: %v", err)
	}
	for _, c := range r.View().Preview {
		if c.(bulkimport.MunicipalityCandidate).StateID != "2" {
			t.Fatalf("stale candidate after context change: %+v", c)
		}
	}

	err := r.SetContext(bulkimport.Context{})
	if !errors.Is(err, bulkimport.ErrContextMissing) {
		t.Fatalf("expected ErrContextMissing, got %v", err)
	}
	if v := r.View(); v.State != FileSelected || len(v.Preview) != 0 {
		t.Errorf("clearing context should drop candidates, got %+v", v)
	}
}

func TestRun_StartRequiresPreview(t *testing.T) {
	r := newTestRun(t)
	err := r.Start(context.Background(), quickSubmitter(apiFunc(createAll)), bulkimport.Options{}, nil)
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestRun_UploadCompletes(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := newTestRun(t)
	_ = r.SetContext(bulkimport.Context{StateID: "3"})
	if err := r.SelectFile("m.xlsx", workbook(t, 120)); err != nil {
		t.Fatalf("SelectFile: %v", err)
	}

	var finished View
	done := make(chan struct{})
	err := r.Start(context.Background(), quickSubmitter(apiFunc(createAll)), bulkimport.Options{}, func(v View) {
		finished = v
		close(done)
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-done
	r.Wait()

	if finished.State != Completed || finished.Result.Created != 120 {
		t.Errorf("finished = %+v", finished.Result)
	}
	if finished.UploadID == "" {
		t.Error("finished upload carries no upload ID")
	}
	v := r.View()
	if v.Progress.Percent != 100 || v.Progress.Batch != 3 || v.FinishedAt.IsZero() {
		t.Errorf("progress = %+v", v.Progress)
	}
}

func TestRun_StopCancelsRemainingBatches(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := newTestRun(t)
	_ = r.SetContext(bulkimport.Context{StateID: "3"})
	if err := r.SelectFile("m.xlsx", workbook(t, 150)); err != nil {
		t.Fatalf("SelectFile: %v", err)
	}

	entered := make(chan struct{}, 3)
	release := make(chan struct{})
	api := apiFunc(func(ctx context.Context, e, k string, records any) (*pharmaapi.BulkResponse, error) {
		entered <- struct{}{}
		<-release
		return createAll(ctx, e, k, records)
	})
	if err := r.Start(context.Background(), quickSubmitter(api), bulkimport.Options{}, nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-entered

	if err := r.Reset(); !errors.Is(err, ErrBusy) {
		t.Errorf("Reset while uploading = %v, want ErrBusy", err)
	}

	r.Cancel()
	close(release)
	r.Wait()

	v := r.View()
	if !v.Result.Cancelled || v.Result.Created != 50 || v.Result.Skipped != 100 {
		t.Errorf("result = %+v", v.Result)
	}
	if v.State != Completed {
		t.Errorf("state = %s", v.State)
	}
}

func TestRun_CompletedKeepsResult(t *testing.T) {
	defer goleak.VerifyNone(t)

	var calls int
	api := apiFunc(func(ctx context.Context, e, k string, records any) (*pharmaapi.BulkResponse, error) {
		calls++
		return createAll(ctx, e, k, records)
	})
	sub := quickSubmitter(api)

	r := newTestRun(t)
	_ = r.SetContext(bulkimport.Context{StateID: "7"})
	if err := r.SelectFile("m.xlsx", workbook(t, 3)); err != nil {
		t.Fatalf("SelectFile: %v", err)
	}
	if err := r.Start(context.Background(), sub, bulkimport.Options{}, nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	r.Wait()
	before := r.View()

	if err := r.SetContext(bulkimport.Context{StateID: "8"}); !errors.Is(err, ErrCompleted) {
		t.Fatalf("SetContext on a completed run = %v, want ErrCompleted", err)
	}
	after := r.View()
	if after.State != Completed || after.Result.Created != 3 || after.Context.StateID != "7" {
		t.Errorf("after SetContext: state=%s created=%d state_id=%s", after.State, after.Result.Created, after.Context.StateID)
	}
	if !reflect.DeepEqual(before.Result, after.Result) {
		t.Errorf("result changed: %+v -> %+v", before.Result, after.Result)
	}

	if err := r.Start(context.Background(), sub, bulkimport.Options{}, nil); !errors.Is(err, ErrNotReady) {
		t.Errorf("second Start = %v, want ErrNotReady", err)
	}
	r.Wait()
	if calls != 1 {
		t.Errorf("BulkCreate called %d times, want 1", calls)
	}

	// A new file starts a fresh upload.
	if err := r.SelectFile("m2.xlsx", workbook(t, 2)); err != nil {
		t.Fatalf("SelectFile after completion: %v", err)
	}
	if v := r.View(); v.State != Previewing || v.Result.Created != 0 {
		t.Errorf("after new file: state=%s result=%+v", v.State, v.Result)
	}
}
