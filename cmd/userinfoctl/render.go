package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-userinfo/components/userinfo"
	"github.com/goliatone/go-userinfo/pkg/search"
	"github.com/goliatone/go-userinfo/pkg/splunk"
)

type renderCmd struct {
	Input   string        `arg:"" type:"existingfile" help:"json_rows (.json) or CSV (.csv) export of the search results."`
	Locale  string        `help:"Locale used for placeholder messages."`
	Timeout time.Duration `default:"5s" help:"How long to wait for the render."`
}

func (cmd *renderCmd) Run(ctx context.Context) error {
	results, err := readResults(cmd.Input)
	if err != nil {
		return err
	}
	manager := search.NewManager(userinfo.DefaultSearchID, search.WithRunner(search.NewStaticRunner(results)))
	defer manager.Close()

	rendered := make(chan userinfo.RenderEvent, 1)
	widget, err := userinfo.NewWidget(userinfo.Options{
		Provider: manager,
		Locale:   cmd.Locale,
		Hook:     renderSignal(rendered),
	})
	if err != nil {
		return err
	}
	if err := widget.Start(ctx); err != nil {
		return err
	}
	defer widget.Stop()

	if err := manager.Run(ctx); err != nil {
		return err
	}
	select {
	case event := <-rendered:
		if event.Snapshot.Skipped > 0 {
			fmt.Fprintf(os.Stderr, "skipped %d malformed rows\n", event.Snapshot.Skipped)
		}
		_, err := fmt.Fprintln(os.Stdout, event.Snapshot.HTML)
		return err
	case <-time.After(cmd.Timeout):
		return errors.New("userinfoctl: timed out waiting for render")
	}
}

// renderSignal forwards the first non-loading render.
type renderSignal chan<- userinfo.RenderEvent

func (s renderSignal) WidgetRendered(_ context.Context, event userinfo.RenderEvent) error {
	if event.Snapshot.State != userinfo.StateRendered {
		return nil
	}
	select {
	case s <- event:
	default:
	}
	return nil
}

func readResults(path string) (userinfo.ResultsModel, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return userinfo.ResultsModel{}, fmt.Errorf("userinfoctl: open %s: %w", path, err)
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return readCSV(f)
	}
	return splunk.DecodeResults(f)
}

// readCSV treats the first record as the header row.
func readCSV(r io.Reader) (userinfo.ResultsModel, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return userinfo.ResultsModel{}, fmt.Errorf("userinfoctl: parse csv: %w", err)
	}
	if len(records) == 0 {
		return userinfo.ResultsModel{}, nil
	}
	model := userinfo.ResultsModel{Fields: records[0], Rows: make([]userinfo.ResultRow, 0, len(records)-1)}
	for _, record := range records[1:] {
		model.Rows = append(model.Rows, userinfo.ResultRow(record))
	}
	return model, nil
}
