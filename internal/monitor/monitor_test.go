package monitor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/dexsentinel/internal/anomaly"
	"github.com/Alias1177/dexsentinel/internal/baseline"
	"github.com/Alias1177/dexsentinel/internal/model"
	"github.com/Alias1177/dexsentinel/internal/report"
)

type fakeSource struct {
	records []model.Record
	err     error
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Fetch(context.Context) ([]model.Record, error) {
	return f.records, f.err
}

type memStore struct {
	b       model.Baseline
	loadErr error
	saveErr error
	saves   int
}

func (m *memStore) Load(context.Context) (model.Baseline, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.b.Clone(), nil
}

func (m *memStore) Save(_ context.Context, b model.Baseline) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.b = b.Clone()
	return nil
}

type fakeNotifier struct {
	err   error
	texts []string
}

func (f *fakeNotifier) Notify(_ context.Context, text string) error {
	f.texts = append(f.texts, text)
	return f.err
}

type fakeDescriber struct {
	calls []string
	err   error
}

func (f *fakeDescriber) Describe(_ context.Context, url string) (string, error) {
	f.calls = append(f.calls, url)
	if f.err != nil {
		return "", f.err
	}
	return "described " + url, nil
}

type panicClassifier struct{}

func (panicClassifier) Classify([]model.Record, model.Baseline) ([]model.Anomaly, model.Baseline) {
	panic("boom")
}

func record(key string, metric float64) model.Record {
	return model.Record{Key: key, Metric: metric, Symbol: key, URL: "https://dexscreener.com/solana/" + key}
}

func newRunner(store baseline.Store, src Source, n Notifier) (*Runner, *bytes.Buffer) {
	var logs bytes.Buffer
	c := anomaly.NewClassifier(anomaly.DefaultThresholds())
	c.Now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	r := &Runner{
		Store:      store,
		Source:     src,
		Classifier: c,
		Formatter:  report.NewFormatter("Test monitor", model.MetricVolume),
		Notifier:   n,
		Logger:     zerolog.New(&logs),
	}
	return r, &logs
}

func TestRunDetectsSpike(t *testing.T) {
	store := &memStore{b: model.Baseline{"P1": 100, "GONE": 9}}
	src := &fakeSource{records: []model.Record{record("P1", 600), record("P2", 50)}}
	n := &fakeNotifier{}
	r, _ := newRunner(store, src, n)

	st := r.Run(context.Background())

	assert.Equal(t, 0, st.ExitCode())
	assert.Equal(t, 2, st.Records)
	assert.Equal(t, 1, st.Anomalies)
	assert.True(t, st.Notified)
	assert.Equal(t, model.Baseline{"P1": 600, "P2": 50}, store.b)

	require.Len(t, n.texts, 1)
	assert.Equal(t, st.Report, n.texts[0])
	assert.Contains(t, n.texts[0], "Volume 100 → 600, x6.00")
}

func TestRunFirstRunIsQuiet(t *testing.T) {
	store := &memStore{b: model.Baseline{}}
	src := &fakeSource{records: []model.Record{record("P2", 50)}}
	n := &fakeNotifier{}
	r, _ := newRunner(store, src, n)

	st := r.Run(context.Background())

	assert.Equal(t, 0, st.Anomalies)
	assert.False(t, st.Notified)
	assert.Empty(t, n.texts)
	assert.Equal(t, "Test monitor: no anomalies detected", st.Report)
	assert.Equal(t, model.Baseline{"P2": 50}, store.b)
}

func TestRunNotifyOnEmpty(t *testing.T) {
	store := &memStore{b: model.Baseline{}}
	n := &fakeNotifier{}
	r, _ := newRunner(store, &fakeSource{records: []model.Record{record("P2", 50)}}, n)
	r.NotifyOnEmpty = true

	st := r.Run(context.Background())
	assert.True(t, st.Notified)
	assert.Equal(t, []string{"Test monitor: no anomalies detected"}, n.texts)
}

func TestRunFetchFailureKeepsBaseline(t *testing.T) {
	store := &memStore{b: model.Baseline{"P1": 100}}
	src := &fakeSource{err: fmt.Errorf("%w: timeout", model.ErrDataUnavailable)}
	n := &fakeNotifier{}
	r, _ := newRunner(store, src, n)

	st := r.Run(context.Background())

	assert.True(t, errors.Is(st.DataUnavailable, model.ErrDataUnavailable))
	assert.Equal(t, 0, st.ExitCode())
	assert.Equal(t, 0, store.saves)
	assert.Equal(t, model.Baseline{"P1": 100}, store.b)
	assert.Empty(t, n.texts)
	assert.Equal(t, 1, st.BaselineKeys)
}

func TestRunCorruptBaselineIsFirstRun(t *testing.T) {
	store := &memStore{loadErr: fmt.Errorf("%w: bad json", model.ErrBaselineCorrupt)}
	src := &fakeSource{records: []model.Record{record("P1", 6000)}}
	n := &fakeNotifier{}
	r, logs := newRunner(store, src, n)

	st := r.Run(context.Background())

	assert.True(t, errors.Is(st.BaselineDegraded, model.ErrBaselineCorrupt))
	assert.Equal(t, 0, st.Anomalies)
	assert.Equal(t, 0, st.ExitCode())
	assert.Equal(t, model.Baseline{"P1": 6000}, store.b)
	assert.Contains(t, logs.String(), "Baseline corrupt")
}

func TestRunSaveFailureIsFatalButStillNotifies(t *testing.T) {
	store := &memStore{b: model.Baseline{"P1": 100}, saveErr: fmt.Errorf("%w: disk full", model.ErrBaselineWriteFailed)}
	src := &fakeSource{records: []model.Record{record("P1", 600)}}
	n := &fakeNotifier{}
	r, _ := newRunner(store, src, n)

	st := r.Run(context.Background())

	assert.True(t, errors.Is(st.SaveErr, model.ErrBaselineWriteFailed))
	assert.Equal(t, 1, st.ExitCode())
	assert.True(t, st.Notified)
	require.Len(t, n.texts, 1)
}

func TestRunNotifyFailureIsNotFatal(t *testing.T) {
	store := &memStore{b: model.Baseline{"P1": 100}}
	src := &fakeSource{records: []model.Record{record("P1", 600)}}
	n := &fakeNotifier{err: fmt.Errorf("%w: 500", model.ErrNotifyFailed)}
	r, _ := newRunner(store, src, n)

	st := r.Run(context.Background())

	assert.True(t, errors.Is(st.NotifyErr, model.ErrNotifyFailed))
	assert.False(t, st.Notified)
	assert.Equal(t, 0, st.ExitCode())
	assert.Len(t, n.texts, 1, "delivery is attempted once")
	assert.Equal(t, model.Baseline{"P1": 600}, store.b)
}

func TestRunWithoutNotifier(t *testing.T) {
	store := &memStore{b: model.Baseline{"P1": 100}}
	r, logs := newRunner(store, &fakeSource{records: []model.Record{record("P1", 600)}}, nil)

	st := r.Run(context.Background())

	assert.True(t, st.NotifySkipped)
	assert.Equal(t, 0, st.ExitCode())
	assert.Contains(t, logs.String(), "No notification sink configured")
}

func TestRunDescribesAnomalies(t *testing.T) {
	store := &memStore{b: model.Baseline{"P1": 100, "P2": 100, "P3": 100}}
	withDesc := record("P2", 700)
	withDesc.Description = "already known"
	noURL := record("P3", 800)
	noURL.URL = ""
	src := &fakeSource{records: []model.Record{record("P1", 600), withDesc, noURL}}
	n := &fakeNotifier{}
	d := &fakeDescriber{}
	r, _ := newRunner(store, src, n)
	r.Describer = d

	st := r.Run(context.Background())

	assert.Equal(t, 3, st.Anomalies)
	assert.Equal(t, []string{"https://dexscreener.com/solana/P1"}, d.calls)
	assert.Contains(t, st.Report, "described https://dexscreener.com/solana/P1")
	assert.Contains(t, st.Report, "already known")
}

func TestRunDescriberFailureIsIgnored(t *testing.T) {
	store := &memStore{b: model.Baseline{"P1": 100}}
	n := &fakeNotifier{}
	r, _ := newRunner(store, &fakeSource{records: []model.Record{record("P1", 600)}}, n)
	r.Describer = &fakeDescriber{err: errors.New("404")}

	st := r.Run(context.Background())
	assert.True(t, st.Notified)
	assert.Equal(t, 1, st.Anomalies)
}

func TestRunRecoversFromPanic(t *testing.T) {
	store := &memStore{b: model.Baseline{"P1": 100}}
	r, _ := newRunner(store, &fakeSource{records: []model.Record{record("P1", 600)}}, &fakeNotifier{})
	r.Classifier = panicClassifier{}

	st := r.Run(context.Background())
	require.Error(t, st.Aborted)
	assert.Equal(t, 1, st.ExitCode())
	assert.Equal(t, model.Baseline{"P1": 100}, store.b)
}

func TestRunWithFileStoreAcrossRuns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "last_volumes.json")
	store := baseline.NewFileStore(path)
	src := &fakeSource{records: []model.Record{record("P1", 100)}}
	n := &fakeNotifier{}
	r, _ := newRunner(store, src, n)

	first := r.Run(ctx)
	assert.Equal(t, 0, first.Anomalies)

	src.records = []model.Record{record("P1", 500)}
	second := r.Run(ctx)
	assert.Equal(t, 1, second.Anomalies)

	// same level again: the baseline rolled forward, so no repeat alert
	third := r.Run(ctx)
	assert.Equal(t, 0, third.Anomalies)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"P1": 500}`, string(data))
	assert.Len(t, n.texts, 1)
}
