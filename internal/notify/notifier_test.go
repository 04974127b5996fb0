package notify

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/j-veylop/claudewatch/internal/models"
	"github.com/j-veylop/claudewatch/internal/store"
)

// fakeBlobs is an in-memory Blobs implementation.
type fakeBlobs struct {
	data    map[string][]byte
	saves   int
	saveErr error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{data: make(map[string][]byte)}
}

func (f *fakeBlobs) Load(key string) ([]byte, bool, error) {
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeBlobs) Save(key string, value []byte) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.data[key] = value
	return nil
}

// fakeDeliverer records every delivery.
type fakeDeliverer struct {
	sent    []delivery
	sendErr error
}

type delivery struct {
	bucket   string
	severity models.Threshold
}

func (f *fakeDeliverer) Send(bucketID string, severity models.Threshold, _ string) error {
	f.sent = append(f.sent, delivery{bucket: bucketID, severity: severity})
	return f.sendErr
}

func limit(id string, utilization float64, resetsAt *time.Time) models.UsageLimit {
	return models.UsageLimit{ID: id, Title: id, Utilization: utilization, ResetsAt: resetsAt}
}

func futureReset(t *testing.T) *time.Time {
	t.Helper()
	reset := time.Now().Add(3 * time.Hour)
	return &reset
}

func newTestNotifier(t *testing.T) (*Notifier, *fakeDeliverer, *fakeBlobs) {
	t.Helper()
	d := &fakeDeliverer{}
	b := newFakeBlobs()
	return New(d, b), d, b
}

func TestThresholdMonotonicity(t *testing.T) {
	n, d, _ := newTestNotifier(t)
	reset := futureReset(t)

	for _, u := range []float64{0.10, 0.80, 0.95, 0.96} {
		n.Evaluate([]models.UsageLimit{limit("five_hour", u, reset)})
	}

	want := []delivery{
		{bucket: "five_hour", severity: models.ThresholdWarning},
		{bucket: "five_hour", severity: models.ThresholdCritical},
	}
	if len(d.sent) != len(want) {
		t.Fatalf("deliveries = %+v, want %+v", d.sent, want)
	}
	for i := range want {
		if d.sent[i] != want[i] {
			t.Errorf("delivery[%d] = %+v, want %+v", i, d.sent[i], want[i])
		}
	}
}

func TestPeriodResetClearsAcknowledgements(t *testing.T) {
	n, d, _ := newTestNotifier(t)
	reset := futureReset(t)

	for _, u := range []float64{0.10, 0.80, 0.95, 0.96} {
		n.Evaluate([]models.UsageLimit{limit("five_hour", u, reset)})
	}

	newReset := reset.Add(5 * time.Hour)
	n.Evaluate([]models.UsageLimit{limit("five_hour", 0.80, &newReset)})

	if len(d.sent) != 3 {
		t.Fatalf("deliveries = %+v", d.sent)
	}
	last := d.sent[2]
	if last.severity != models.ThresholdWarning {
		t.Errorf("re-armed delivery severity = %v, want warning", last.severity)
	}
}

func TestDropBelowReset(t *testing.T) {
	n, d, _ := newTestNotifier(t)
	reset := futureReset(t)

	n.Evaluate([]models.UsageLimit{limit("five_hour", 0.80, reset)})
	n.Evaluate([]models.UsageLimit{limit("five_hour", 0.10, reset)})
	n.Evaluate([]models.UsageLimit{limit("five_hour", 0.80, reset)})

	if len(d.sent) != 2 {
		t.Fatalf("deliveries = %+v, want exactly 2 warnings", d.sent)
	}
	for _, sent := range d.sent {
		if sent.severity != models.ThresholdWarning {
			t.Errorf("severity = %v, want warning", sent.severity)
		}
	}
}

func TestBothFireAscendingOnJump(t *testing.T) {
	n, d, _ := newTestNotifier(t)
	reset := futureReset(t)

	n.Evaluate([]models.UsageLimit{limit("seven_day", 0.95, reset)})

	if len(d.sent) != 2 {
		t.Fatalf("deliveries = %+v", d.sent)
	}
	if d.sent[0].severity != models.ThresholdWarning || d.sent[1].severity != models.ThresholdCritical {
		t.Errorf("order = %+v, want warning then critical", d.sent)
	}
}

func TestClockPastResetRearms(t *testing.T) {
	n, d, _ := newTestNotifier(t)

	past := time.Now().Add(-time.Minute)
	n.now = func() time.Time { return past.Add(-time.Hour) }
	n.Evaluate([]models.UsageLimit{limit("five_hour", 0.80, &past)})

	// Clock passes the boundary while the remote still reports the
	// same reset time.
	n.now = time.Now
	n.Evaluate([]models.UsageLimit{limit("five_hour", 0.80, &past)})

	if len(d.sent) != 2 {
		t.Fatalf("deliveries = %+v, want re-fire after boundary", d.sent)
	}
}

func TestUnmonitoredBucketIsNoOp(t *testing.T) {
	n, d, b := newTestNotifier(t)
	reset := futureReset(t)

	n.Evaluate([]models.UsageLimit{limit("seven_day_opus", 0.99, reset)})

	if len(d.sent) != 0 {
		t.Errorf("deliveries = %+v, want none", d.sent)
	}
	if b.saves != 0 {
		t.Errorf("saves = %d, want 0", b.saves)
	}
}

func TestDeliveryFailureStillAcknowledges(t *testing.T) {
	n, d, _ := newTestNotifier(t)
	d.sendErr = errors.New("notification daemon down")
	reset := futureReset(t)

	n.Evaluate([]models.UsageLimit{limit("five_hour", 0.80, reset)})
	n.Evaluate([]models.UsageLimit{limit("five_hour", 0.81, reset)})

	if len(d.sent) != 1 {
		t.Errorf("deliveries = %+v, failed send must not retry", d.sent)
	}
}

func TestPersistenceSkippedWhenUnchanged(t *testing.T) {
	n, _, b := newTestNotifier(t)
	reset := futureReset(t)

	n.Evaluate([]models.UsageLimit{limit("five_hour", 0.80, reset)})
	savesAfterFirst := b.saves
	if savesAfterFirst == 0 {
		t.Fatal("expected a save after first crossing")
	}

	n.Evaluate([]models.UsageLimit{limit("five_hour", 0.81, reset)})
	if b.saves != savesAfterFirst {
		t.Errorf("saves = %d, want unchanged %d", b.saves, savesAfterFirst)
	}
}

func TestPersistenceFailureKeepsMemoryState(t *testing.T) {
	n, d, b := newTestNotifier(t)
	b.saveErr = errors.New("disk full")
	reset := futureReset(t)

	n.Evaluate([]models.UsageLimit{limit("five_hour", 0.80, reset)})
	n.Evaluate([]models.UsageLimit{limit("five_hour", 0.81, reset)})

	// The in-memory acknowledgement survived the failed write.
	if len(d.sent) != 1 {
		t.Errorf("deliveries = %+v, want one", d.sent)
	}
}

func TestRecordsLoadedAtConstruction(t *testing.T) {
	b := newFakeBlobs()
	reset := time.Now().Add(2 * time.Hour).UTC()
	records := map[string]*record{
		"five_hour": {ResetsAt: &reset, Acknowledged: []models.Threshold{models.ThresholdWarning}},
	}
	data, err := json.Marshal(records)
	if err != nil {
		t.Fatal(err)
	}
	b.data[store.KeyNotificationRecords] = data

	d := &fakeDeliverer{}
	n := New(d, b)

	// The warning is already acknowledged in the persisted record.
	n.Evaluate([]models.UsageLimit{limit("five_hour", 0.80, &reset)})
	if len(d.sent) != 0 {
		t.Errorf("deliveries = %+v, want none for persisted acknowledgement", d.sent)
	}
}

func TestMalformedRecordsDiscarded(t *testing.T) {
	b := newFakeBlobs()
	b.data[store.KeyNotificationRecords] = []byte("{corrupt")

	d := &fakeDeliverer{}
	n := New(d, b)

	reset := futureReset(t)
	n.Evaluate([]models.UsageLimit{limit("five_hour", 0.80, reset)})
	if len(d.sent) != 1 {
		t.Errorf("deliveries = %+v, notifier should start fresh", d.sent)
	}
}
