package metrics

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"photofolio/internal/lib/logger/sl"
)

// Metric одно измерение. Живет от момента замера до сброса в sink.
type Metric struct {
	Name      string            `json:"name"`
	Value     float64           `json:"value"`
	Unit      string            `json:"unit"`
	Dims      map[string]string `json:"dims,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

const (
	UnitCount        = "count"
	UnitMilliseconds = "ms"
)

// Tracker единый интерфейс сбора метрик. Контракт всех реализаций: вызов
// не может наблюдаемо упасть — внутренние ошибки уходят только в лог.
type Tracker interface {
	TrackDuration(name string, d time.Duration, dims map[string]string)
	TrackCount(name string, n int, dims map[string]string)
	TrackError(operation string, err error)
}

// Noop отключенный sink.
type Noop struct{}

func (Noop) TrackDuration(string, time.Duration, map[string]string) {}
func (Noop) TrackCount(string, int, map[string]string)              {}
func (Noop) TrackError(string, error)                               {}

// LogTracker пишет каждую метрику одной структурированной строкой журнала.
type LogTracker struct {
	log *slog.Logger
}

func NewLogTracker(log *slog.Logger) *LogTracker {
	return &LogTracker{log: log}
}

func (t *LogTracker) TrackDuration(name string, d time.Duration, dims map[string]string) {
	defer swallow()

	t.log.Info("metric",
		slog.String("name", name),
		slog.Float64("value", float64(d.Milliseconds())),
		slog.String("unit", UnitMilliseconds),
		slog.Any("dims", dims),
	)
}

func (t *LogTracker) TrackCount(name string, n int, dims map[string]string) {
	defer swallow()

	t.log.Info("metric",
		slog.String("name", name),
		slog.Int("value", n),
		slog.String("unit", UnitCount),
		slog.Any("dims", dims),
	)
}

func (t *LogTracker) TrackError(operation string, err error) {
	defer swallow()

	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}

	t.log.Info("metric",
		slog.String("name", "operation_error"),
		slog.Int("value", 1),
		slog.String("unit", UnitCount),
		slog.String("operation", operation),
		slog.String("error", msg),
	)
}

const (
	defaultFlushSize     = 100
	defaultFlushInterval = 60 * time.Second
)

type FileTrackerConfig struct {
	Path          string
	FlushSize     int
	FlushInterval time.Duration
}

// FileTracker буферизует метрики в памяти и сбрасывает их в файл
// NDJSON-записями: по достижении порога, по таймеру и при Close.
// Единственное разделяемое состояние процесса — буфер под мьютексом;
// перед асинхронной записью буфер подменяется целиком, поэтому
// конкурентные вставки во время сброса попадают в свежий буфер.
type FileTracker struct {
	log  *slog.Logger
	cfg  FileTrackerConfig
	mu   sync.Mutex
	buf  []Metric
	done chan struct{}
	once sync.Once
}

func NewFileTracker(log *slog.Logger, cfg FileTrackerConfig) *FileTracker {
	if cfg.FlushSize <= 0 {
		cfg.FlushSize = defaultFlushSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = defaultFlushInterval
	}

	t := &FileTracker{
		log:  log,
		cfg:  cfg,
		done: make(chan struct{}),
	}

	go t.flushLoop()

	return t
}

func (t *FileTracker) TrackDuration(name string, d time.Duration, dims map[string]string) {
	defer swallow()

	t.append(Metric{
		Name:      name,
		Value:     float64(d.Milliseconds()),
		Unit:      UnitMilliseconds,
		Dims:      dims,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (t *FileTracker) TrackCount(name string, n int, dims map[string]string) {
	defer swallow()

	t.append(Metric{
		Name:      name,
		Value:     float64(n),
		Unit:      UnitCount,
		Dims:      dims,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (t *FileTracker) TrackError(operation string, err error) {
	defer swallow()

	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}

	t.append(Metric{
		Name:      "operation_error",
		Value:     1,
		Unit:      UnitCount,
		Dims:      map[string]string{"operation": operation, "error": msg},
		Timestamp: time.Now().UnixMilli(),
	})
}

func (t *FileTracker) append(m Metric) {
	t.mu.Lock()
	t.buf = append(t.buf, m)
	full := len(t.buf) >= t.cfg.FlushSize
	t.mu.Unlock()

	if full {
		t.Flush()
	}
}

// Flush сбрасывает накопленный буфер в файл. Неудавшаяся запись возвращает
// пакет обратно в начало буфера, метрики не теряются.
func (t *FileTracker) Flush() {
	t.mu.Lock()
	batch := t.buf
	t.buf = nil
	t.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	if err := t.write(batch); err != nil {
		t.log.Error("failed to flush metrics", sl.Err(err))

		t.mu.Lock()
		t.buf = append(batch, t.buf...)
		t.mu.Unlock()
	}
}

func (t *FileTracker) write(batch []Metric) error {
	f, err := os.OpenFile(t.cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, m := range batch {
		if err := enc.Encode(m); err != nil {
			return err
		}
	}

	return nil
}

func (t *FileTracker) flushLoop() {
	ticker := time.NewTicker(t.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.Flush()
		case <-t.done:
			return
		}
	}
}

// Close останавливает фоновый сброс и выталкивает остаток буфера.
func (t *FileTracker) Close() {
	t.once.Do(func() {
		close(t.done)
	})

	t.Flush()
}

// TrackOperation оборачивает произвольную операцию: замеряет длительность,
// считает успехи/провалы и фиксирует ошибку. Обертка прозрачна — значение и
// ошибка fn возвращаются как есть, даже если сбор метрик сам по себе упал.
func TrackOperation[T any](ctx context.Context, t Tracker, name string, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()

	val, err := fn(ctx)

	func() {
		defer swallow()

		if t == nil {
			return
		}

		dims := map[string]string{"operation": name}

		t.TrackDuration("operation_duration", time.Since(start), dims)

		if err != nil {
			t.TrackCount("operation_failure", 1, dims)
			t.TrackError(name, err)
		} else {
			t.TrackCount("operation_success", 1, dims)
		}
	}()

	return val, err
}

// swallow не дает сбою сбора метрик дойти до вызывающего кода.
func swallow() {
	_ = recover()
}
