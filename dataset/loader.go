package dataset

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/miguelusque/NVTabular/batch"
	"github.com/miguelusque/NVTabular/core"
	"github.com/miguelusque/NVTabular/feature"
	"github.com/miguelusque/NVTabular/pkg/logging"
	"github.com/miguelusque/NVTabular/pkg/metrics"
)

// DefaultBatchSize 默认每批行数
const DefaultBatchSize = 1024

// Loader 把 Source 切成固定大小的 batch：读取 -> 变换 -> 组装。
//
// 多个 worker 并发准备 batch，已开始准备但尚未交给回调的 batch 最多 Prefetch 个；
// 无论准备完成的先后，回调总是按计划顺序收到 batch。
// 任一 batch 失败或回调返回错误时，其余工作被取消，Run 返回该错误。
type Loader struct {
	source    core.Source
	assembler *batch.Assembler
	ops       []feature.Op
	batchSize int
	dropLast  bool
	shuffle   bool
	seed      uint64
	prefetch  int
	workers   int
	log       zerolog.Logger
}

// Option 配置 Loader
type Option func(*Loader)

// WithBatchSize 设置每批行数
func WithBatchSize(n int) Option {
	return func(l *Loader) {
		l.batchSize = n
	}
}

// WithDropLast 丢弃最后不足 batch size 的 batch
func WithDropLast(drop bool) Option {
	return func(l *Loader) {
		l.dropLast = drop
	}
}

// WithShuffle 按 seed 打乱 batch 顺序（batch 内行序不变），seed 相同顺序相同
func WithShuffle(seed uint64) Option {
	return func(l *Loader) {
		l.shuffle = true
		l.seed = seed
	}
}

// WithPrefetch 设置最多提前准备的 batch 数
func WithPrefetch(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.prefetch = n
		}
	}
}

// WithWorkers 设置并发准备 batch 的 worker 数
func WithWorkers(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithTransforms 追加在组装前按顺序执行的变换
func WithTransforms(ops ...feature.Op) Option {
	return func(l *Loader) {
		l.ops = append(l.ops, ops...)
	}
}

// NewLoader 创建 Loader
func NewLoader(source core.Source, assembler *batch.Assembler, opts ...Option) (*Loader, error) {
	if source == nil || assembler == nil {
		return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeInvalidInput, "loader needs a source and an assembler")
	}
	l := &Loader{
		source:    source,
		assembler: assembler,
		batchSize: DefaultBatchSize,
		prefetch:  2,
		workers:   1,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.batchSize <= 0 {
		return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeInvalidInput, "batch size must be positive, got %d", l.batchSize)
	}
	l.log = logging.Component("loader").With().Str("source", source.Name()).Logger()
	return l, nil
}

// Span 是计划中的一个 batch：第 Index 个，覆盖 [Offset, Offset+Size) 行
type Span struct {
	Index  int
	Offset int
	Size   int
}

// Plan 返回本轮的 batch 计划（已按需打乱）
func (l *Loader) Plan(ctx context.Context) ([]Span, error) {
	total, err := l.source.NumRows(ctx)
	if err != nil {
		return nil, err
	}
	spans := make([]Span, 0, total/l.batchSize+1)
	for offset := 0; offset < total; offset += l.batchSize {
		size := min(l.batchSize, total-offset)
		if size < l.batchSize && l.dropLast {
			break
		}
		spans = append(spans, Span{Offset: offset, Size: size})
	}
	if l.shuffle {
		r := rand.New(rand.NewPCG(l.seed, l.seed))
		r.Shuffle(len(spans), func(i, j int) { spans[i], spans[j] = spans[j], spans[i] })
	}
	for i := range spans {
		spans[i].Index = i
	}
	return spans, nil
}

type prepared struct {
	batch *batch.Batch
	err   error
}

// Run 按计划顺序把每个 batch 交给 fn
func (l *Loader) Run(ctx context.Context, fn func(ctx context.Context, b *batch.Batch) error) error {
	spans, err := l.Plan(ctx)
	if err != nil {
		return err
	}
	l.log.Debug().Int("batches", len(spans)).Int("batch_size", l.batchSize).
		Int("workers", l.workers).Int("prefetch", l.prefetch).Msg("loader started")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	// 每个 batch 一个结果槽，按计划顺序排队。
	// tokens 限制已开始但尚未交给消费者的 batch 数：启动前取得，消费者取出结果时归还
	queue := make(chan chan prepared, l.prefetch)
	tokens := make(chan struct{}, l.prefetch)
	g.Go(func() error {
		defer close(queue)
		workers, wctx := errgroup.WithContext(gctx)
		workers.SetLimit(l.workers)
		for _, span := range spans {
			select {
			case tokens <- struct{}{}:
			case <-gctx.Done():
				if err := workers.Wait(); err != nil {
					return err
				}
				return gctx.Err()
			}
			if wctx.Err() != nil {
				break
			}
			slot := make(chan prepared, 1)
			workers.Go(func() error {
				b, err := l.prepare(wctx, span)
				slot <- prepared{batch: b, err: err}
				return err
			})
			queue <- slot
		}
		return workers.Wait()
	})

	var runErr error
	consumerFailed := false
	for slot := range queue {
		r := <-slot
		<-tokens
		if r.err != nil {
			runErr = r.err
			break
		}
		if err := fn(ctx, r.batch); err != nil {
			runErr = err
			consumerFailed = true
			break
		}
	}
	cancel()
	gerr := g.Wait()

	// 后面的 batch 先失败时，排在前面的 batch 只会看到取消，以 worker 的真实错误为准
	if !consumerFailed && gerr != nil && (runErr == nil || !errors.Is(gerr, context.Canceled)) {
		runErr = gerr
	}
	if runErr != nil {
		l.log.Debug().Err(runErr).Msg("loader stopped")
	}
	return runErr
}

// prepare 准备一个 batch
func (l *Loader) prepare(ctx context.Context, span Span) (*batch.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	b, err := l.assemble(ctx, span)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			metrics.RecordBatchError(l.source.Name(), core.ErrorCode(err))
		}
		return nil, fmt.Errorf("batch %d (rows %d-%d): %w", span.Index, span.Offset, span.Offset+span.Size, err)
	}
	elapsed := time.Since(start)
	metrics.RecordBatch(l.source.Name(), b.Size, b.NumValues(), elapsed)
	l.log.Debug().Int("batch", span.Index).Int("offset", span.Offset).Int("rows", b.Size).
		Dur("elapsed", elapsed).Msg("batch ready")
	return b, nil
}

func (l *Loader) assemble(ctx context.Context, span Span) (*batch.Batch, error) {
	cols, err := l.source.Read(ctx, span.Offset, span.Size)
	if err != nil {
		return nil, err
	}
	for _, op := range l.ops {
		if cols, err = op.Transform(cols); err != nil {
			return nil, err
		}
	}
	b, err := l.assembler.Assemble(cols)
	if err != nil {
		return nil, err
	}
	if b.Size != span.Size {
		return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeSchemaMismatch,
			"source returned %d rows, expected %d", b.Size, span.Size)
	}
	return b, nil
}

// Collect 读取全部 batch（小数据集与测试）
func (l *Loader) Collect(ctx context.Context) ([]*batch.Batch, error) {
	var out []*batch.Batch
	err := l.Run(ctx, func(_ context.Context, b *batch.Batch) error {
		out = append(out, b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
